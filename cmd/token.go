package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowdeckhq/flowdeck/internal/auth"
)

var (
	tokenScope      string
	tokenExpireDays int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
	Long: `Manage API tokens for the flowdeck server. While no tokens exist the
server runs in open mode; creating the first token switches it to
token-only access.`,
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an API token and print its secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		var expiresAt *time.Time
		if tokenExpireDays > 0 {
			t := time.Now().UTC().AddDate(0, 0, tokenExpireDays)
			expiresAt = &t
		}

		token, secret, err := auth.NewStore(database).Create(cmd.Context(), args[0], localActor, auth.Scope(tokenScope), expiresAt)
		if err != nil {
			return err
		}

		fmt.Printf("Created token %q (%s, scope %s)\n", token.Name, token.ID, token.Scope)
		fmt.Printf("Secret (shown once, store it now):\n\n  %s\n", secret)
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		tokens, err := auth.NewStore(database).List(cmd.Context(), localActor)
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			fmt.Println("No tokens. The server runs in open mode.")
			return nil
		}
		for _, t := range tokens {
			line := fmt.Sprintf("%s  %s  scope=%s  created=%s", t.ID, t.Name, t.Scope, t.CreatedAt.Format("2006-01-02"))
			if t.ExpiresAt != nil {
				line += "  expires=" + t.ExpiresAt.Format("2006-01-02")
			}
			if t.LastUsed != nil {
				line += "  last-used=" + t.LastUsed.Format("2006-01-02")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Revoke an API token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		if err := auth.NewStore(database).Revoke(cmd.Context(), localActor, args[0]); err != nil {
			return err
		}
		fmt.Println("Token revoked.")
		return nil
	},
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenScope, "scope", string(auth.ScopeReadWrite), "Token scope: read or readwrite")
	tokenCreateCmd.Flags().IntVar(&tokenExpireDays, "expires-in-days", 0, "Days until the token expires (0 = never)")
	tokenCmd.AddCommand(tokenCreateCmd, tokenListCmd, tokenRevokeCmd)
	rootCmd.AddCommand(tokenCmd)
}
