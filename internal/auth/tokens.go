package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowdeckhq/flowdeck/internal/db"
	"github.com/flowdeckhq/flowdeck/internal/model"
)

// Scope limits what an API token may do.
type Scope string

const (
	ScopeRead      Scope = "read"
	ScopeReadWrite Scope = "readwrite"
)

// Token is an API token record. The plaintext secret is only available
// at creation time; the store keeps its sha-256 hash.
type Token struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	UserID    string     `json:"user_id"`
	OrgID     string     `json:"org_id,omitempty"`
	Scope     Scope      `json:"scope"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// ErrInvalidToken is returned when a presented token does not match any
// stored token or has expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// Store manages API tokens.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create mints a new token for the given identity and returns the
// record together with the plaintext secret. The secret is not
// recoverable later.
func (s *Store) Create(ctx context.Context, name string, actor model.Actor, scope Scope, expiresAt *time.Time) (*Token, string, error) {
	if scope != ScopeRead && scope != ScopeReadWrite {
		return nil, "", model.Validationf("scope", "must be %q or %q", ScopeRead, ScopeReadWrite)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}
	secret := "fd_" + hex.EncodeToString(raw)

	t := &Token{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    actor.UserID,
		OrgID:     actor.OrgID,
		Scope:     scope,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_tokens (id, name, token_hash, user_id, org_id, scope, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, hashToken(secret), t.UserID, t.OrgID, string(t.Scope), t.CreatedAt, t.ExpiresAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("creating token: %w", err)
	}
	return t, secret, nil
}

// Authenticate resolves a plaintext token to its record, updating
// last_used as a side effect.
func (s *Store) Authenticate(ctx context.Context, secret string) (*Token, error) {
	var t Token
	var scope string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, user_id, org_id, scope, created_at, expires_at, last_used
		 FROM api_tokens WHERE token_hash = ?`, hashToken(secret),
	).Scan(&t.ID, &t.Name, &t.UserID, &t.OrgID, &scope, &t.CreatedAt, &t.ExpiresAt, &t.LastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("looking up token: %w", err)
	}
	t.Scope = Scope(scope)

	if t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE api_tokens SET last_used = ? WHERE id = ?`, time.Now().UTC(), t.ID); err != nil {
		return nil, fmt.Errorf("touching token: %w", err)
	}
	return &t, nil
}

// List returns the tokens belonging to an actor's owner scope.
func (s *Store) List(ctx context.Context, actor model.Actor) ([]Token, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, user_id, org_id, scope, created_at, expires_at, last_used
		 FROM api_tokens WHERE user_id = ? AND org_id = ? ORDER BY created_at DESC`,
		actor.UserID, actor.OrgID)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	defer rows.Close()

	var tokens []Token
	for rows.Next() {
		var t Token
		var scope string
		if err := rows.Scan(&t.ID, &t.Name, &t.UserID, &t.OrgID, &scope, &t.CreatedAt, &t.ExpiresAt, &t.LastUsed); err != nil {
			return nil, fmt.Errorf("scanning token: %w", err)
		}
		t.Scope = Scope(scope)
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Revoke deletes a token by id. Tokens are hard-deleted; there is
// nothing to audit on a secret that no longer works.
func (s *Store) Revoke(ctx context.Context, actor model.Actor, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM api_tokens WHERE id = ? AND user_id = ? AND org_id = ?`,
		id, actor.UserID, actor.OrgID)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("token %q: %w", id, model.ErrNotFound)
	}
	return nil
}

// Count returns how many tokens exist at all. Zero means the install
// runs in open mode.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tokens: %w", err)
	}
	return n, nil
}

func hashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Actor returns the identity a token acts as.
func (t *Token) Actor() model.Actor {
	return model.Actor{UserID: t.UserID, OrgID: t.OrgID}
}
