package share

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowdeckhq/flowdeck/internal/db"
	"github.com/flowdeckhq/flowdeck/internal/model"
)

// Link is a tokened, read-only entry point into one project. Anyone
// with the token can view the project tree; nothing else.
type Link struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Token     string     `json:"token"`
	CreatedBy string     `json:"created_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// ErrLinkInvalid is returned for unknown, revoked, or expired tokens.
// One error for all three; a viewer never learns which.
var ErrLinkInvalid = errors.New("share link is invalid or expired")

// Store manages share links.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create mints a share link for a project.
func (s *Store) Create(ctx context.Context, projectID, createdBy string, expiresAt *time.Time) (*Link, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generating share token: %w", err)
	}

	l := &Link{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Token:     hex.EncodeToString(raw),
		CreatedBy: createdBy,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO share_links (id, project_id, token, created_by, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.ProjectID, l.Token, l.CreatedBy, l.ExpiresAt, l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating share link: %w", err)
	}
	return l, nil
}

// Resolve returns the project a token grants access to.
func (s *Store) Resolve(ctx context.Context, token string) (*Link, error) {
	var l Link
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, token, created_by, expires_at, created_at, revoked_at
		 FROM share_links WHERE token = ?`, token,
	).Scan(&l.ID, &l.ProjectID, &l.Token, &l.CreatedBy, &l.ExpiresAt, &l.CreatedAt, &l.RevokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("resolving share link: %w", err)
	}
	if l.RevokedAt != nil {
		return nil, ErrLinkInvalid
	}
	if l.ExpiresAt != nil && time.Now().After(*l.ExpiresAt) {
		return nil, ErrLinkInvalid
	}
	return &l, nil
}

// List returns a project's links, active and revoked.
func (s *Store) List(ctx context.Context, projectID string) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, token, created_by, expires_at, created_at, revoked_at
		 FROM share_links WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing share links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Token, &l.CreatedBy, &l.ExpiresAt, &l.CreatedAt, &l.RevokedAt); err != nil {
			return nil, fmt.Errorf("scanning share link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Revoke disables a link. The row stays for the audit trail.
func (s *Store) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE share_links SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("revoking share link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("share link %q: %w", id, model.ErrNotFound)
	}
	return nil
}
