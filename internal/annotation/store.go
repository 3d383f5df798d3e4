package annotation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowdeckhq/flowdeck/internal/db"
	"github.com/flowdeckhq/flowdeck/internal/model"
)

// Store manages comments and hotspots.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateComment validates and inserts a comment. A reply must point at
// an existing comment on the same screen.
func (s *Store) CreateComment(ctx context.Context, c *Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ParentCommentID != "" {
		parent, err := s.GetComment(ctx, c.ParentCommentID)
		if err != nil {
			return err
		}
		if parent.ScreenID != c.ScreenID {
			return model.Validationf("parent_comment_id", "reply must stay on the same screen")
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, screen_id, parent_comment_id, author_id, body, x_position, y_position, resolved, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ScreenID, nullable(c.ParentCommentID), c.AuthorID, c.Body, c.X, c.Y, c.Resolved, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating comment: %w", err)
	}
	return nil
}

// GetComment retrieves a non-deleted comment by id.
func (s *Store) GetComment(ctx context.Context, id string) (*Comment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, screen_id, parent_comment_id, author_id, body, x_position, y_position, resolved, created_at, updated_at
		 FROM comments WHERE id = ? AND deleted_at IS NULL`, id)
	c, err := scanComment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %q: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting comment: %w", err)
	}
	return &c, nil
}

// ListComments returns a screen's comments oldest first, so threads
// read top to bottom.
func (s *Store) ListComments(ctx context.Context, screenID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, screen_id, parent_comment_id, author_id, body, x_position, y_position, resolved, created_at, updated_at
		 FROM comments WHERE screen_id = ? AND deleted_at IS NULL ORDER BY created_at`, screenID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ResolveComment toggles a comment's resolved flag.
func (s *Store) ResolveComment(ctx context.Context, id string, resolved bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET resolved = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		resolved, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("resolving comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("comment %q: %w", id, model.ErrNotFound)
	}
	return nil
}

// DeleteComment soft-deletes a comment and its replies.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	if _, err := s.GetComment(ctx, id); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE comments SET deleted_at = ? WHERE deleted_at IS NULL AND (id = ? OR parent_comment_id = ?)`,
		now, id, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return nil
}

func scanComment(scan func(dest ...any) error) (Comment, error) {
	var c Comment
	var parent sql.NullString
	var x, y sql.NullFloat64
	err := scan(&c.ID, &c.ScreenID, &parent, &c.AuthorID, &c.Body, &x, &y, &c.Resolved, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Comment{}, err
	}
	c.ParentCommentID = parent.String
	if x.Valid {
		c.X = &x.Float64
	}
	if y.Valid {
		c.Y = &y.Float64
	}
	return c, nil
}

// CreateHotspot validates and inserts a hotspot.
func (s *Store) CreateHotspot(ctx context.Context, h *Hotspot) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hotspots (id, screen_id, target_screen_id, label, x, y, width, height, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.ScreenID, nullable(h.TargetScreenID), h.Label,
		h.Box.X, h.Box.Y, h.Box.Width, h.Box.Height, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating hotspot: %w", err)
	}
	return nil
}

// ListHotspots returns a screen's hotspots.
func (s *Store) ListHotspots(ctx context.Context, screenID string) ([]Hotspot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, screen_id, target_screen_id, label, x, y, width, height, created_at, updated_at
		 FROM hotspots WHERE screen_id = ? AND deleted_at IS NULL ORDER BY created_at`, screenID)
	if err != nil {
		return nil, fmt.Errorf("listing hotspots: %w", err)
	}
	defer rows.Close()

	var out []Hotspot
	for rows.Next() {
		var h Hotspot
		var target sql.NullString
		if err := rows.Scan(&h.ID, &h.ScreenID, &target, &h.Label,
			&h.Box.X, &h.Box.Y, &h.Box.Width, &h.Box.Height, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning hotspot: %w", err)
		}
		h.TargetScreenID = target.String
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpdateHotspot replaces a hotspot's box, label, and target.
func (s *Store) UpdateHotspot(ctx context.Context, h *Hotspot) error {
	if err := h.Validate(); err != nil {
		return err
	}
	h.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE hotspots SET target_screen_id=?, label=?, x=?, y=?, width=?, height=?, updated_at=?
		 WHERE id = ? AND deleted_at IS NULL`,
		nullable(h.TargetScreenID), h.Label, h.Box.X, h.Box.Y, h.Box.Width, h.Box.Height, h.UpdatedAt, h.ID)
	if err != nil {
		return fmt.Errorf("updating hotspot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("hotspot %q: %w", h.ID, model.ErrNotFound)
	}
	return nil
}

// DeleteHotspot soft-deletes a hotspot.
func (s *Store) DeleteHotspot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hotspots SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deleting hotspot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("hotspot %q: %w", id, model.ErrNotFound)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
