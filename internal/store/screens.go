package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

const screenColumns = `id, flow_id, parent_id, title, display_name, screenshot_url,
	notes, order_index, level, path, created_at, updated_at`

const screenColumnsAliased = `sc.id, sc.flow_id, sc.parent_id, sc.title, sc.display_name,
	sc.screenshot_url, sc.notes, sc.order_index, sc.level, sc.path, sc.created_at, sc.updated_at`

func scanScreen(scan func(dest ...any) error) (model.Screen, error) {
	var sc model.Screen
	var parentID, path sql.NullString
	err := scan(&sc.ID, &sc.FlowID, &parentID, &sc.Title, &sc.DisplayName, &sc.ScreenshotURL,
		&sc.Notes, &sc.OrderIndex, &sc.Level, &path, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return model.Screen{}, err
	}
	sc.ParentID = parentID.String
	sc.Path = path.String
	return sc, nil
}

// CreateScreen inserts a new screen at the end of its sibling group
// (same flow, same parent). Level and path derive from the parent; a
// missing parent id demotes the screen to a root rather than failing,
// matching the tolerance of the tree builder.
func (s *Store) CreateScreen(ctx context.Context, sc *model.Screen) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.DisplayName == "" {
		sc.DisplayName = sc.Title
	}
	now := time.Now().UTC()
	sc.CreatedAt = now
	sc.UpdatedAt = now

	if sc.ParentID != "" {
		parent, err := s.GetScreen(ctx, sc.ParentID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			sc.ParentID = ""
		case err != nil:
			return err
		case parent.FlowID != sc.FlowID:
			return fmt.Errorf("parent screen %q is in flow %q: %w", parent.ID, parent.FlowID, model.ErrCrossFlowMove)
		default:
			sc.Level = parent.Level + 1
			sc.Path = parent.Path + "/" + parent.ID
		}
	}
	if sc.ParentID == "" {
		sc.Level = 0
		sc.Path = ""
	}

	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(order_index) FROM screens
		 WHERE flow_id = ? AND COALESCE(parent_id,'') = ? AND deleted_at IS NULL`,
		sc.FlowID, sc.ParentID,
	).Scan(&max)
	if err != nil {
		return fmt.Errorf("computing screen order index: %w", err)
	}
	if max.Valid {
		sc.OrderIndex = int(max.Int64) + 1
	} else {
		sc.OrderIndex = 0
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO screens (id, flow_id, parent_id, title, display_name, screenshot_url, notes, order_index, level, path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.FlowID, nullable(sc.ParentID), sc.Title, sc.DisplayName, sc.ScreenshotURL,
		sc.Notes, sc.OrderIndex, sc.Level, nullable(sc.Path), sc.CreatedAt, sc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	return nil
}

// GetScreen retrieves a non-deleted screen by id.
func (s *Store) GetScreen(ctx context.Context, id string) (*model.Screen, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+screenColumns+` FROM screens WHERE id = ? AND deleted_at IS NULL`, id)
	sc, err := scanScreen(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("screen %q: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting screen: %w", err)
	}
	return &sc, nil
}

// ListScreensByFlow returns a flow's non-deleted screens ordered by
// order_index.
func (s *Store) ListScreensByFlow(ctx context.Context, flowID string) ([]model.Screen, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+screenColumns+` FROM screens
		 WHERE flow_id = ? AND deleted_at IS NULL ORDER BY order_index`, flowID)
	if err != nil {
		return nil, fmt.Errorf("listing screens: %w", err)
	}
	defer rows.Close()
	return collectScreens(rows)
}

// ListScreensByProject returns every non-deleted screen in a project,
// grouped by flow in flow order.
func (s *Store) ListScreensByProject(ctx context.Context, projectID string) ([]model.Screen, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+screenColumnsAliased+` FROM screens sc
		 JOIN flows f ON f.id = sc.flow_id
		 WHERE f.project_id = ? AND sc.deleted_at IS NULL AND f.deleted_at IS NULL
		 ORDER BY f.order_index, sc.order_index`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project screens: %w", err)
	}
	defer rows.Close()
	return collectScreens(rows)
}

func collectScreens(rows *sql.Rows) ([]model.Screen, error) {
	var result []model.Screen
	for rows.Next() {
		sc, err := scanScreen(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning screen: %w", err)
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// UpdateScreen applies a validated patch to a screen.
func (s *Store) UpdateScreen(ctx context.Context, id string, patch *model.ScreenPatch) (*model.Screen, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := s.GetScreen(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)
	updated.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`UPDATE screens SET title=?, display_name=?, screenshot_url=?, notes=?, updated_at=?
		 WHERE id=? AND deleted_at IS NULL`,
		updated.Title, updated.DisplayName, updated.ScreenshotURL, updated.Notes, updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating screen: %w", err)
	}
	return &updated, nil
}

// SavePlacements persists structural changes (parent, order, level,
// path) for a set of screens in one transaction, as produced by the
// reparenting engine.
func (s *Store) SavePlacements(ctx context.Context, screens []model.Screen) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning placement update: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, sc := range screens {
		if _, err := tx.ExecContext(ctx,
			`UPDATE screens SET parent_id=?, order_index=?, level=?, path=?, updated_at=?
			 WHERE id=? AND deleted_at IS NULL`,
			nullable(sc.ParentID), sc.OrderIndex, sc.Level, nullable(sc.Path), now, sc.ID); err != nil {
			return fmt.Errorf("saving placement for screen %s: %w", sc.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteScreen soft-deletes a screen, its descendant screens, and any
// flow branching from a deleted screen, recursively. Branch flows
// cascade rather than dangle; a flow pointing at a deleted screen would
// otherwise be unreachable in the tree view.
func (s *Store) DeleteScreen(ctx context.Context, id string) error {
	sc, err := s.GetScreen(ctx, id)
	if err != nil {
		return err
	}

	flowScreens, err := s.ListScreensByFlow(ctx, sc.FlowID)
	if err != nil {
		return err
	}

	var doomed []string
	descendants := descendantScreenSet(id, flowScreens)
	for sid := range descendants {
		doomed = append(doomed, sid)
	}

	flowIDs, screenIDs, err := s.collectScreenCascade(ctx, doomed)
	if err != nil {
		return err
	}
	return s.softDeleteCascade(ctx, flowIDs, screenIDs)
}
