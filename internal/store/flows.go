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

const flowColumns = `f.id, f.project_id, f.name, f.description, f.order_index,
	f.parent_flow_id, f.parent_screen_id, f.created_at, f.updated_at,
	(SELECT COUNT(*) FROM screens sc WHERE sc.flow_id = f.id AND sc.deleted_at IS NULL)`

// scanFlow reads one flow row. screen_count is always derived from the
// live screen set in the same query, never stored; a row with both
// parent columns set fails the scan.
func scanFlow(scan func(dest ...any) error) (model.Flow, error) {
	var f model.Flow
	var parentFlow, parentScreen sql.NullString
	err := scan(&f.ID, &f.ProjectID, &f.Name, &f.Description, &f.OrderIndex,
		&parentFlow, &parentScreen, &f.CreatedAt, &f.UpdatedAt, &f.ScreenCount)
	if err != nil {
		return model.Flow{}, err
	}
	parent, err := model.ParentRefFromColumns(parentFlow.String, parentScreen.String)
	if err != nil {
		return model.Flow{}, fmt.Errorf("flow %s: %w", f.ID, err)
	}
	f.Parent = parent
	return f, nil
}

// CreateFlow inserts a new flow at the end of its sibling group.
func (s *Store) CreateFlow(ctx context.Context, f *model.Flow) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	next, err := s.nextFlowOrderIndex(ctx, f.ProjectID, f.Parent)
	if err != nil {
		return err
	}
	f.OrderIndex = next

	parentFlow, parentScreen := f.Parent.Columns()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flows (id, project_id, name, description, order_index, parent_flow_id, parent_screen_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.ProjectID, f.Name, f.Description, f.OrderIndex,
		nullable(parentFlow), nullable(parentScreen), f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating flow: %w", err)
	}
	return nil
}

// nextFlowOrderIndex returns max(order_index)+1 within the flow's
// sibling group, or 0 for the first sibling.
func (s *Store) nextFlowOrderIndex(ctx context.Context, projectID string, parent model.ParentRef) (int, error) {
	parentFlow, parentScreen := parent.Columns()
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(order_index) FROM flows
		 WHERE project_id = ? AND deleted_at IS NULL
		   AND COALESCE(parent_flow_id,'') = ? AND COALESCE(parent_screen_id,'') = ?`,
		projectID, parentFlow, parentScreen,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("computing flow order index: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

// GetFlow retrieves a non-deleted flow by id.
func (s *Store) GetFlow(ctx context.Context, id string) (*model.Flow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+flowColumns+` FROM flows f WHERE f.id = ? AND f.deleted_at IS NULL`, id)
	f, err := scanFlow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("flow %q: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting flow: %w", err)
	}
	return &f, nil
}

// ListFlowsByProject returns a project's non-deleted flows ordered by
// order_index.
func (s *Store) ListFlowsByProject(ctx context.Context, projectID string) ([]model.Flow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+flowColumns+` FROM flows f
		 WHERE f.project_id = ? AND f.deleted_at IS NULL ORDER BY f.order_index`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing flows: %w", err)
	}
	defer rows.Close()

	var result []model.Flow
	for rows.Next() {
		f, err := scanFlow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning flow: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// UpdateFlow applies a validated patch to a flow.
func (s *Store) UpdateFlow(ctx context.Context, id string, patch *model.FlowPatch) (*model.Flow, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := s.GetFlow(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)
	updated.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`UPDATE flows SET name=?, description=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		updated.Name, updated.Description, updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating flow: %w", err)
	}
	return &updated, nil
}

// SaveFlowParent persists a flow's parent reference and order index,
// as computed by the reparenting engine.
func (s *Store) SaveFlowParent(ctx context.Context, f *model.Flow) error {
	parentFlow, parentScreen := f.Parent.Columns()
	res, err := s.db.ExecContext(ctx,
		`UPDATE flows SET parent_flow_id=?, parent_screen_id=?, order_index=?, updated_at=?
		 WHERE id=? AND deleted_at IS NULL`,
		nullable(parentFlow), nullable(parentScreen), f.OrderIndex, time.Now().UTC(), f.ID,
	)
	if err != nil {
		return fmt.Errorf("saving flow parent: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("flow %q: %w", f.ID, model.ErrNotFound)
	}
	return nil
}

// ReorderFlows persists new order_index values for a sibling group in
// one transaction.
func (s *Store) ReorderFlows(ctx context.Context, flows []model.Flow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reorder: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, f := range flows {
		if _, err := tx.ExecContext(ctx,
			`UPDATE flows SET order_index=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
			f.OrderIndex, now, f.ID); err != nil {
			return fmt.Errorf("reordering flow %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteFlow soft-deletes a flow together with its screens, the flows
// nested under it, and the flows branching from any of its screens,
// recursively.
func (s *Store) DeleteFlow(ctx context.Context, id string) error {
	if _, err := s.GetFlow(ctx, id); err != nil {
		return err
	}

	flowIDs, screenIDs, err := s.collectFlowCascade(ctx, []string{id})
	if err != nil {
		return err
	}
	return s.softDeleteCascade(ctx, flowIDs, screenIDs)
}

// nullable maps "" to NULL for optional reference columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
