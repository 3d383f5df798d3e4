// Package store provides CRUD persistence for projects, flows, and
// screens on SQLite. It is the backing store behind the optimistic
// session layer: every method either fully applies or fully fails, and
// all deletes are soft.
package store

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

// Store provides persistence for the project/flow/screen hierarchy.
type Store struct {
	db *db.DB
}

// New creates a store on the given database.
func New(d *db.DB) *Store {
	return &Store{db: d}
}

// ownerClause scopes a projects query to the actor: the organization
// when present, otherwise the user's personal projects.
func ownerClause(actor model.Actor) (string, []any) {
	if actor.OrgID != "" {
		return "owner_org_id = ?", []any{actor.OrgID}
	}
	return "owner_user_id = ? AND owner_org_id = ''", []any{actor.UserID}
}

// CreateProject inserts a new project owned by the actor.
func (s *Store) CreateProject(ctx context.Context, actor model.Actor, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Color == "" {
		p.Color = "#3b82f6"
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.OwnerUserID = actor.UserID
	p.OwnerOrgID = actor.OrgID

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, color, owner_user_id, owner_org_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Color, p.OwnerUserID, p.OwnerOrgID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

// GetProject retrieves a non-deleted project visible to the actor.
func (s *Store) GetProject(ctx context.Context, actor model.Actor, id string) (*model.Project, error) {
	clause, args := ownerClause(actor)
	p := &model.Project{}
	var orgID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, color, owner_user_id, owner_org_id, created_at, updated_at
		 FROM projects WHERE id = ? AND deleted_at IS NULL AND `+clause,
		append([]any{id}, args...)...,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.OwnerUserID, &orgID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	p.OwnerOrgID = orgID.String
	return p, nil
}

// ProjectOwner resolves a project's owning actor without owner scoping.
// Share links use it to read a project on behalf of its owner.
func (s *Store) ProjectOwner(ctx context.Context, id string) (model.Actor, error) {
	var a model.Actor
	var orgID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_user_id, owner_org_id FROM projects WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&a.UserID, &orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Actor{}, fmt.Errorf("project %q: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Actor{}, fmt.Errorf("resolving project owner: %w", err)
	}
	a.OrgID = orgID.String
	return a, nil
}

// ListProjects returns the actor's non-deleted projects, newest first.
func (s *Store) ListProjects(ctx context.Context, actor model.Actor) ([]model.Project, error) {
	clause, args := ownerClause(actor)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, color, owner_user_id, owner_org_id, created_at, updated_at
		 FROM projects WHERE deleted_at IS NULL AND `+clause+` ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var result []model.Project
	for rows.Next() {
		var p model.Project
		var orgID sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &p.OwnerUserID, &orgID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.OwnerOrgID = orgID.String
		result = append(result, p)
	}
	return result, rows.Err()
}

// UpdateProject applies a validated patch to a project.
func (s *Store) UpdateProject(ctx context.Context, actor model.Actor, id string, patch *model.ProjectPatch) (*model.Project, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := s.GetProject(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)
	updated.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`UPDATE projects SET name=?, description=?, color=?, updated_at=? WHERE id=? AND deleted_at IS NULL`,
		updated.Name, updated.Description, updated.Color, updated.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return &updated, nil
}

// DeleteProject soft-deletes a project and everything it owns: screens
// first, then flows, then the project row, mirroring the dependency
// order so a partial failure never leaves orphans pointing at a deleted
// project.
func (s *Store) DeleteProject(ctx context.Context, actor model.Actor, id string) error {
	if _, err := s.GetProject(ctx, actor, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE screens SET deleted_at=? WHERE deleted_at IS NULL AND flow_id IN
		 (SELECT id FROM flows WHERE project_id=?)`, now, id); err != nil {
		return fmt.Errorf("deleting project screens: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE flows SET deleted_at=? WHERE deleted_at IS NULL AND project_id=?`, now, id); err != nil {
		return fmt.Errorf("deleting project flows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET deleted_at=? WHERE id=?`, now, id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	return tx.Commit()
}
