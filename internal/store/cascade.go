package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

// Deleting a flow or screen ripples: a flow takes its screens, its
// nested flows, and the flows branching from its screens; a screen
// takes its descendant screens and the flows branching from any of
// them. Branch flows cascade (they are not promoted to top level); the
// tree view has no way to reach a flow whose branch point is gone.

// descendantScreenSet wraps the tree engine's BFS for cascade use.
func descendantScreenSet(rootID string, flowScreens []model.Screen) map[string]bool {
	return tree.DescendantScreenIDs(rootID, flowScreens)
}

// collectFlowCascade expands seed flow ids to the full set of flows and
// screens the cascade must delete.
func (s *Store) collectFlowCascade(ctx context.Context, seedFlows []string) (flowIDs, screenIDs []string, err error) {
	return s.collectCascade(ctx, seedFlows, nil)
}

// collectScreenCascade expands seed screen ids (already including their
// subtree) likewise.
func (s *Store) collectScreenCascade(ctx context.Context, seedScreens []string) (flowIDs, screenIDs []string, err error) {
	return s.collectCascade(ctx, nil, seedScreens)
}

// collectCascade alternates between the two edge kinds until the
// closure stops growing: flows pull in their screens and child flows,
// screens pull in their child screens and branch flows.
func (s *Store) collectCascade(ctx context.Context, seedFlows, seedScreens []string) ([]string, []string, error) {
	flows := map[string]bool{}
	screens := map[string]bool{}
	for _, id := range seedFlows {
		flows[id] = true
	}
	for _, id := range seedScreens {
		screens[id] = true
	}

	for {
		grew := false

		if len(flows) > 0 {
			// Screens owned by known flows.
			ids, err := s.queryIDs(ctx,
				`SELECT id FROM screens WHERE deleted_at IS NULL AND flow_id IN `+placeholders(len(flows)),
				keys(flows)...)
			if err != nil {
				return nil, nil, fmt.Errorf("collecting cascade screens: %w", err)
			}
			for _, id := range ids {
				if !screens[id] {
					screens[id] = true
					grew = true
				}
			}

			// Flows nested under known flows.
			ids, err = s.queryIDs(ctx,
				`SELECT id FROM flows WHERE deleted_at IS NULL AND parent_flow_id IN `+placeholders(len(flows)),
				keys(flows)...)
			if err != nil {
				return nil, nil, fmt.Errorf("collecting nested flows: %w", err)
			}
			for _, id := range ids {
				if !flows[id] {
					flows[id] = true
					grew = true
				}
			}
		}

		if len(screens) > 0 {
			// Screens nested under known screens.
			ids, err := s.queryIDs(ctx,
				`SELECT id FROM screens WHERE deleted_at IS NULL AND parent_id IN `+placeholders(len(screens)),
				keys(screens)...)
			if err != nil {
				return nil, nil, fmt.Errorf("collecting child screens: %w", err)
			}
			for _, id := range ids {
				if !screens[id] {
					screens[id] = true
					grew = true
				}
			}

			// Flows branching from known screens.
			ids, err = s.queryIDs(ctx,
				`SELECT id FROM flows WHERE deleted_at IS NULL AND parent_screen_id IN `+placeholders(len(screens)),
				keys(screens)...)
			if err != nil {
				return nil, nil, fmt.Errorf("collecting branch flows: %w", err)
			}
			for _, id := range ids {
				if !flows[id] {
					flows[id] = true
					grew = true
				}
			}
		}

		if !grew {
			return keysStr(flows), keysStr(screens), nil
		}
	}
}

// softDeleteCascade marks the collected flows and screens deleted in
// one transaction.
func (s *Store) softDeleteCascade(ctx context.Context, flowIDs, screenIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cascade delete: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if len(screenIDs) > 0 {
		args := append([]any{now}, toAny(screenIDs)...)
		if _, err := tx.ExecContext(ctx,
			`UPDATE screens SET deleted_at=? WHERE deleted_at IS NULL AND id IN `+placeholders(len(screenIDs)),
			args...); err != nil {
			return fmt.Errorf("deleting screens: %w", err)
		}
	}
	if len(flowIDs) > 0 {
		args := append([]any{now}, toAny(flowIDs)...)
		if _, err := tx.ExecContext(ctx,
			`UPDATE flows SET deleted_at=? WHERE deleted_at IS NULL AND id IN `+placeholders(len(flowIDs)),
			args...); err != nil {
			return fmt.Errorf("deleting flows: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

func keys(m map[string]bool) []any {
	out := make([]any, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func keysStr(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
