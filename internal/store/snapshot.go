package store

import (
	"context"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

// ProjectData is one project's full entity set as loaded in a single
// pass: the session layer swaps these in wholesale, both on initial
// load and when recovering from a failed write.
type ProjectData struct {
	Project model.Project
	Flows   []model.Flow
	Screens []model.Screen
}

// ScreensByFlow groups the screens by owning flow, preserving
// order_index order within each flow.
func (d *ProjectData) ScreensByFlow() map[string][]model.Screen {
	grouped := make(map[string][]model.Screen)
	for _, sc := range d.Screens {
		grouped[sc.FlowID] = append(grouped[sc.FlowID], sc)
	}
	return grouped
}

// LoadProject fetches a project with all of its flows and screens.
func (s *Store) LoadProject(ctx context.Context, actor model.Actor, projectID string) (*ProjectData, error) {
	p, err := s.GetProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	flows, err := s.ListFlowsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	screens, err := s.ListScreensByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectData{Project: *p, Flows: flows, Screens: screens}, nil
}
