package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

// persistTimeout bounds how long a single write may hold up a mutation
// before it is treated as failed and the session reloads.
const persistTimeout = 30 * time.Second

// Persister is the slice of the store a session writes through. Reads
// go through LoadProject only; the session keeps everything else in
// memory.
type Persister interface {
	LoadProject(ctx context.Context, actor model.Actor, projectID string) (*store.ProjectData, error)
	ReorderFlows(ctx context.Context, flows []model.Flow) error
	SaveFlowParent(ctx context.Context, f *model.Flow) error
	SavePlacements(ctx context.Context, screens []model.Screen) error
}

// EventType names a mutation the session has committed or undone.
type EventType string

const (
	EventFlowsReordered   EventType = "flows.reordered"
	EventFlowMoved        EventType = "flow.moved"
	EventScreensReordered EventType = "screens.reordered"
	EventScreenReparented EventType = "screen.reparented"
	EventReloaded         EventType = "session.reloaded"
)

// Event is broadcast to project watchers after each committed mutation,
// and after a reload when a write failed and optimistic state was
// discarded.
type Event struct {
	Type      EventType `json:"type"`
	ProjectID string    `json:"project_id"`
	EntityID  string    `json:"entity_id,omitempty"`
}

// Session holds one project's flows and screens in memory and applies
// structural mutations optimistically: the in-memory state changes
// first, then the write goes to the store. A failed write discards the
// optimistic state by reloading the project wholesale, so memory never
// drifts from disk in the direction of unsaved changes.
type Session struct {
	actor     model.Actor
	projectID string
	persister Persister
	notify    func(Event)

	mu   sync.RWMutex
	data *store.ProjectData
}

// Open loads the project and returns a live session for it. notify may
// be nil.
func Open(ctx context.Context, p Persister, actor model.Actor, projectID string, notify func(Event)) (*Session, error) {
	data, err := p.LoadProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if notify == nil {
		notify = func(Event) {}
	}
	return &Session{
		actor:     actor,
		projectID: projectID,
		persister: p,
		notify:    notify,
		data:      data,
	}, nil
}

// ProjectID returns the project this session serves.
func (s *Session) ProjectID() string { return s.projectID }

// Snapshot returns a copy of the current in-memory state. Callers may
// hold it across mutations; it never changes under them.
func (s *Session) Snapshot() store.ProjectData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.ProjectData{
		Project: s.data.Project,
		Flows:   append([]model.Flow(nil), s.data.Flows...),
		Screens: append([]model.Screen(nil), s.data.Screens...),
	}
}

// Refresh replaces the in-memory state with what the store holds.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Session) reloadLocked(ctx context.Context) error {
	data, err := s.persister.LoadProject(ctx, s.actor, s.projectID)
	if err != nil {
		return fmt.Errorf("reloading project %s: %w", s.projectID, err)
	}
	s.data = data
	return nil
}

// ReorderFlows moves the flow movedID to targetID's position within its
// sibling group and returns the renumbered group.
func (s *Session) ReorderFlows(ctx context.Context, movedID, targetID string) ([]model.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.flowLocked(movedID)
	if moved == nil {
		return nil, fmt.Errorf("flow %q: %w", movedID, model.ErrNotFound)
	}
	group := s.siblingFlowsLocked(moved.Parent)

	reordered, err := tree.ReorderSiblings(group, movedID, targetID)
	if err != nil {
		return nil, err
	}

	s.applyFlowsLocked(reordered)
	if err := s.persist(ctx, "flow reorder", movedID, EventFlowsReordered, func(pctx context.Context) error {
		return s.persister.ReorderFlows(pctx, reordered)
	}); err != nil {
		return nil, err
	}
	return reordered, nil
}

// MoveFlowStep swaps a flow with its neighbor in the given direction.
// At a boundary the group is returned unchanged and nothing is written.
func (s *Session) MoveFlowStep(ctx context.Context, flowID string, dir tree.Direction) ([]model.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.flowLocked(flowID)
	if f == nil {
		return nil, fmt.Errorf("flow %q: %w", flowID, model.ErrNotFound)
	}
	group := s.siblingFlowsLocked(f.Parent)

	stepped, swapped, err := tree.MoveSiblingStep(group, flowID, dir)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return stepped, nil
	}

	s.applyFlowsLocked(stepped)
	if err := s.persist(ctx, "flow reorder", flowID, EventFlowsReordered, func(pctx context.Context) error {
		return s.persister.ReorderFlows(pctx, stepped)
	}); err != nil {
		return nil, err
	}
	return stepped, nil
}

// MoveFlow reparents a flow onto target, appending it to the end of the
// target sibling group and closing the gap in the group it left.
func (s *Session) MoveFlow(ctx context.Context, flowID string, target model.ParentRef) (*model.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.flowLocked(flowID)
	if f == nil {
		return nil, fmt.Errorf("flow %q: %w", flowID, model.ErrNotFound)
	}
	if id, ok := target.ScreenID(); ok && s.screenLocked(id) == nil {
		return nil, fmt.Errorf("target screen %q: %w", id, model.ErrNotFound)
	}
	oldParent := f.Parent

	moved, err := tree.MoveFlow(*f, target, s.data.Flows)
	if err != nil {
		return nil, err
	}
	moved.OrderIndex = len(s.siblingFlowsLocked(target))

	s.applyFlowsLocked([]model.Flow{moved})

	// The group the flow left keeps its relative order but is
	// renumbered to stay contiguous.
	remaining := s.siblingFlowsLocked(oldParent)
	for i := range remaining {
		remaining[i].OrderIndex = i
	}
	s.applyFlowsLocked(remaining)

	if err := s.persist(ctx, "flow move", flowID, EventFlowMoved, func(pctx context.Context) error {
		if err := s.persister.SaveFlowParent(pctx, &moved); err != nil {
			return err
		}
		return s.persister.ReorderFlows(pctx, remaining)
	}); err != nil {
		return nil, err
	}
	return &moved, nil
}

// ReorderScreens moves the screen movedID to targetID's position within
// its sibling group (same flow, same parent) and returns the renumbered
// group.
func (s *Session) ReorderScreens(ctx context.Context, movedID, targetID string) ([]model.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.screenLocked(movedID)
	if moved == nil {
		return nil, fmt.Errorf("screen %q: %w", movedID, model.ErrNotFound)
	}
	group := s.siblingScreensLocked(moved.FlowID, moved.ParentID)

	reordered, err := tree.ReorderSiblings(group, movedID, targetID)
	if err != nil {
		return nil, err
	}

	s.applyScreensLocked(reordered)
	if err := s.persist(ctx, "screen reorder", movedID, EventScreensReordered, func(pctx context.Context) error {
		return s.persister.SavePlacements(pctx, reordered)
	}); err != nil {
		return nil, err
	}
	return reordered, nil
}

// MoveScreenStep swaps a screen with its neighbor in the given
// direction. At a boundary the group is returned unchanged and nothing
// is written.
func (s *Session) MoveScreenStep(ctx context.Context, screenID string, dir tree.Direction) ([]model.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.screenLocked(screenID)
	if sc == nil {
		return nil, fmt.Errorf("screen %q: %w", screenID, model.ErrNotFound)
	}
	group := s.siblingScreensLocked(sc.FlowID, sc.ParentID)

	stepped, swapped, err := tree.MoveSiblingStep(group, screenID, dir)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return stepped, nil
	}

	s.applyScreensLocked(stepped)
	if err := s.persist(ctx, "screen reorder", screenID, EventScreensReordered, func(pctx context.Context) error {
		return s.persister.SavePlacements(pctx, stepped)
	}); err != nil {
		return nil, err
	}
	return stepped, nil
}

// ReparentScreen moves a screen (with its whole subtree) under
// newParentID within the same flow. An empty newParentID moves it to
// the flow root. The moved screen is appended to the end of its new
// sibling group.
func (s *Session) ReparentScreen(ctx context.Context, screenID, newParentID string) (*model.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.screenLocked(screenID)
	if sc == nil {
		return nil, fmt.Errorf("screen %q: %w", screenID, model.ErrNotFound)
	}
	flowScreens := s.flowScreensLocked(sc.FlowID)

	updated, err := tree.ReparentScreen(*sc, newParentID, flowScreens)
	if err != nil {
		return nil, err
	}
	// updated[0] is the moved screen itself; give it the last slot in
	// its new sibling group.
	siblings := s.siblingScreensLocked(sc.FlowID, newParentID)
	next := 0
	for _, sib := range siblings {
		if sib.ID == screenID {
			continue
		}
		next++
	}
	updated[0].OrderIndex = next

	s.applyScreensLocked(updated)
	if err := s.persist(ctx, "screen reparent", screenID, EventScreenReparented, func(pctx context.Context) error {
		return s.persister.SavePlacements(pctx, updated)
	}); err != nil {
		return nil, err
	}
	moved := updated[0]
	return &moved, nil
}

// persist runs a write with the session's timeout. On failure the
// optimistic in-memory state is discarded by reloading the project, and
// the error is wrapped so handlers can tell a lost write from a
// rejected one.
func (s *Session) persist(ctx context.Context, op, entityID string, evt EventType, write func(context.Context) error) error {
	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := write(pctx); err != nil {
		log.Printf("write failed during %s for %s, reloading project %s: %v", op, entityID, s.projectID, err)
		if rerr := s.reloadLocked(context.WithoutCancel(ctx)); rerr != nil {
			log.Printf("reload after failed %s also failed: %v", op, rerr)
		}
		s.notify(Event{Type: EventReloaded, ProjectID: s.projectID})
		return &model.PersistenceError{Op: op, Err: err}
	}
	s.notify(Event{Type: evt, ProjectID: s.projectID, EntityID: entityID})
	return nil
}

func (s *Session) flowLocked(id string) *model.Flow {
	for i := range s.data.Flows {
		if s.data.Flows[i].ID == id {
			f := s.data.Flows[i]
			return &f
		}
	}
	return nil
}

func (s *Session) screenLocked(id string) *model.Screen {
	for i := range s.data.Screens {
		if s.data.Screens[i].ID == id {
			sc := s.data.Screens[i]
			return &sc
		}
	}
	return nil
}

// siblingFlowsLocked returns the flows sharing parent, sorted by
// order index.
func (s *Session) siblingFlowsLocked(parent model.ParentRef) []model.Flow {
	var group []model.Flow
	for _, f := range s.data.Flows {
		if f.Parent == parent {
			group = append(group, f)
		}
	}
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].OrderIndex < group[j].OrderIndex
	})
	return group
}

// siblingScreensLocked returns the screens of one flow sharing a
// parent, sorted by order index.
func (s *Session) siblingScreensLocked(flowID, parentID string) []model.Screen {
	var group []model.Screen
	for _, sc := range s.data.Screens {
		if sc.FlowID == flowID && sc.ParentID == parentID {
			group = append(group, sc)
		}
	}
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].OrderIndex < group[j].OrderIndex
	})
	return group
}

func (s *Session) flowScreensLocked(flowID string) []model.Screen {
	var out []model.Screen
	for _, sc := range s.data.Screens {
		if sc.FlowID == flowID {
			out = append(out, sc)
		}
	}
	return out
}

func (s *Session) applyFlowsLocked(changed []model.Flow) {
	for _, c := range changed {
		for i := range s.data.Flows {
			if s.data.Flows[i].ID == c.ID {
				s.data.Flows[i] = c
				break
			}
		}
	}
}

func (s *Session) applyScreensLocked(changed []model.Screen) {
	for _, c := range changed {
		for i := range s.data.Screens {
			if s.data.Screens[i].ID == c.ID {
				s.data.Screens[i] = c
				break
			}
		}
	}
}
