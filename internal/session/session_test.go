package session

import (
	"context"
	"errors"
	"testing"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

// fakePersister is an in-memory authoritative store. With failWrites
// set it rejects every write without applying it, which is exactly the
// situation the session's reload path exists for.
type fakePersister struct {
	data       store.ProjectData
	failWrites bool
	writes     int
	loads      int
}

var errInjected = errors.New("injected write failure")

func (p *fakePersister) LoadProject(_ context.Context, _ model.Actor, _ string) (*store.ProjectData, error) {
	p.loads++
	return &store.ProjectData{
		Project: p.data.Project,
		Flows:   append([]model.Flow(nil), p.data.Flows...),
		Screens: append([]model.Screen(nil), p.data.Screens...),
	}, nil
}

func (p *fakePersister) ReorderFlows(_ context.Context, flows []model.Flow) error {
	if p.failWrites {
		return errInjected
	}
	p.writes++
	for _, f := range flows {
		p.applyFlow(f)
	}
	return nil
}

func (p *fakePersister) SaveFlowParent(_ context.Context, f *model.Flow) error {
	if p.failWrites {
		return errInjected
	}
	p.writes++
	p.applyFlow(*f)
	return nil
}

func (p *fakePersister) SavePlacements(_ context.Context, screens []model.Screen) error {
	if p.failWrites {
		return errInjected
	}
	p.writes++
	for _, sc := range screens {
		for i := range p.data.Screens {
			if p.data.Screens[i].ID == sc.ID {
				p.data.Screens[i] = sc
			}
		}
	}
	return nil
}

func (p *fakePersister) applyFlow(f model.Flow) {
	for i := range p.data.Flows {
		if p.data.Flows[i].ID == f.ID {
			p.data.Flows[i] = f
			return
		}
	}
}

func flowFixture(id, name string, order int, parent model.ParentRef) model.Flow {
	return model.Flow{ID: id, ProjectID: "p1", Name: name, OrderIndex: order, Parent: parent}
}

func screenFixture(id, flowID, parentID string, order, level int, path string) model.Screen {
	return model.Screen{ID: id, FlowID: flowID, ParentID: parentID, OrderIndex: order, Level: level, Path: path}
}

func newFixture() *fakePersister {
	return &fakePersister{data: store.ProjectData{
		Project: model.Project{ID: "p1", Name: "P"},
		Flows: []model.Flow{
			flowFixture("fa", "A", 0, model.TopLevel()),
			flowFixture("fb", "B", 1, model.TopLevel()),
			flowFixture("fc", "C", 2, model.TopLevel()),
			flowFixture("fa1", "A.1", 0, model.UnderFlow("fa")),
		},
		Screens: []model.Screen{
			screenFixture("s1", "fa", "", 0, 0, ""),
			screenFixture("s2", "fa", "", 1, 0, ""),
			screenFixture("s3", "fa", "s1", 0, 1, "/s1"),
		},
	}}
}

func openFixture(t *testing.T, p *fakePersister) (*Session, *[]Event) {
	t.Helper()
	var events []Event
	s, err := Open(context.Background(), p, model.Actor{UserID: "u1"}, "p1", func(e Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, &events
}

func flowOrder(flows []model.Flow, parent model.ParentRef) []string {
	byIdx := map[int]string{}
	n := 0
	for _, f := range flows {
		if f.Parent == parent {
			byIdx[f.OrderIndex] = f.ID
			n++
		}
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, byIdx[i])
	}
	return out
}

func TestReorderFlowsCommits(t *testing.T) {
	p := newFixture()
	s, events := openFixture(t, p)

	got, err := s.ReorderFlows(context.Background(), "fc", "fa")
	if err != nil {
		t.Fatalf("ReorderFlows: %v", err)
	}
	wantIDs := []string{"fc", "fa", "fb"}
	for i, f := range got {
		if f.ID != wantIDs[i] || f.OrderIndex != i {
			t.Errorf("got[%d] = {%s %d}, want {%s %d}", i, f.ID, f.OrderIndex, wantIDs[i], i)
		}
	}

	// Both the session and the backing store see the new order.
	snap := s.Snapshot()
	for _, flows := range [][]model.Flow{snap.Flows, p.data.Flows} {
		order := flowOrder(flows, model.TopLevel())
		for i, id := range wantIDs {
			if order[i] != id {
				t.Errorf("order = %v, want %v", order, wantIDs)
				break
			}
		}
	}

	if len(*events) != 1 || (*events)[0].Type != EventFlowsReordered {
		t.Errorf("events = %+v, want one flows.reordered", *events)
	}
}

func TestFailedWriteRollsBackToStoredState(t *testing.T) {
	p := newFixture()
	s, events := openFixture(t, p)
	p.failWrites = true

	_, err := s.ReorderFlows(context.Background(), "fc", "fa")
	var pe *model.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if !errors.Is(err, errInjected) {
		t.Errorf("expected wrapped cause, got %v", err)
	}

	// Optimistic state is gone; the session shows the stored order.
	order := flowOrder(s.Snapshot().Flows, model.TopLevel())
	want := []string{"fa", "fb", "fc"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order after rollback = %v, want %v", order, want)
		}
	}

	if len(*events) != 1 || (*events)[0].Type != EventReloaded {
		t.Errorf("events = %+v, want one session.reloaded", *events)
	}
	if p.loads != 2 {
		t.Errorf("loads = %d, want 2 (open + reload)", p.loads)
	}
}

func TestMoveFlowAppendsAndClosesGap(t *testing.T) {
	p := newFixture()
	s, _ := openFixture(t, p)

	moved, err := s.MoveFlow(context.Background(), "fb", model.UnderFlow("fa"))
	if err != nil {
		t.Fatalf("MoveFlow: %v", err)
	}
	if id, ok := moved.Parent.FlowID(); !ok || id != "fa" {
		t.Errorf("parent = %v, want flow fa", moved.Parent)
	}
	// fa already has one child, so fb lands at index 1.
	if moved.OrderIndex != 1 {
		t.Errorf("order_index = %d, want 1", moved.OrderIndex)
	}

	// The top-level group it left renumbers to 0..1.
	order := flowOrder(s.Snapshot().Flows, model.TopLevel())
	want := []string{"fa", "fc"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("top-level order = %v, want %v", order, want)
		}
	}
}

func TestMoveFlowCycleLeavesStateUntouched(t *testing.T) {
	p := newFixture()
	s, events := openFixture(t, p)

	_, err := s.MoveFlow(context.Background(), "fa", model.UnderFlow("fa1"))
	if !errors.Is(err, model.ErrWouldCycle) {
		t.Fatalf("err = %v, want ErrWouldCycle", err)
	}
	if p.writes != 0 {
		t.Errorf("writes = %d, want 0", p.writes)
	}
	if len(*events) != 0 {
		t.Errorf("events = %+v, want none", *events)
	}
	if f := s.flowLocked("fa"); !f.Parent.IsTopLevel() {
		t.Error("rejected move changed in-memory state")
	}
}

func TestMoveFlowStepBoundaryWritesNothing(t *testing.T) {
	p := newFixture()
	s, _ := openFixture(t, p)

	group, err := s.MoveFlowStep(context.Background(), "fa", tree.Up)
	if err != nil {
		t.Fatalf("MoveFlowStep: %v", err)
	}
	if group[0].ID != "fa" {
		t.Errorf("group[0] = %s, want fa", group[0].ID)
	}
	if p.writes != 0 {
		t.Errorf("writes = %d, want 0", p.writes)
	}
}

func TestReparentScreenMovesSubtree(t *testing.T) {
	p := newFixture()
	s, _ := openFixture(t, p)

	moved, err := s.ReparentScreen(context.Background(), "s1", "s2")
	if err != nil {
		t.Fatalf("ReparentScreen: %v", err)
	}
	if moved.ParentID != "s2" || moved.Level != 1 || moved.Path != "/s2" {
		t.Errorf("moved = {parent:%s level:%d path:%s}", moved.ParentID, moved.Level, moved.Path)
	}

	// s3 was under s1 and must follow it down one level.
	var s3 model.Screen
	for _, sc := range s.Snapshot().Screens {
		if sc.ID == "s3" {
			s3 = sc
		}
	}
	if s3.Level != 2 || s3.Path != "/s2/s1" {
		t.Errorf("s3 = {level:%d path:%s}, want {2 /s2/s1}", s3.Level, s3.Path)
	}
}

func TestReparentScreenSelfRejected(t *testing.T) {
	p := newFixture()
	s, _ := openFixture(t, p)

	if _, err := s.ReparentScreen(context.Background(), "s2", "s2"); !errors.Is(err, model.ErrSelfParent) {
		t.Errorf("err = %v, want ErrSelfParent", err)
	}
}

func TestManagerReusesSessions(t *testing.T) {
	p := newFixture()
	m := NewManager(p, nil)
	actor := model.Actor{UserID: "u1"}

	a, err := m.Get(context.Background(), actor, "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := m.Get(context.Background(), actor, "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a != b {
		t.Error("expected the same session for repeated Get")
	}

	m.Drop("p1")
	c, err := m.Get(context.Background(), actor, "p1")
	if err != nil {
		t.Fatalf("Get after Drop: %v", err)
	}
	if c == a {
		t.Error("expected a fresh session after Drop")
	}
}
