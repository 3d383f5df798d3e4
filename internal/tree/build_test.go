package tree

import (
	"fmt"
	"testing"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

func screen(id, parentID string, order int) model.Screen {
	return model.Screen{ID: id, FlowID: "flow-1", ParentID: parentID, Title: id, OrderIndex: order}
}

func TestBuildScreenTree(t *testing.T) {
	screens := []model.Screen{
		screen("1", "", 0),
		screen("2", "1", 0),
		screen("3", "", 1),
	}

	roots := BuildScreenTree(screens)

	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	if roots[0].ID != "1" || roots[1].ID != "3" {
		t.Errorf("roots = [%s %s], want [1 3]", roots[0].ID, roots[1].ID)
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].ID != "2" {
		t.Errorf("expected screen 2 as only child of screen 1")
	}
	if len(roots[1].Children) != 0 {
		t.Errorf("screen 3 should have no children")
	}
}

func TestBuildScreenTreeDanglingParent(t *testing.T) {
	screens := []model.Screen{
		screen("a", "", 0),
		screen("b", "missing", 1),
	}

	roots := BuildScreenTree(screens)

	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2 (dangling parent demotes to root)", len(roots))
	}
	ids := map[string]bool{}
	for _, r := range roots {
		ids[r.ID] = true
	}
	if !ids["a"] || !ids["b"] {
		t.Errorf("roots = %v, want both a and b present", ids)
	}
}

func TestBuildScreenTreeRoundTrip(t *testing.T) {
	screens := []model.Screen{
		screen("r1", "", 0),
		screen("c1", "r1", 0),
		screen("c2", "r1", 1),
		screen("g1", "c2", 0),
		screen("r2", "", 1),
	}

	flat := Flatten(BuildScreenTree(screens))

	if len(flat) != len(screens) {
		t.Fatalf("flatten returned %d screens, want %d", len(flat), len(screens))
	}
	wantParent := map[string]string{"r1": "", "c1": "r1", "c2": "r1", "g1": "c2", "r2": ""}
	for _, s := range flat {
		if s.ParentID != wantParent[s.ID] {
			t.Errorf("screen %s parent = %q, want %q", s.ID, s.ParentID, wantParent[s.ID])
		}
	}
}

func TestSortTree(t *testing.T) {
	screens := []model.Screen{
		screen("root", "", 0),
		screen("late", "root", 2),
		screen("early", "root", 0),
		screen("mid", "root", 1),
	}

	roots := BuildScreenTree(screens)
	SortTree(roots)

	got := roots[0].Children
	want := []string{"early", "mid", "late"}
	for i, w := range want {
		if got[i].ID != w {
			t.Errorf("child[%d] = %s, want %s", i, got[i].ID, w)
		}
	}
}

func TestCountDescendants(t *testing.T) {
	screens := []model.Screen{
		screen("root", "", 0),
		screen("a", "root", 0),
		screen("b", "a", 0),
		screen("c", "a", 1),
		screen("other", "", 1),
	}

	roots := BuildScreenTree(screens)
	SortTree(roots)

	if got := CountDescendants(roots[0]); got != 3 {
		t.Errorf("descendants of root = %d, want 3", got)
	}
	if got := CountDescendants(roots[1]); got != 0 {
		t.Errorf("descendants of leaf = %d, want 0", got)
	}
	if got := CountDescendants(nil); got != 0 {
		t.Errorf("descendants of nil = %d, want 0", got)
	}
}

func TestCountDescendantsDeepTree(t *testing.T) {
	const depth = 20000
	screens := make([]model.Screen, 0, depth)
	screens = append(screens, screen("s0", "", 0))
	for i := 1; i < depth; i++ {
		screens = append(screens, screen(sid(i), sid(i-1), 0))
	}

	roots := BuildScreenTree(screens)
	if got := CountDescendants(roots[0]); got != depth-1 {
		t.Errorf("descendants = %d, want %d", got, depth-1)
	}
}

func sid(i int) string {
	return fmt.Sprintf("s%d", i)
}

func flow(id string, parent model.ParentRef, order int) model.Flow {
	return model.Flow{ID: id, ProjectID: "proj-1", Name: id, OrderIndex: order, Parent: parent}
}

func TestPartitionFlows(t *testing.T) {
	flows := []model.Flow{
		flow("top-b", model.TopLevel(), 1),
		flow("top-a", model.TopLevel(), 0),
		flow("nested", model.UnderFlow("top-a"), 0),
		flow("branch", model.UnderScreen("screen-9"), 0),
	}

	p := PartitionFlows(flows)

	if len(p.TopLevel) != 2 {
		t.Fatalf("top-level count = %d, want 2", len(p.TopLevel))
	}
	if p.TopLevel[0].ID != "top-a" || p.TopLevel[1].ID != "top-b" {
		t.Errorf("top-level order = [%s %s], want [top-a top-b]", p.TopLevel[0].ID, p.TopLevel[1].ID)
	}
	if got := p.ByParentFlow["top-a"]; len(got) != 1 || got[0].ID != "nested" {
		t.Errorf("expected nested under top-a, got %v", got)
	}
	if got := p.ByParentScreen["screen-9"]; len(got) != 1 || got[0].ID != "branch" {
		t.Errorf("expected branch under screen-9, got %v", got)
	}
}

func TestSortFlowsHierarchically(t *testing.T) {
	flows := []model.Flow{
		flow("x", model.TopLevel(), 0),
		flow("y", model.TopLevel(), 1),
		flow("x-1", model.UnderFlow("x"), 0),
		flow("x-2", model.UnderFlow("x"), 1),
		flow("x-1-a", model.UnderFlow("x-1"), 0),
		flow("branch", model.UnderScreen("s1"), 0),
	}

	sorted := SortFlowsHierarchically(flows)

	want := []string{"x", "x-1", "x-1-a", "x-2", "y", "branch"}
	if len(sorted) != len(want) {
		t.Fatalf("got %d flows, want %d", len(sorted), len(want))
	}
	for i, w := range want {
		if sorted[i].ID != w {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i].ID, w)
		}
	}
}

func TestFlowBothParentsRejectedAtDecode(t *testing.T) {
	_, err := model.ParentRefFromColumns("f1", "s1")
	if err == nil {
		t.Fatal("expected error for a flow with both parent columns set")
	}
}
