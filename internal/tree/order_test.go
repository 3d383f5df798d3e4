package tree

import (
	"testing"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

func siblingScreens(ids ...string) []model.Screen {
	out := make([]model.Screen, len(ids))
	for i, id := range ids {
		out[i] = model.Screen{ID: id, FlowID: "flow-1", Title: id, OrderIndex: i}
	}
	return out
}

func assertOrder(t *testing.T, got []model.Screen, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d siblings, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].ID != w {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, w)
		}
		if got[i].OrderIndex != i {
			t.Errorf("%s order_index = %d, want %d", got[i].ID, got[i].OrderIndex, i)
		}
	}
}

func TestReorderSiblingsDragToFront(t *testing.T) {
	group := siblingScreens("A", "B", "C")

	got, err := ReorderSiblings(group, "C", "A")
	if err != nil {
		t.Fatalf("ReorderSiblings: %v", err)
	}
	assertOrder(t, got, "C", "A", "B")
}

func TestReorderSiblingsDragToEnd(t *testing.T) {
	group := siblingScreens("A", "B", "C")

	got, err := ReorderSiblings(group, "A", "C")
	if err != nil {
		t.Fatalf("ReorderSiblings: %v", err)
	}
	assertOrder(t, got, "B", "C", "A")
}

func TestReorderSiblingsSelfTargetIsNoop(t *testing.T) {
	group := siblingScreens("A", "B", "C")

	got, err := ReorderSiblings(group, "B", "B")
	if err != nil {
		t.Fatalf("ReorderSiblings: %v", err)
	}
	assertOrder(t, got, "A", "B", "C")
}

func TestReorderSiblingsIsPermutation(t *testing.T) {
	ids := []string{"A", "B", "C", "D", "E"}
	for _, moved := range ids {
		for _, target := range ids {
			group := siblingScreens(ids...)
			got, err := ReorderSiblings(group, moved, target)
			if err != nil {
				t.Fatalf("ReorderSiblings(%s,%s): %v", moved, target, err)
			}
			if len(got) != len(ids) {
				t.Fatalf("ReorderSiblings(%s,%s): got %d elements, want %d", moved, target, len(got), len(ids))
			}
			seen := map[string]bool{}
			for i, s := range got {
				if s.OrderIndex != i {
					t.Errorf("ReorderSiblings(%s,%s): %s at position %d has order_index %d", moved, target, s.ID, i, s.OrderIndex)
				}
				if seen[s.ID] {
					t.Errorf("ReorderSiblings(%s,%s): %s appears twice", moved, target, s.ID)
				}
				seen[s.ID] = true
			}
		}
	}
}

func TestReorderSiblingsUnknownIDs(t *testing.T) {
	group := siblingScreens("A", "B")

	if _, err := ReorderSiblings(group, "nope", "A"); err == nil {
		t.Error("expected error for unknown moved id")
	}
	if _, err := ReorderSiblings(group, "A", "nope"); err == nil {
		t.Error("expected error for unknown target id")
	}
}

func TestReorderSiblingsDoesNotMutateInput(t *testing.T) {
	group := siblingScreens("A", "B", "C")

	if _, err := ReorderSiblings(group, "C", "A"); err != nil {
		t.Fatalf("ReorderSiblings: %v", err)
	}
	assertOrder(t, group, "A", "B", "C")
}

func TestMoveSiblingStep(t *testing.T) {
	group := siblingScreens("A", "B", "C")

	got, moved, err := MoveSiblingStep(group, "B", Up)
	if err != nil {
		t.Fatalf("MoveSiblingStep: %v", err)
	}
	if !moved {
		t.Fatal("expected move to happen")
	}
	assertOrder(t, got, "B", "A", "C")

	got, moved, err = MoveSiblingStep(group, "B", Down)
	if err != nil {
		t.Fatalf("MoveSiblingStep: %v", err)
	}
	if !moved {
		t.Fatal("expected move to happen")
	}
	assertOrder(t, got, "A", "C", "B")
}

func TestMoveSiblingStepBoundary(t *testing.T) {
	group := siblingScreens("A", "B")

	got, moved, err := MoveSiblingStep(group, "A", Up)
	if err != nil {
		t.Fatalf("MoveSiblingStep: %v", err)
	}
	if moved {
		t.Error("moving first element up should be a no-op")
	}
	assertOrder(t, got, "A", "B")

	got, moved, err = MoveSiblingStep(group, "B", Down)
	if err != nil {
		t.Fatalf("MoveSiblingStep: %v", err)
	}
	if moved {
		t.Error("moving last element down should be a no-op")
	}
	assertOrder(t, got, "A", "B")
}

func TestRenumberClosesGaps(t *testing.T) {
	group := []model.Screen{
		{ID: "A", OrderIndex: 3},
		{ID: "B", OrderIndex: 7},
		{ID: "C", OrderIndex: 7},
	}

	got, err := ReorderSiblings(group, "A", "A")
	if err != nil {
		t.Fatalf("ReorderSiblings: %v", err)
	}
	assertOrder(t, got, "A", "B", "C")
}
