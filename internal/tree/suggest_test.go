package tree

import (
	"testing"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

func TestAvailableFlowTargetsExcludesSubtree(t *testing.T) {
	flows := []model.Flow{
		flow("X", model.TopLevel(), 0),
		flow("Y", model.UnderFlow("X"), 0),
		flow("Z", model.UnderFlow("Y"), 0),
		flow("other", model.TopLevel(), 1),
	}

	targets := AvailableFlowTargets(flows[0], flows)

	if len(targets) != 1 || targets[0].ID != "other" {
		t.Errorf("targets = %v, want only [other]", targets)
	}
}

func TestFlowMoveSuggestions(t *testing.T) {
	flows := []model.Flow{
		flow("grand", model.TopLevel(), 0),
		flow("parent", model.UnderFlow("grand"), 0),
		flow("me", model.UnderFlow("parent"), 0),
		flow("sibling", model.UnderFlow("parent"), 1),
	}

	suggestions := FlowMoveSuggestions(flows[2], flows)

	var hasTopLevel, hasGrand, hasSibling bool
	for _, s := range suggestions {
		if s.Target.IsTopLevel() {
			hasTopLevel = true
		}
		if id, ok := s.Target.FlowID(); ok {
			if id == "grand" {
				hasGrand = true
			}
			if id == "sibling" {
				hasSibling = true
			}
		}
	}
	if !hasTopLevel {
		t.Error("missing top-level suggestion")
	}
	if !hasGrand {
		t.Error("missing grandparent suggestion")
	}
	if !hasSibling {
		t.Error("missing sibling suggestion")
	}
}

func TestFlowMoveSuggestionsTopLevelFlow(t *testing.T) {
	flows := []model.Flow{flow("solo", model.TopLevel(), 0)}

	if got := FlowMoveSuggestions(flows[0], flows); len(got) != 0 {
		t.Errorf("suggestions for a lone top-level flow = %v, want none", got)
	}
}

func TestScreenMoveSuggestions(t *testing.T) {
	screens := reparentFixture()

	// leaf is under mid which is under root: expect "move up under root"
	// and no sibling suggestions (leaf has none).
	suggestions := ScreenMoveSuggestions(screens[2], screens)

	var upTarget string
	for _, s := range suggestions {
		if id, ok := s.Target.ScreenID(); ok {
			upTarget = id
		}
	}
	if upTarget != "root" {
		t.Errorf("up suggestion target = %q, want root", upTarget)
	}
}

func TestScreenMoveSuggestionsChildOfRoot(t *testing.T) {
	screens := reparentFixture()

	// mid is a child of a root screen: moving "up" means flow root.
	suggestions := ScreenMoveSuggestions(screens[1], screens)

	var hasRoot bool
	for _, s := range suggestions {
		if s.Target.IsTopLevel() {
			hasRoot = true
		}
	}
	if !hasRoot {
		t.Error("expected a move-to-flow-root suggestion")
	}
}
