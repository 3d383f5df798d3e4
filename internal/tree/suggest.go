package tree

import (
	"fmt"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

// MoveSuggestion is one quick-action target for the move dialog:
// a label plus the parent reference applying it would set. Suggestions
// are derived views over the current parent chain; nothing here
// mutates or persists.
type MoveSuggestion struct {
	Label  string          `json:"label"`
	Target model.ParentRef `json:"target"`
}

// AvailableFlowTargets returns the flows a given flow may legally move
// under: everything except the flow itself and its descendants.
func AvailableFlowTargets(flow model.Flow, allFlows []model.Flow) []model.Flow {
	blocked := DescendantFlowIDs(flow.ID, allFlows)
	targets := make([]model.Flow, 0, len(allFlows))
	for _, f := range allFlows {
		if !blocked[f.ID] {
			targets = append(targets, f)
		}
	}
	return targets
}

// FlowMoveSuggestions computes the quick actions for moving a flow:
// promote to top level, hop up to the grandparent, or nest under a
// sibling at the current level.
func FlowMoveSuggestions(flow model.Flow, allFlows []model.Flow) []MoveSuggestion {
	byID := make(map[string]model.Flow, len(allFlows))
	for _, f := range allFlows {
		byID[f.ID] = f
	}

	var suggestions []MoveSuggestion

	if !flow.Parent.IsTopLevel() {
		suggestions = append(suggestions, MoveSuggestion{
			Label:  "Move to top level",
			Target: model.TopLevel(),
		})
	}

	if parentID, ok := flow.Parent.FlowID(); ok {
		if parent, ok := byID[parentID]; ok {
			if grandID, ok := parent.Parent.FlowID(); ok {
				if grand, ok := byID[grandID]; ok {
					suggestions = append(suggestions, MoveSuggestion{
						Label:  fmt.Sprintf("Move up under %q", grand.Name),
						Target: model.UnderFlow(grand.ID),
					})
				}
			}
		}
	}

	blocked := DescendantFlowIDs(flow.ID, allFlows)
	for _, f := range allFlows {
		if blocked[f.ID] {
			continue
		}
		if f.Parent == flow.Parent {
			suggestions = append(suggestions, MoveSuggestion{
				Label:  fmt.Sprintf("Nest under %q", f.Name),
				Target: model.UnderFlow(f.ID),
			})
		}
	}

	return suggestions
}

// ScreenMoveSuggestions computes the quick actions for moving a screen
// within its flow: up to the grandparent (or root) and under each
// sibling.
func ScreenMoveSuggestions(screen model.Screen, flowScreens []model.Screen) []MoveSuggestion {
	byID := make(map[string]model.Screen, len(flowScreens))
	for _, s := range flowScreens {
		byID[s.ID] = s
	}

	var suggestions []MoveSuggestion

	if screen.ParentID != "" {
		parent, ok := byID[screen.ParentID]
		if ok && parent.ParentID != "" {
			if grand, ok := byID[parent.ParentID]; ok {
				suggestions = append(suggestions, MoveSuggestion{
					Label:  fmt.Sprintf("Move up under %q", grand.Label()),
					Target: model.UnderScreen(grand.ID),
				})
			}
		} else {
			suggestions = append(suggestions, MoveSuggestion{
				Label:  "Move to flow root",
				Target: model.TopLevel(),
			})
		}
	}

	blocked := DescendantScreenIDs(screen.ID, flowScreens)
	for _, s := range flowScreens {
		if blocked[s.ID] || s.ParentID != screen.ParentID {
			continue
		}
		suggestions = append(suggestions, MoveSuggestion{
			Label:  fmt.Sprintf("Nest under %q", s.Label()),
			Target: model.UnderScreen(s.ID),
		})
	}

	return suggestions
}
