package tree

import (
	"fmt"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

// DescendantFlowIDs returns the ids of every flow reachable from rootID
// over parent_flow_id edges, including rootID itself. BFS over the flat
// list, so a corrupt cycle in the input cannot loop forever.
func DescendantFlowIDs(rootID string, flows []model.Flow) map[string]bool {
	children := make(map[string][]string, len(flows))
	for _, f := range flows {
		if pid, ok := f.Parent.FlowID(); ok {
			children[pid] = append(children[pid], f.ID)
		}
	}

	descendants := map[string]bool{rootID: true}
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if !descendants[child] {
				descendants[child] = true
				queue = append(queue, child)
			}
		}
	}
	return descendants
}

// MoveFlow returns a copy of flow reparented onto target. A flow target
// that is the flow itself or any of its descendants is rejected, so the
// parent_flow_id graph stays acyclic. The caller persists the result
// and fixes sibling ordering; nothing is mutated here.
func MoveFlow(flow model.Flow, target model.ParentRef, allFlows []model.Flow) (model.Flow, error) {
	if id, ok := target.FlowID(); ok {
		if id == flow.ID {
			return model.Flow{}, fmt.Errorf("flow %q: %w", flow.ID, model.ErrSelfParent)
		}
		found := false
		for _, f := range allFlows {
			if f.ID == id {
				found = true
				break
			}
		}
		if !found {
			return model.Flow{}, fmt.Errorf("target flow %q: %w", id, model.ErrNotFound)
		}
		if DescendantFlowIDs(flow.ID, allFlows)[id] {
			return model.Flow{}, fmt.Errorf("flow %q under %q: %w", flow.ID, id, model.ErrWouldCycle)
		}
	}

	moved := flow
	moved.Parent = target
	return moved, nil
}

// DescendantScreenIDs returns the ids of every screen reachable from
// rootID over parent_id edges within one flow's screen set, including
// rootID itself.
func DescendantScreenIDs(rootID string, screens []model.Screen) map[string]bool {
	children := make(map[string][]string, len(screens))
	for _, s := range screens {
		if s.ParentID != "" {
			children[s.ParentID] = append(children[s.ParentID], s.ID)
		}
	}

	descendants := map[string]bool{rootID: true}
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if !descendants[child] {
				descendants[child] = true
				queue = append(queue, child)
			}
		}
	}
	return descendants
}

// ReparentScreen moves screen under newParentID (empty string means the
// flow root) and returns fresh copies of every screen whose position
// metadata changed: the moved screen plus its whole subtree, with level
// and path recomputed. flowScreens must be the complete screen set of
// the screen's own flow; a parent from another flow is rejected rather
// than silently rewriting flow_id.
func ReparentScreen(screen model.Screen, newParentID string, flowScreens []model.Screen) ([]model.Screen, error) {
	byID := make(map[string]model.Screen, len(flowScreens))
	for _, s := range flowScreens {
		byID[s.ID] = s
	}
	if _, ok := byID[screen.ID]; !ok {
		return nil, fmt.Errorf("screen %q: %w", screen.ID, model.ErrNotFound)
	}

	var parentLevel int
	var parentPath string
	if newParentID != "" {
		if newParentID == screen.ID {
			return nil, fmt.Errorf("screen %q: %w", screen.ID, model.ErrSelfParent)
		}
		parent, ok := byID[newParentID]
		if !ok {
			return nil, fmt.Errorf("parent screen %q: %w", newParentID, model.ErrNotFound)
		}
		if parent.FlowID != screen.FlowID {
			return nil, fmt.Errorf("screen %q into flow %q: %w", screen.ID, parent.FlowID, model.ErrCrossFlowMove)
		}
		if DescendantScreenIDs(screen.ID, flowScreens)[newParentID] {
			return nil, fmt.Errorf("screen %q under %q: %w", screen.ID, newParentID, model.ErrWouldCycle)
		}
		parentLevel = parent.Level
		parentPath = childPath(parent)
	}

	moved := screen
	moved.ParentID = newParentID
	if newParentID == "" {
		moved.Level = 0
		moved.Path = ""
	} else {
		moved.Level = parentLevel + 1
		moved.Path = parentPath
	}

	// Renumber the whole subtree below the moved screen; depth changed
	// for every descendant.
	updated := []model.Screen{moved}
	byID[moved.ID] = moved

	children := make(map[string][]string, len(flowScreens))
	for _, s := range flowScreens {
		if s.ParentID != "" {
			children[s.ParentID] = append(children[s.ParentID], s.ID)
		}
	}

	queue := append([]string(nil), children[moved.ID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		child := byID[id]
		parent := byID[child.ParentID]
		child.Level = parent.Level + 1
		child.Path = childPath(parent)
		byID[id] = child
		updated = append(updated, child)
		queue = append(queue, children[id]...)
	}

	return updated, nil
}

// childPath is the denormalized ancestor chain a child of parent gets:
// parent.path + "/" + parent.id.
func childPath(parent model.Screen) string {
	return parent.Path + "/" + parent.ID
}
