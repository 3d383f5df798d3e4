// Package tree holds the pure algorithms behind the flow/screen
// hierarchy: building nested trees from flat parent-pointer rows,
// sibling ordering, and cycle-safe reparenting. Nothing in this package
// touches storage; callers persist the results.
package tree

import (
	"sort"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

// ScreenNode is a screen with its resolved children.
type ScreenNode struct {
	model.Screen
	Children []*ScreenNode `json:"children"`
}

// BuildScreenTree converts a flat screen list into a forest. A screen
// whose parent_id does not resolve to a screen in the input is demoted
// to a root rather than dropped, so dangling references never lose
// data. Child ordering follows input order; use SortTree for
// order_index ordering.
func BuildScreenTree(screens []model.Screen) []*ScreenNode {
	byID := make(map[string]*ScreenNode, len(screens))
	for _, s := range screens {
		byID[s.ID] = &ScreenNode{Screen: s, Children: []*ScreenNode{}}
	}

	var roots []*ScreenNode
	for _, s := range screens {
		node := byID[s.ID]
		if s.ParentID != "" {
			if parent, ok := byID[s.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// SortTree orders every sibling group in the forest by order_index
// ascending, ties broken by insertion order. Iterative so arbitrarily
// deep trees cannot overflow the stack.
func SortTree(roots []*ScreenNode) {
	sortNodes(roots)
	stack := append([]*ScreenNode(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sortNodes(n.Children)
		stack = append(stack, n.Children...)
	}
}

func sortNodes(nodes []*ScreenNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].OrderIndex < nodes[j].OrderIndex
	})
}

// Flatten walks the forest depth-first and returns the screens in
// visit order, parent links intact.
func Flatten(roots []*ScreenNode) []model.Screen {
	var out []model.Screen
	stack := make([]*ScreenNode, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n.Screen)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// CountDescendants returns the number of screens below the given node.
// Iterative; the UI shows this as a badge on collapsed branches.
func CountDescendants(node *ScreenNode) int {
	if node == nil {
		return 0
	}
	count := 0
	stack := append([]*ScreenNode(nil), node.Children...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, n.Children...)
	}
	return count
}

// FlowPartition groups a project's flows by where they hang: top-level
// journeys, flows nested under another flow, and branches starting from
// a screen. Every bucket is sorted by order_index ascending.
type FlowPartition struct {
	TopLevel       []model.Flow
	ByParentFlow   map[string][]model.Flow
	ByParentScreen map[string][]model.Flow
}

// PartitionFlows classifies flows by their parent reference. The
// ParentRef type makes a both-parents-set row unrepresentable here;
// stores reject such rows at scan time, so by the time flows reach this
// function the invariant already holds.
func PartitionFlows(flows []model.Flow) *FlowPartition {
	p := &FlowPartition{
		ByParentFlow:   make(map[string][]model.Flow),
		ByParentScreen: make(map[string][]model.Flow),
	}
	for _, f := range flows {
		switch {
		case f.Parent.IsTopLevel():
			p.TopLevel = append(p.TopLevel, f)
		default:
			if id, ok := f.Parent.FlowID(); ok {
				p.ByParentFlow[id] = append(p.ByParentFlow[id], f)
			} else if id, ok := f.Parent.ScreenID(); ok {
				p.ByParentScreen[id] = append(p.ByParentScreen[id], f)
			}
		}
	}
	sortFlows(p.TopLevel)
	for _, group := range p.ByParentFlow {
		sortFlows(group)
	}
	for _, group := range p.ByParentScreen {
		sortFlows(group)
	}
	return p
}

func sortFlows(flows []model.Flow) {
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].OrderIndex < flows[j].OrderIndex
	})
}

// SortFlowsHierarchically returns flows in export order: top-level
// flows by order_index, each followed immediately by its descendant
// flows depth-first, every level sorted by order_index. Branched flows
// (parent_screen_id) sort with their owning flow's subtree, after the
// nested flows.
func SortFlowsHierarchically(flows []model.Flow) []model.Flow {
	p := PartitionFlows(flows)

	sorted := make([]model.Flow, 0, len(flows))
	seen := make(map[string]bool, len(flows))

	var visit func(f model.Flow)
	visit = func(f model.Flow) {
		if seen[f.ID] {
			return
		}
		seen[f.ID] = true
		sorted = append(sorted, f)
		for _, child := range p.ByParentFlow[f.ID] {
			visit(child)
		}
	}
	for _, f := range p.TopLevel {
		visit(f)
	}

	// Branched flows and orphans (parent not in the input) keep their
	// relative order at the end.
	for _, f := range flows {
		if !seen[f.ID] {
			seen[f.ID] = true
			sorted = append(sorted, f)
		}
	}
	return sorted
}
