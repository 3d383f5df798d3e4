package tree

import "github.com/flowdeckhq/flowdeck/internal/model"

// Sibling is implemented by flow and screen values so both share one
// ordering engine. WithOrderIndex returns a copy; the engine never
// mutates its input.
type Sibling[T any] interface {
	SiblingID() string
	WithOrderIndex(int) T
}

// Direction of a single-step move.
type Direction int

const (
	Up Direction = iota
	Down
)

// ReorderSiblings moves the element movedID immediately to the position
// targetID occupied before the move (drag-and-drop semantics), then
// renumbers the whole group to a contiguous 0..n-1. The input must be a
// single sibling group; cross-group drags are reparenting, not
// reordering.
func ReorderSiblings[T Sibling[T]](siblings []T, movedID, targetID string) ([]T, error) {
	movedIdx, targetIdx := -1, -1
	for i, s := range siblings {
		id := s.SiblingID()
		if id == movedID {
			movedIdx = i
		}
		if id == targetID {
			targetIdx = i
		}
	}
	if movedIdx < 0 {
		return nil, model.Validationf("moved_id", "element %q is not in the sibling group", movedID)
	}
	if targetIdx < 0 {
		return nil, model.Validationf("target_id", "element %q is not in the sibling group", targetID)
	}

	reordered := make([]T, 0, len(siblings))
	reordered = append(reordered, siblings[:movedIdx]...)
	reordered = append(reordered, siblings[movedIdx+1:]...)

	moved := siblings[movedIdx]
	reordered = append(reordered, moved) // placeholder, shifted below
	copy(reordered[targetIdx+1:], reordered[targetIdx:])
	reordered[targetIdx] = moved

	return renumber(reordered), nil
}

// MoveSiblingStep swaps the element with its immediate neighbor in the
// given direction. At a boundary it returns the renumbered input and
// false.
func MoveSiblingStep[T Sibling[T]](siblings []T, id string, dir Direction) ([]T, bool, error) {
	idx := -1
	for i, s := range siblings {
		if s.SiblingID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false, model.Validationf("id", "element %q is not in the sibling group", id)
	}

	swapWith := idx - 1
	if dir == Down {
		swapWith = idx + 1
	}
	if swapWith < 0 || swapWith >= len(siblings) {
		return renumber(append([]T(nil), siblings...)), false, nil
	}

	out := append([]T(nil), siblings...)
	out[idx], out[swapWith] = out[swapWith], out[idx]
	return renumber(out), true, nil
}

// renumber assigns order_index = position, leaving gaps and duplicates
// behind.
func renumber[T Sibling[T]](siblings []T) []T {
	out := make([]T, len(siblings))
	for i, s := range siblings {
		out[i] = s.WithOrderIndex(i)
	}
	return out
}
