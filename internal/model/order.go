package model

// SiblingID and WithOrderIndex let the ordering engine treat flows and
// screens uniformly. Both operate on values; callers get fresh copies.

func (f Flow) SiblingID() string { return f.ID }

func (f Flow) WithOrderIndex(i int) Flow {
	f.OrderIndex = i
	return f
}

func (s Screen) SiblingID() string { return s.ID }

func (s Screen) WithOrderIndex(i int) Screen {
	s.OrderIndex = i
	return s
}
