package model

import "log"

// BoundingBox is a rectangle in percentage coordinates (0..100 on both
// axes), as produced by element detection and hotspot editing.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// minBoxDimension is the smallest usable width/height in percent.
// Anything smaller is an invisible hotspot.
const minBoxDimension = 0.1

// Validate checks that the box lies fully inside the 0..100 unit image.
func (b BoundingBox) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"x", b.X}, {"y", b.Y}, {"width", b.Width}, {"height", b.Height},
	} {
		if f.value < 0 || f.value > 100 {
			return Validationf(f.name, "%s must be between 0 and 100 (got %g)", f.name, f.value)
		}
	}
	if b.Width < minBoxDimension {
		return Validationf("width", "width must be at least %g%%", minBoxDimension)
	}
	if b.Height < minBoxDimension {
		return Validationf("height", "height must be at least %g%%", minBoxDimension)
	}
	if b.X+b.Width > 100 {
		return Validationf("bounding_box", "box exceeds right boundary (x=%g width=%g)", b.X, b.Width)
	}
	if b.Y+b.Height > 100 {
		return Validationf("bounding_box", "box exceeds bottom boundary (y=%g height=%g)", b.Y, b.Height)
	}
	return nil
}

// DetectedElement is one UI element reported by the analysis service.
type DetectedElement struct {
	Type        string      `json:"type"`
	Label       string      `json:"label"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
}

// FilterValidElements drops detected elements whose bounding boxes are
// malformed. Detection output is untrusted; validation happens here at
// the boundary, not inside the provider.
func FilterValidElements(elements []DetectedElement) []DetectedElement {
	valid := elements[:0:0]
	for _, el := range elements {
		if err := el.BoundingBox.Validate(); err != nil {
			log.Printf("vision: dropping element %q: %v", el.Label, err)
			continue
		}
		valid = append(valid, el)
	}
	return valid
}
