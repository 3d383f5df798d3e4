package model

import "strings"

// Patches are explicit partial updates. Each field is a pointer so
// "absent" and "set to zero" stay distinguishable, and every patch is
// validated before it is merged into an entity.

// ProjectPatch updates mutable project fields.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func (p *ProjectPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Validationf("name", "name cannot be empty")
	}
	if p.Color != nil && *p.Color != "" && !strings.HasPrefix(*p.Color, "#") {
		return Validationf("color", "color must be a hex value like #3b82f6")
	}
	return nil
}

// Apply merges the patch into a copy of the project.
func (p *ProjectPatch) Apply(proj Project) Project {
	if p.Name != nil {
		proj.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		proj.Description = *p.Description
	}
	if p.Color != nil {
		proj.Color = *p.Color
	}
	return proj
}

// FlowPatch updates mutable flow fields. Parent changes go through the
// move operation, never through a patch.
type FlowPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p *FlowPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Validationf("name", "name cannot be empty")
	}
	return nil
}

func (p *FlowPatch) Apply(f Flow) Flow {
	if p.Name != nil {
		f.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	return f
}

// ScreenPatch updates mutable screen fields. Structural fields
// (parent_id, order_index, level, path) go through reorder/move
// operations.
type ScreenPatch struct {
	Title         *string `json:"title,omitempty"`
	DisplayName   *string `json:"display_name,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	ScreenshotURL *string `json:"screenshot_url,omitempty"`
}

func (p *ScreenPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Validationf("title", "title cannot be empty")
	}
	return nil
}

func (p *ScreenPatch) Apply(s Screen) Screen {
	if p.Title != nil {
		s.Title = strings.TrimSpace(*p.Title)
	}
	if p.DisplayName != nil {
		s.DisplayName = *p.DisplayName
	}
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.ScreenshotURL != nil {
		s.ScreenshotURL = *p.ScreenshotURL
	}
	return s
}
