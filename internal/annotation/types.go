package annotation

import (
	"time"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

// Comment is feedback pinned to a screen, optionally anchored to a
// point on the screenshot (percent coordinates) and optionally a reply
// to another comment.
type Comment struct {
	ID              string     `json:"id"`
	ScreenID        string     `json:"screen_id"`
	ParentCommentID string     `json:"parent_comment_id,omitempty"`
	AuthorID        string     `json:"author_id"`
	Body            string     `json:"body"`
	X               *float64   `json:"x,omitempty"`
	Y               *float64   `json:"y,omitempty"`
	Resolved        bool       `json:"resolved"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Validate checks the comment body and anchor. An anchor needs both
// coordinates inside the image.
func (c *Comment) Validate() error {
	if c.Body == "" {
		return model.Validationf("body", "body is required")
	}
	if (c.X == nil) != (c.Y == nil) {
		return model.Validationf("position", "x and y must be set together")
	}
	if c.X != nil {
		for _, p := range []struct {
			name  string
			value float64
		}{{"x", *c.X}, {"y", *c.Y}} {
			if p.value < 0 || p.value > 100 {
				return model.Validationf(p.name, "%s must be between 0 and 100", p.name)
			}
		}
	}
	return nil
}

// Hotspot is a clickable region on a screen that links to another
// screen, used by the prototype player.
type Hotspot struct {
	ID             string            `json:"id"`
	ScreenID       string            `json:"screen_id"`
	TargetScreenID string            `json:"target_screen_id,omitempty"`
	Label          string            `json:"label"`
	Box            model.BoundingBox `json:"bounding_box"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DeletedAt      *time.Time        `json:"deleted_at,omitempty"`
}

func (h *Hotspot) Validate() error {
	return h.Box.Validate()
}
