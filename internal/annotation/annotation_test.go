package annotation

import (
	"context"
	"errors"
	"testing"

	"github.com/flowdeckhq/flowdeck/internal/db"
	"github.com/flowdeckhq/flowdeck/internal/model"
)

func setupAnnotations(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func floatPtr(f float64) *float64 { return &f }

func TestCommentThread(t *testing.T) {
	s := setupAnnotations(t)
	ctx := context.Background()

	root := &Comment{ScreenID: "sc1", AuthorID: "u1", Body: "Is this button final?", X: floatPtr(42), Y: floatPtr(61.5)}
	if err := s.CreateComment(ctx, root); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	reply := &Comment{ScreenID: "sc1", AuthorID: "u2", Body: "Yes, shipped last sprint.", ParentCommentID: root.ID}
	if err := s.CreateComment(ctx, reply); err != nil {
		t.Fatalf("CreateComment reply: %v", err)
	}

	comments, err := s.ListComments(ctx, "sc1")
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	if comments[0].ID != root.ID {
		t.Error("expected oldest comment first")
	}
	if comments[0].X == nil || *comments[0].X != 42 {
		t.Errorf("anchor lost on round trip: %+v", comments[0])
	}
	if comments[1].ParentCommentID != root.ID {
		t.Error("reply lost its parent")
	}

	// Deleting the root takes the reply with it.
	if err := s.DeleteComment(ctx, root.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	comments, _ = s.ListComments(ctx, "sc1")
	if len(comments) != 0 {
		t.Errorf("got %d comments after delete, want 0", len(comments))
	}
}

func TestCommentValidation(t *testing.T) {
	s := setupAnnotations(t)
	ctx := context.Background()

	cases := []*Comment{
		{ScreenID: "sc1", AuthorID: "u1"},                                            // empty body
		{ScreenID: "sc1", AuthorID: "u1", Body: "x", X: floatPtr(10)},                // x without y
		{ScreenID: "sc1", AuthorID: "u1", Body: "x", X: floatPtr(120), Y: floatPtr(5)}, // out of range
	}
	for i, c := range cases {
		if err := s.CreateComment(ctx, c); !model.IsValidation(err) {
			t.Errorf("case %d: err = %v, want validation error", i, err)
		}
	}

	// Replies cannot hop screens.
	root := &Comment{ScreenID: "sc1", AuthorID: "u1", Body: "root"}
	s.CreateComment(ctx, root)
	cross := &Comment{ScreenID: "sc2", AuthorID: "u1", Body: "reply", ParentCommentID: root.ID}
	if err := s.CreateComment(ctx, cross); !model.IsValidation(err) {
		t.Errorf("cross-screen reply err = %v, want validation error", err)
	}
}

func TestResolveComment(t *testing.T) {
	s := setupAnnotations(t)
	ctx := context.Background()

	c := &Comment{ScreenID: "sc1", AuthorID: "u1", Body: "fix this"}
	s.CreateComment(ctx, c)

	if err := s.ResolveComment(ctx, c.ID, true); err != nil {
		t.Fatalf("ResolveComment: %v", err)
	}
	got, _ := s.GetComment(ctx, c.ID)
	if !got.Resolved {
		t.Error("comment not resolved")
	}

	if err := s.ResolveComment(ctx, "missing", true); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHotspotCRUD(t *testing.T) {
	s := setupAnnotations(t)
	ctx := context.Background()

	h := &Hotspot{
		ScreenID:       "sc1",
		TargetScreenID: "sc2",
		Label:          "Continue",
		Box:            model.BoundingBox{X: 10, Y: 80, Width: 30, Height: 8},
	}
	if err := s.CreateHotspot(ctx, h); err != nil {
		t.Fatalf("CreateHotspot: %v", err)
	}

	hotspots, err := s.ListHotspots(ctx, "sc1")
	if err != nil {
		t.Fatalf("ListHotspots: %v", err)
	}
	if len(hotspots) != 1 || hotspots[0].TargetScreenID != "sc2" {
		t.Fatalf("hotspots = %+v", hotspots)
	}

	h.Box.Width = 40
	h.Label = "Next"
	if err := s.UpdateHotspot(ctx, h); err != nil {
		t.Fatalf("UpdateHotspot: %v", err)
	}
	hotspots, _ = s.ListHotspots(ctx, "sc1")
	if hotspots[0].Box.Width != 40 || hotspots[0].Label != "Next" {
		t.Errorf("update lost: %+v", hotspots[0])
	}

	if err := s.DeleteHotspot(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHotspot: %v", err)
	}
	hotspots, _ = s.ListHotspots(ctx, "sc1")
	if len(hotspots) != 0 {
		t.Error("hotspot survived delete")
	}
}

func TestHotspotRejectsMalformedBox(t *testing.T) {
	s := setupAnnotations(t)
	boxes := []model.BoundingBox{
		{X: -1, Y: 0, Width: 10, Height: 10},
		{X: 95, Y: 0, Width: 10, Height: 10},  // exceeds right edge
		{X: 0, Y: 0, Width: 0.05, Height: 10}, // invisible
	}
	for i, b := range boxes {
		h := &Hotspot{ScreenID: "sc1", Box: b}
		if err := s.CreateHotspot(context.Background(), h); !model.IsValidation(err) {
			t.Errorf("box %d: err = %v, want validation error", i, err)
		}
	}
}
