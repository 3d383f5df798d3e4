package share

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowdeckhq/flowdeck/internal/db"
)

func setupShare(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func TestLinkRoundTrip(t *testing.T) {
	s := setupShare(t)
	ctx := context.Background()

	link, err := s.Create(ctx, "p1", "u1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if link.Token == "" {
		t.Fatal("expected a token")
	}

	got, err := s.Resolve(ctx, link.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ProjectID != "p1" {
		t.Errorf("project = %q, want p1", got.ProjectID)
	}

	if _, err := s.Resolve(ctx, "nope"); !errors.Is(err, ErrLinkInvalid) {
		t.Errorf("unknown token err = %v, want ErrLinkInvalid", err)
	}
}

func TestRevokedLinkStopsResolving(t *testing.T) {
	s := setupShare(t)
	ctx := context.Background()

	link, _ := s.Create(ctx, "p1", "u1", nil)
	if err := s.Revoke(ctx, link.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := s.Resolve(ctx, link.Token); !errors.Is(err, ErrLinkInvalid) {
		t.Errorf("revoked token err = %v, want ErrLinkInvalid", err)
	}

	// Revoked links still show in the list for auditing.
	links, err := s.List(ctx, "p1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(links) != 1 || links[0].RevokedAt == nil {
		t.Errorf("links = %+v, want one revoked link", links)
	}
}

func TestExpiredLinkStopsResolving(t *testing.T) {
	s := setupShare(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	link, _ := s.Create(ctx, "p1", "u1", &past)
	if _, err := s.Resolve(ctx, link.Token); !errors.Is(err, ErrLinkInvalid) {
		t.Errorf("expired token err = %v, want ErrLinkInvalid", err)
	}
}
