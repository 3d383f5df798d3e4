package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/store"
)

func exportFixture() *store.ProjectData {
	return &store.ProjectData{
		Project: model.Project{ID: "p1", Name: "Mobile App", Description: "All captured journeys"},
		Flows: []model.Flow{
			{ID: "fb", ProjectID: "p1", Name: "Settings", OrderIndex: 1, Parent: model.TopLevel()},
			{ID: "fa", ProjectID: "p1", Name: "Onboarding", OrderIndex: 0, Parent: model.TopLevel()},
			{ID: "fa1", ProjectID: "p1", Name: "Permissions", OrderIndex: 0, Parent: model.UnderFlow("fa")},
			{ID: "fx", ProjectID: "p1", Name: "Error Path", OrderIndex: 0, Parent: model.UnderScreen("s1")},
		},
		Screens: []model.Screen{
			{ID: "s1", FlowID: "fa", Title: "Welcome", OrderIndex: 0, Notes: "Shows the **intro** copy."},
			{ID: "s2", FlowID: "fa", ParentID: "s1", Title: "Welcome Variant", OrderIndex: 0, Level: 1, Path: "/s1"},
		},
	}
}

func TestRenderOrdersFlowsHierarchically(t *testing.T) {
	out, err := NewExporter().Render(exportFixture())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)

	// Onboarding before its nested Permissions, Settings after, the
	// branch flow at the end.
	order := []string{"Onboarding", "Permissions", "Settings", "Error Path"}
	last := -1
	for _, name := range order {
		i := strings.Index(html, "<h2>"+name)
		if i < 0 {
			t.Fatalf("flow %q missing from export", name)
		}
		if i < last {
			t.Errorf("flow %q out of order", name)
		}
		last = i
	}
}

func TestRenderMarkdownNotes(t *testing.T) {
	out, err := NewExporter().Render(exportFixture())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "<strong>intro</strong>") {
		t.Error("markdown notes were not rendered to HTML")
	}
}

func TestRenderNestedScreens(t *testing.T) {
	out, err := NewExporter().Render(exportFixture())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, `class="screen level-1"`) {
		t.Error("nested screen lost its depth class")
	}
	parent := strings.Index(html, "Welcome</h3>")
	child := strings.Index(html, "Welcome Variant</h3>")
	if parent < 0 || child < 0 || child < parent {
		t.Error("child screen does not follow its parent")
	}
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExporter().Export(exportFixture(), dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if path != filepath.Join(dir, "index.html") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "Mobile App") {
		t.Error("export missing project name")
	}
}

func TestFlowDepths(t *testing.T) {
	depths := flowDepths(exportFixture().Flows)
	want := map[string]int{"fa": 0, "fb": 0, "fa1": 1, "fx": 1}
	for id, d := range want {
		if depths[id] != d {
			t.Errorf("depth[%s] = %d, want %d", id, depths[id], d)
		}
	}
}
