package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowdeckhq/flowdeck/internal/db"
	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/progress"
	"github.com/flowdeckhq/flowdeck/internal/storage"
	"github.com/flowdeckhq/flowdeck/internal/store"
)

var testActor = model.Actor{UserID: "user-1"}

func setupImporter(t *testing.T) (*Importer, *store.Store, string) {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	st := store.New(d)
	files, err := storage.NewLocal(t.TempDir(), "/files/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	p := &model.Project{Name: "Imported App"}
	if err := st.CreateProject(context.Background(), testActor, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return New(st, files, nil, progress.Silent{}), st, p.ID
}

func writeShot(t *testing.T, dir, rel string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("not a real png"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRunGroupsByDirectory(t *testing.T) {
	imp, st, projectID := setupImporter(t)
	ctx := context.Background()

	dir := t.TempDir()
	writeShot(t, dir, "01_onboarding/welcome.png")
	writeShot(t, dir, "01_onboarding/sign-up.png")
	writeShot(t, dir, "settings/profile.png")
	writeShot(t, dir, "landing.png")
	writeShot(t, dir, "notes.txt")

	summary, err := imp.Run(ctx, testActor, projectID, Options{
		Dir:     dir,
		Include: []string{"**/*.png"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Flows != 3 {
		t.Errorf("flows = %d, want 3", summary.Flows)
	}
	if summary.Screens != 4 {
		t.Errorf("screens = %d, want 4", summary.Screens)
	}
	if summary.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", summary.Skipped)
	}

	flows, err := st.ListFlowsByProject(ctx, projectID)
	if err != nil {
		t.Fatalf("ListFlowsByProject: %v", err)
	}
	names := map[string]string{}
	for _, f := range flows {
		names[f.Name] = f.ID
	}
	for _, want := range []string{"Onboarding", "Settings", "Imported"} {
		if _, ok := names[want]; !ok {
			t.Errorf("flow %q missing, have %v", want, names)
		}
	}

	screens, err := st.ListScreensByFlow(ctx, names["Onboarding"])
	if err != nil {
		t.Fatalf("ListScreensByFlow: %v", err)
	}
	if len(screens) != 2 {
		t.Fatalf("onboarding screens = %d, want 2", len(screens))
	}
	// Files sort alphabetically, so Sign Up comes before Welcome.
	if screens[0].Title != "Sign Up" || screens[1].Title != "Welcome" {
		t.Errorf("titles = %q, %q", screens[0].Title, screens[1].Title)
	}
	if screens[0].ScreenshotURL == "" {
		t.Error("screenshot URL not set")
	}
}

func TestRunExcludePatterns(t *testing.T) {
	imp, _, projectID := setupImporter(t)

	dir := t.TempDir()
	writeShot(t, dir, "checkout/payment.png")
	writeShot(t, dir, "node_modules/pkg/icon.png")

	summary, err := imp.Run(context.Background(), testActor, projectID, Options{
		Dir:     dir,
		Include: []string{"**/*.png"},
		Exclude: []string{"node_modules/**"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Screens != 1 {
		t.Errorf("screens = %d, want 1", summary.Screens)
	}
	if summary.Flows != 1 {
		t.Errorf("flows = %d, want 1", summary.Flows)
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	imp, _, projectID := setupImporter(t)

	summary, err := imp.Run(context.Background(), testActor, projectID, Options{
		Dir:     t.TempDir(),
		Include: []string{"**/*.png"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Flows != 0 || summary.Screens != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
}

func TestRunUnknownProject(t *testing.T) {
	imp, _, _ := setupImporter(t)

	_, err := imp.Run(context.Background(), testActor, "nope", Options{
		Dir:     t.TempDir(),
		Include: []string{"**/*.png"},
	})
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestFlowName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"01_sign-up", "Sign Up"},
		{"settings", "Settings"},
		{"02 - checkout", "Checkout"},
		{"123", "123"},
	}
	for _, tc := range cases {
		if got := flowName(tc.in); got != tc.want {
			t.Errorf("flowName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
