package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/flowdeckhq/flowdeck/internal/db"
	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/search"
	"github.com/flowdeckhq/flowdeck/internal/session"
	"github.com/flowdeckhq/flowdeck/internal/storage"
	"github.com/flowdeckhq/flowdeck/internal/store"
)

// Requests carry no token, so handlers act as the open-mode local
// actor. Fixtures must be created as the same identity.
var testActor = model.Actor{UserID: "local"}

type fixture struct {
	router chi.Router
	store  *store.Store
}

func setupAPI(t *testing.T) *fixture {
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
	idx, err := search.NewIndex(nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	r := chi.NewRouter()
	NewHandlers(st, session.NewManager(st, nil), files, nil, idx).RegisterRoutes(r)
	return &fixture{router: r, store: st}
}

func (fx *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

func (fx *fixture) mustProject(t *testing.T, name string) *model.Project {
	t.Helper()
	p := &model.Project{Name: name}
	if err := fx.store.CreateProject(context.Background(), testActor, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func (fx *fixture) mustFlow(t *testing.T, projectID, name string, parent model.ParentRef) *model.Flow {
	t.Helper()
	f := &model.Flow{ProjectID: projectID, Name: name, Parent: parent}
	if err := fx.store.CreateFlow(context.Background(), f); err != nil {
		t.Fatalf("CreateFlow(%s): %v", name, err)
	}
	return f
}

func (fx *fixture) mustScreen(t *testing.T, flowID, title, parentID string) *model.Screen {
	t.Helper()
	sc := &model.Screen{FlowID: flowID, Title: title, ParentID: parentID}
	if err := fx.store.CreateScreen(context.Background(), sc); err != nil {
		t.Fatalf("CreateScreen(%s): %v", title, err)
	}
	return sc
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal response: %v\nbody: %s", err, w.Body.String())
	}
}

func TestProjectTree(t *testing.T) {
	fx := setupAPI(t)
	p := fx.mustProject(t, "Mobile App")
	fa := fx.mustFlow(t, p.ID, "Onboarding", model.TopLevel())
	fx.mustFlow(t, p.ID, "Permissions", model.UnderFlow(fa.ID))
	s1 := fx.mustScreen(t, fa.ID, "Welcome", "")
	fx.mustScreen(t, fa.ID, "Welcome Variant", s1.ID)
	fx.mustFlow(t, p.ID, "Error Path", model.UnderScreen(s1.ID))

	w := fx.do(t, "GET", "/api/projects/"+p.ID+"/tree", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Flows []struct {
			Flow struct {
				Name string `json:"name"`
			} `json:"flow"`
			Screens []struct {
				Title    string `json:"title"`
				Children []struct {
					Title string `json:"title"`
				} `json:"children"`
			} `json:"screens"`
			Children []struct {
				Flow struct {
					Name string `json:"name"`
				} `json:"flow"`
			} `json:"children"`
			Branches map[string][]struct {
				Flow struct {
					Name string `json:"name"`
				} `json:"flow"`
			} `json:"branches"`
		} `json:"flows"`
	}
	decodeBody(t, w, &resp)

	if len(resp.Flows) != 1 || resp.Flows[0].Flow.Name != "Onboarding" {
		t.Fatalf("unexpected top-level flows: %s", w.Body.String())
	}
	root := resp.Flows[0]
	if len(root.Children) != 1 || root.Children[0].Flow.Name != "Permissions" {
		t.Errorf("nested flow missing: %s", w.Body.String())
	}
	if len(root.Screens) != 1 || root.Screens[0].Title != "Welcome" {
		t.Fatalf("screen forest wrong: %s", w.Body.String())
	}
	if len(root.Screens[0].Children) != 1 || root.Screens[0].Children[0].Title != "Welcome Variant" {
		t.Errorf("nested screen missing: %s", w.Body.String())
	}
	branches := root.Branches[s1.ID]
	if len(branches) != 1 || branches[0].Flow.Name != "Error Path" {
		t.Errorf("branch flow missing: %s", w.Body.String())
	}

	w = fx.do(t, "GET", "/api/projects/nope/tree", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown project: expected 404, got %d", w.Code)
	}
}

func TestReorderFlows(t *testing.T) {
	fx := setupAPI(t)
	p := fx.mustProject(t, "Mobile App")
	fa := fx.mustFlow(t, p.ID, "A", model.TopLevel())
	fb := fx.mustFlow(t, p.ID, "B", model.TopLevel())
	fc := fx.mustFlow(t, p.ID, "C", model.TopLevel())

	// Drag C onto A: C takes A's slot, everything renumbers.
	w := fx.do(t, "POST", "/api/flows/"+fc.ID+"/reorder", `{"target_id":"`+fa.ID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var group []model.Flow
	decodeBody(t, w, &group)
	if len(group) != 3 {
		t.Fatalf("group size = %d, want 3", len(group))
	}
	got := []string{group[0].Name, group[1].Name, group[2].Name}
	want := []string{"C", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
		if group[i].OrderIndex != i {
			t.Errorf("order_index[%d] = %d", i, group[i].OrderIndex)
		}
	}

	// The new order survives a reload from the database.
	flows, err := fx.store.ListFlowsByProject(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ListFlowsByProject: %v", err)
	}
	byID := map[string]int{}
	for _, f := range flows {
		byID[f.ID] = f.OrderIndex
	}
	if byID[fc.ID] != 0 || byID[fa.ID] != 1 || byID[fb.ID] != 2 {
		t.Errorf("persisted order wrong: %v", byID)
	}
}

func TestStepFlowValidation(t *testing.T) {
	fx := setupAPI(t)
	p := fx.mustProject(t, "Mobile App")
	f := fx.mustFlow(t, p.ID, "A", model.TopLevel())

	w := fx.do(t, "POST", "/api/flows/"+f.ID+"/step", `{"direction":"sideways"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad direction: expected 400, got %d", w.Code)
	}

	// Stepping the only flow up hits the boundary and changes nothing.
	w = fx.do(t, "POST", "/api/flows/"+f.ID+"/step", `{"direction":"up"}`)
	if w.Code != http.StatusOK {
		t.Errorf("boundary step: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMoveFlowCycleConflict(t *testing.T) {
	fx := setupAPI(t)
	p := fx.mustProject(t, "Mobile App")
	fa := fx.mustFlow(t, p.ID, "A", model.TopLevel())
	fb := fx.mustFlow(t, p.ID, "B", model.UnderFlow(fa.ID))

	w := fx.do(t, "POST", "/api/flows/"+fa.ID+"/move", `{"kind":"flow","id":"`+fb.ID+`"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("move under own child: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	w = fx.do(t, "POST", "/api/flows/"+fa.ID+"/move", `{"kind":"flow","id":"`+fa.ID+`"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("move under self: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// A legal move to top level is a no-op here but still succeeds.
	w = fx.do(t, "POST", "/api/flows/"+fb.ID+"/move", `{"kind":"top-level"}`)
	if w.Code != http.StatusOK {
		t.Errorf("legal move: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReparentScreenCycleConflict(t *testing.T) {
	fx := setupAPI(t)
	p := fx.mustProject(t, "Mobile App")
	f := fx.mustFlow(t, p.ID, "Onboarding", model.TopLevel())
	s1 := fx.mustScreen(t, f.ID, "Welcome", "")
	s2 := fx.mustScreen(t, f.ID, "Variant", s1.ID)

	w := fx.do(t, "POST", "/api/screens/"+s1.ID+"/reparent", `{"parent_id":"`+s2.ID+`"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("reparent under descendant: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	w = fx.do(t, "POST", "/api/screens/"+s2.ID+"/reparent", `{"parent_id":""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("promote to root: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var moved model.Screen
	decodeBody(t, w, &moved)
	if moved.Level != 0 || moved.Path != "" || moved.ParentID != "" {
		t.Errorf("promoted screen not at root: %+v", moved)
	}
}

func TestCreateFlowValidation(t *testing.T) {
	fx := setupAPI(t)
	p := fx.mustProject(t, "Mobile App")

	w := fx.do(t, "POST", "/api/projects/"+p.ID+"/flows", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", w.Code)
	}

	w = fx.do(t, "POST", "/api/projects/"+p.ID+"/flows", `{"name":"Onboarding"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var f model.Flow
	decodeBody(t, w, &f)
	if f.ProjectID != p.ID || f.OrderIndex != 0 {
		t.Errorf("created flow = %+v", f)
	}
}

func TestSearchEndpoint(t *testing.T) {
	fx := setupAPI(t)
	p := fx.mustProject(t, "Mobile App")
	fx.mustFlow(t, p.ID, "Onboarding", model.TopLevel())

	w := fx.do(t, "GET", "/api/projects/"+p.ID+"/search", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q: expected 400, got %d", w.Code)
	}

	// Screens created through the API are searchable immediately.
	flows, err := fx.store.ListFlowsByProject(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ListFlowsByProject: %v", err)
	}
	w = fx.do(t, "POST", "/api/flows/"+flows[0].ID+"/screens", `{"title":"Payment Method"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create screen: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = fx.do(t, "GET", "/api/projects/"+p.ID+"/search?q=payment", "")
	if w.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var results []search.Result
	decodeBody(t, w, &results)
	if len(results) != 1 || results[0].Title != "Payment Method" {
		t.Errorf("results = %+v", results)
	}
}

func TestScreenNotFound(t *testing.T) {
	fx := setupAPI(t)

	w := fx.do(t, "GET", "/api/screens/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
