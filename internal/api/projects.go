package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

func (h *Handlers) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.store.ListProjects(r.Context(), actor(r))
		if err != nil {
			writeError(w, err)
			return
		}
		if projects == nil {
			projects = []model.Project{}
		}
		writeJSON(w, http.StatusOK, projects)
	}
}

func (h *Handlers) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p model.Project
		if err := decode(r, &p); err != nil {
			writeError(w, err)
			return
		}
		if p.Name == "" {
			writeError(w, model.Validationf("name", "name is required"))
			return
		}
		if err := h.store.CreateProject(r.Context(), actor(r), &p); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func (h *Handlers) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.store.GetProject(r.Context(), actor(r), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (h *Handlers) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch model.ProjectPatch
		if err := decode(r, &patch); err != nil {
			writeError(w, err)
			return
		}
		p, err := h.store.UpdateProject(r.Context(), actor(r), chi.URLParam(r, "id"), &patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (h *Handlers) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.store.DeleteProject(r.Context(), actor(r), id); err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// flowTree is one flow with its screen forest, nested child flows, and
// the flows branching from its screens.
type flowTree struct {
	Flow     model.Flow             `json:"flow"`
	Screens  []*tree.ScreenNode     `json:"screens"`
	Children []*flowTree            `json:"children"`
	Branches map[string][]*flowTree `json:"branches,omitempty"`
}

func (h *Handlers) projectTree() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		data := sess.Snapshot()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"project": data.Project,
			"flows":   buildFlowForest(&data),
		})
	}
}

// buildFlowForest nests a project's flows and screens into the shape
// the tree view renders.
func buildFlowForest(data *store.ProjectData) []*flowTree {
	p := tree.PartitionFlows(data.Flows)
	screens := data.ScreensByFlow()

	var build func(f model.Flow) *flowTree
	build = func(f model.Flow) *flowTree {
		forest := tree.BuildScreenTree(screens[f.ID])
		tree.SortTree(forest)
		node := &flowTree{Flow: f, Screens: forest, Children: []*flowTree{}}
		for _, child := range p.ByParentFlow[f.ID] {
			node.Children = append(node.Children, build(child))
		}
		for _, sc := range screens[f.ID] {
			branches := p.ByParentScreen[sc.ID]
			if len(branches) == 0 {
				continue
			}
			if node.Branches == nil {
				node.Branches = make(map[string][]*flowTree)
			}
			for _, b := range branches {
				node.Branches[sc.ID] = append(node.Branches[sc.ID], build(b))
			}
		}
		return node
	}

	out := make([]*flowTree, 0, len(p.TopLevel))
	for _, f := range p.TopLevel {
		out = append(out, build(f))
	}
	return out
}

func (h *Handlers) searchScreens() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.search == nil {
			writeError(w, model.Validationf("search", "search is not configured"))
			return
		}
		q := r.URL.Query().Get("q")
		if q == "" {
			writeError(w, model.Validationf("q", "query is required"))
			return
		}
		projectID := chi.URLParam(r, "id")
		if _, err := h.store.GetProject(r.Context(), actor(r), projectID); err != nil {
			writeError(w, err)
			return
		}
		results, err := h.search.Search(r.Context(), projectID, q, 20)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
