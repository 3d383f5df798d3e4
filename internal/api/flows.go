package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

func (h *Handlers) listFlows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		if _, err := h.store.GetProject(r.Context(), actor(r), projectID); err != nil {
			writeError(w, err)
			return
		}
		flows, err := h.store.ListFlowsByProject(r.Context(), projectID)
		if err != nil {
			writeError(w, err)
			return
		}
		if flows == nil {
			flows = []model.Flow{}
		}
		writeJSON(w, http.StatusOK, flows)
	}
}

func (h *Handlers) createFlow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "id")
		if _, err := h.store.GetProject(r.Context(), actor(r), projectID); err != nil {
			writeError(w, err)
			return
		}
		var f model.Flow
		if err := decode(r, &f); err != nil {
			writeError(w, err)
			return
		}
		if f.Name == "" {
			writeError(w, model.Validationf("name", "name is required"))
			return
		}
		f.ProjectID = projectID
		if err := h.store.CreateFlow(r.Context(), &f); err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(projectID)
		writeJSON(w, http.StatusCreated, f)
	}
}

func (h *Handlers) getFlow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func (h *Handlers) updateFlow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		var patch model.FlowPatch
		if err := decode(r, &patch); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.store.UpdateFlow(r.Context(), f.ID, &patch)
		if err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(f.ProjectID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handlers) deleteFlow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.store.DeleteFlow(r.Context(), f.ID); err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(f.ProjectID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) reorderFlow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			TargetID string `json:"target_id"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		sess, err := h.sessions.Get(r.Context(), actor(r), f.ProjectID)
		if err != nil {
			writeError(w, err)
			return
		}
		group, err := sess.ReorderFlows(r.Context(), f.ID, req.TargetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

func (h *Handlers) stepFlow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		dir, err := parseDirection(r)
		if err != nil {
			writeError(w, err)
			return
		}
		sess, err := h.sessions.Get(r.Context(), actor(r), f.ProjectID)
		if err != nil {
			writeError(w, err)
			return
		}
		group, err := sess.MoveFlowStep(r.Context(), f.ID, dir)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

func (h *Handlers) moveFlow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		var target model.ParentRef
		if err := decode(r, &target); err != nil {
			writeError(w, err)
			return
		}
		sess, err := h.sessions.Get(r.Context(), actor(r), f.ProjectID)
		if err != nil {
			writeError(w, err)
			return
		}
		moved, err := sess.MoveFlow(r.Context(), f.ID, target)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, moved)
	}
}

func (h *Handlers) flowSuggestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		flows, err := h.store.ListFlowsByProject(r.Context(), f.ProjectID)
		if err != nil {
			writeError(w, err)
			return
		}
		suggestions := tree.FlowMoveSuggestions(*f, flows)
		if suggestions == nil {
			suggestions = []tree.MoveSuggestion{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"suggestions": suggestions,
			"targets":     tree.AvailableFlowTargets(*f, flows),
		})
	}
}

// visibleFlow loads a flow and checks the actor can see its project.
// Flows are not owner-scoped themselves; the project is.
func (h *Handlers) visibleFlow(r *http.Request, id string) (*model.Flow, error) {
	f, err := h.store.GetFlow(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if _, err := h.store.GetProject(r.Context(), actor(r), f.ProjectID); err != nil {
		return nil, err
	}
	return f, nil
}

func parseDirection(r *http.Request) (tree.Direction, error) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := decode(r, &req); err != nil {
		return 0, err
	}
	switch req.Direction {
	case "up":
		return tree.Up, nil
	case "down":
		return tree.Down, nil
	default:
		return 0, model.Validationf("direction", "must be \"up\" or \"down\"")
	}
}
