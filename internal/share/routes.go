package share

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flowdeckhq/flowdeck/internal/auth"
	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

// ProjectLoader is the read path the public viewer needs: resolve the
// project's owner, then load the project as that owner.
type ProjectLoader interface {
	ProjectOwner(ctx context.Context, id string) (model.Actor, error)
	GetProject(ctx context.Context, actor model.Actor, id string) (*model.Project, error)
	LoadProject(ctx context.Context, actor model.Actor, projectID string) (*store.ProjectData, error)
}

// RegisterRoutes mounts the authenticated share-link management
// endpoints.
func RegisterRoutes(r chi.Router, s *Store, projects ProjectLoader) {
	r.Get("/api/projects/{projectID}/share", listLinksHandler(s, projects))
	r.Post("/api/projects/{projectID}/share", createLinkHandler(s, projects))
	r.Delete("/api/share-links/{id}", revokeLinkHandler(s))
}

// RegisterPublicRoutes mounts the unauthenticated viewer endpoint. The
// server wires this outside the auth middleware; the token is the only
// credential.
func RegisterPublicRoutes(r chi.Router, s *Store, projects ProjectLoader) {
	r.Get("/share/{token}", viewSharedProjectHandler(s, projects))
}

func listLinksHandler(s *Store, projects ProjectLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")
		if _, err := projects.GetProject(r.Context(), auth.ActorFrom(r.Context()), projectID); err != nil {
			writeError(w, err)
			return
		}
		links, err := s.List(r.Context(), projectID)
		if err != nil {
			writeError(w, err)
			return
		}
		if links == nil {
			links = []Link{}
		}
		writeJSON(w, http.StatusOK, links)
	}
}

func createLinkHandler(s *Store, projects ProjectLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")
		actor := auth.ActorFrom(r.Context())
		if _, err := projects.GetProject(r.Context(), actor, projectID); err != nil {
			writeError(w, err)
			return
		}

		var req struct {
			ExpiresInHours int `json:"expires_in_hours"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		}
		var expiresAt *time.Time
		if req.ExpiresInHours > 0 {
			t := time.Now().UTC().Add(time.Duration(req.ExpiresInHours) * time.Hour)
			expiresAt = &t
		}

		link, err := s.Create(r.Context(), projectID, actor.UserID, expiresAt)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, link)
	}
}

func revokeLinkHandler(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Revoke(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func viewSharedProjectHandler(s *Store, projects ProjectLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := s.Resolve(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, err)
			return
		}
		owner, err := projects.ProjectOwner(r.Context(), link.ProjectID)
		if err != nil {
			writeError(w, err)
			return
		}
		data, err := projects.LoadProject(r.Context(), owner, link.ProjectID)
		if err != nil {
			writeError(w, err)
			return
		}

		screens := data.ScreensByFlow()
		forests := make(map[string][]*tree.ScreenNode, len(screens))
		for flowID, group := range screens {
			forest := tree.BuildScreenTree(group)
			tree.SortTree(forest)
			forests[flowID] = forest
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"project": data.Project,
			"flows":   tree.SortFlowsHierarchically(data.Flows),
			"screens": forests,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrLinkInvalid), errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case model.IsValidation(err):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
