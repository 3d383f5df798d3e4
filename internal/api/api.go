package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowdeckhq/flowdeck/internal/auth"
	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/search"
	"github.com/flowdeckhq/flowdeck/internal/session"
	"github.com/flowdeckhq/flowdeck/internal/storage"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/vision"
)

// Handlers bundles the dependencies the HTTP layer needs. search and
// analyzer may be nil; the matching endpoints then report the feature
// as unconfigured.
type Handlers struct {
	store    *store.Store
	sessions *session.Manager
	files    storage.Store
	analyzer vision.Provider
	search   *search.Index
}

func NewHandlers(st *store.Store, sessions *session.Manager, files storage.Store, analyzer vision.Provider, idx *search.Index) *Handlers {
	return &Handlers{store: st, sessions: sessions, files: files, analyzer: analyzer, search: idx}
}

// RegisterRoutes mounts all entity endpoints on the given router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/api/projects", h.listProjects())
	r.Post("/api/projects", h.createProject())
	r.Get("/api/projects/{id}", h.getProject())
	r.Put("/api/projects/{id}", h.updateProject())
	r.Delete("/api/projects/{id}", h.deleteProject())
	r.Get("/api/projects/{id}/tree", h.projectTree())
	r.Get("/api/projects/{id}/search", h.searchScreens())

	r.Get("/api/projects/{id}/flows", h.listFlows())
	r.Post("/api/projects/{id}/flows", h.createFlow())
	r.Get("/api/flows/{id}", h.getFlow())
	r.Put("/api/flows/{id}", h.updateFlow())
	r.Delete("/api/flows/{id}", h.deleteFlow())
	r.Post("/api/flows/{id}/reorder", h.reorderFlow())
	r.Post("/api/flows/{id}/step", h.stepFlow())
	r.Post("/api/flows/{id}/move", h.moveFlow())
	r.Get("/api/flows/{id}/suggestions", h.flowSuggestions())

	r.Get("/api/flows/{id}/screens", h.listScreens())
	r.Post("/api/flows/{id}/screens", h.createScreen())
	r.Get("/api/screens/{id}", h.getScreen())
	r.Put("/api/screens/{id}", h.updateScreen())
	r.Delete("/api/screens/{id}", h.deleteScreen())
	r.Post("/api/screens/{id}/screenshot", h.uploadScreenshot())
	r.Post("/api/screens/{id}/analyze", h.analyzeScreen())
	r.Post("/api/screens/{id}/detect-elements", h.detectElements())
	r.Post("/api/screens/{id}/reorder", h.reorderScreen())
	r.Post("/api/screens/{id}/step", h.stepScreen())
	r.Post("/api/screens/{id}/reparent", h.reparentScreen())
	r.Get("/api/screens/{id}/suggestions", h.screenSuggestions())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes: structural conflicts
// are 409, bad input is 400, lost writes are 502-adjacent 500s. The
// body always carries a machine-readable error field.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var ve *model.ValidationError
	var pe *model.PersistenceError
	var ee *model.ExternalServiceError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrWouldCycle),
		errors.Is(err, model.ErrSelfParent),
		errors.Is(err, model.ErrCrossFlowMove):
		status = http.StatusConflict
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &pe):
		status = http.StatusInternalServerError
	case errors.As(err, &ee):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func actor(r *http.Request) model.Actor {
	return auth.ActorFrom(r.Context())
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.Validationf("body", "invalid request body: %v", err)
	}
	return nil
}
