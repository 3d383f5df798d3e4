package annotation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowdeckhq/flowdeck/internal/auth"
	"github.com/flowdeckhq/flowdeck/internal/model"
)

// RegisterRoutes mounts comment and hotspot endpoints.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/screens/{screenID}/comments", listCommentsHandler(store))
	r.Post("/api/screens/{screenID}/comments", createCommentHandler(store))
	r.Post("/api/comments/{id}/resolve", resolveCommentHandler(store))
	r.Delete("/api/comments/{id}", deleteCommentHandler(store))

	r.Get("/api/screens/{screenID}/hotspots", listHotspotsHandler(store))
	r.Post("/api/screens/{screenID}/hotspots", createHotspotHandler(store))
	r.Put("/api/hotspots/{id}", updateHotspotHandler(store))
	r.Delete("/api/hotspots/{id}", deleteHotspotHandler(store))
}

func listCommentsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := store.ListComments(r.Context(), chi.URLParam(r, "screenID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if comments == nil {
			comments = []Comment{}
		}
		writeJSON(w, http.StatusOK, comments)
	}
}

func createCommentHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Comment
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		c.ScreenID = chi.URLParam(r, "screenID")
		c.AuthorID = auth.ActorFrom(r.Context()).UserID
		if err := store.CreateComment(r.Context(), &c); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func resolveCommentHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Resolved bool `json:"resolved"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := store.ResolveComment(r.Context(), chi.URLParam(r, "id"), req.Resolved); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteCommentHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listHotspotsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hotspots, err := store.ListHotspots(r.Context(), chi.URLParam(r, "screenID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if hotspots == nil {
			hotspots = []Hotspot{}
		}
		writeJSON(w, http.StatusOK, hotspots)
	}
}

func createHotspotHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var h Hotspot
		if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		h.ScreenID = chi.URLParam(r, "screenID")
		if err := store.CreateHotspot(r.Context(), &h); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, h)
	}
}

func updateHotspotHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var h Hotspot
		if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		h.ID = chi.URLParam(r, "id")
		if err := store.UpdateHotspot(r.Context(), &h); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, h)
	}
}

func deleteHotspotHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteHotspot(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
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
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case model.IsValidation(err):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
