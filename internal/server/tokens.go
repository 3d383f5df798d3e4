package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flowdeckhq/flowdeck/internal/auth"
	"github.com/flowdeckhq/flowdeck/internal/model"
)

// registerTokenRoutes exposes API token management. The routes sit
// inside the auth group: once a first token exists, managing tokens
// requires one.
func (s *Server) registerTokenRoutes(r chi.Router) {
	r.Route("/api/tokens", func(r chi.Router) {
		r.Get("/", s.listTokensHandler())
		r.Post("/", s.createTokenHandler())
		r.Delete("/{id}", s.revokeTokenHandler())
	})
}

func (s *Server) listTokensHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokens, err := s.tokens.List(r.Context(), auth.ActorFrom(r.Context()))
		if err != nil {
			tokenError(w, err)
			return
		}
		if tokens == nil {
			tokens = []auth.Token{}
		}
		tokenJSON(w, http.StatusOK, tokens)
	}
}

func (s *Server) createTokenHandler() http.HandlerFunc {
	type request struct {
		Name          string `json:"name"`
		Scope         string `json:"scope"`
		ExpiresInDays int    `json:"expires_in_days"`
	}
	type response struct {
		Token  *auth.Token `json:"token"`
		Secret string      `json:"secret"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			tokenError(w, model.Validationf("body", "invalid JSON: %v", err))
			return
		}
		if req.Name == "" {
			tokenError(w, model.Validationf("name", "is required"))
			return
		}
		scope := auth.Scope(req.Scope)
		if scope == "" {
			scope = auth.ScopeReadWrite
		}
		var expiresAt *time.Time
		if req.ExpiresInDays > 0 {
			t := time.Now().UTC().AddDate(0, 0, req.ExpiresInDays)
			expiresAt = &t
		}

		token, secret, err := s.tokens.Create(r.Context(), req.Name, auth.ActorFrom(r.Context()), scope, expiresAt)
		if err != nil {
			tokenError(w, err)
			return
		}
		tokenJSON(w, http.StatusCreated, response{Token: token, Secret: secret})
	}
}

func (s *Server) revokeTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.tokens.Revoke(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			tokenError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func tokenJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding token response: %v", err)
	}
}

func tokenError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case model.IsValidation(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("token request failed: %v", err)
	}
	tokenJSON(w, status, map[string]string{"error": err.Error()})
}
