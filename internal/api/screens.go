package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/storage"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

// analysisTimeout bounds one vision call. Analysis runs outside the
// router's request timeout; vision models routinely take minutes.
const analysisTimeout = 5 * time.Minute

func (h *Handlers) listScreens() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		screens, err := h.store.ListScreensByFlow(r.Context(), f.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		forest := tree.BuildScreenTree(screens)
		tree.SortTree(forest)
		writeJSON(w, http.StatusOK, forest)
	}
}

func (h *Handlers) createScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.visibleFlow(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		var sc model.Screen
		if err := decode(r, &sc); err != nil {
			writeError(w, err)
			return
		}
		if sc.Title == "" {
			writeError(w, model.Validationf("title", "title is required"))
			return
		}
		sc.FlowID = f.ID
		if err := h.store.CreateScreen(r.Context(), &sc); err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(f.ProjectID)
		h.indexScreen(r.Context(), f.ProjectID, sc)
		writeJSON(w, http.StatusCreated, sc)
	}
}

func (h *Handlers) getScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, _, err := h.visibleScreen(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

func (h *Handlers) updateScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, f, err := h.visibleScreen(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		var patch model.ScreenPatch
		if err := decode(r, &patch); err != nil {
			writeError(w, err)
			return
		}
		updated, err := h.store.UpdateScreen(r.Context(), sc.ID, &patch)
		if err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(f.ProjectID)
		h.indexScreen(r.Context(), f.ProjectID, *updated)
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handlers) deleteScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, f, err := h.visibleScreen(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.store.DeleteScreen(r.Context(), sc.ID); err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(f.ProjectID)
		if h.search != nil {
			if err := h.search.RemoveScreen(r.Context(), sc.ID); err != nil {
				log.Printf("search: removing screen %s: %v", sc.ID, err)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) uploadScreenshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, f, err := h.visibleScreen(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}

		if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
			writeError(w, model.Validationf("file", "invalid multipart body: %v", err))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, model.Validationf("file", "file field is required"))
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if err := storage.ValidateImage(contentType, header.Size); err != nil {
			writeError(w, err)
			return
		}

		url, err := h.files.Upload(r.Context(), header.Filename, contentType, file)
		if err != nil {
			writeError(w, err)
			return
		}

		// Replacing a screenshot orphans the old file; remove it.
		if sc.ScreenshotURL != "" {
			if err := h.files.Delete(r.Context(), sc.ScreenshotURL); err != nil {
				log.Printf("storage: removing replaced screenshot: %v", err)
			}
		}

		updated, err := h.store.UpdateScreen(r.Context(), sc.ID, &model.ScreenPatch{ScreenshotURL: &url})
		if err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(f.ProjectID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handlers) analyzeScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, f, err := h.visibleScreen(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if h.analyzer == nil {
			writeError(w, model.Validationf("analyze", "analysis is not configured"))
			return
		}
		if sc.ScreenshotURL == "" {
			writeError(w, model.Validationf("screenshot", "screen has no screenshot"))
			return
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), analysisTimeout)
		defer cancel()
		analysis, err := h.analyzer.AnalyzeScreenshot(ctx, sc.ScreenshotURL, sc.Title)
		if err != nil {
			writeError(w, err)
			return
		}

		patch := &model.ScreenPatch{DisplayName: &analysis.Title}
		if analysis.Description != "" {
			patch.Notes = &analysis.Description
		}
		updated, err := h.store.UpdateScreen(r.Context(), sc.ID, patch)
		if err != nil {
			writeError(w, err)
			return
		}
		h.sessions.Drop(f.ProjectID)
		h.indexScreen(r.Context(), f.ProjectID, *updated)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"screen":   updated,
			"elements": analysis.Elements,
		})
	}
}

func (h *Handlers) detectElements() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, _, err := h.visibleScreen(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if h.analyzer == nil {
			writeError(w, model.Validationf("analyze", "analysis is not configured"))
			return
		}
		if sc.ScreenshotURL == "" {
			writeError(w, model.Validationf("screenshot", "screen has no screenshot"))
			return
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), analysisTimeout)
		defer cancel()
		elements, err := h.analyzer.DetectElements(ctx, sc.ScreenshotURL)
		if err != nil {
			writeError(w, err)
			return
		}
		if elements == nil {
			elements = []model.DetectedElement{}
		}
		writeJSON(w, http.StatusOK, elements)
	}
}

func (h *Handlers) reorderScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, f, err := h.visibleScreen(r, chi.URLParam(r, "id"))
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
		group, err := sess.ReorderScreens(r.Context(), sc.ID, req.TargetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

func (h *Handlers) stepScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, f, err := h.visibleScreen(r, chi.URLParam(r, "id"))
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
		group, err := sess.MoveScreenStep(r.Context(), sc.ID, dir)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	}
}

func (h *Handlers) reparentScreen() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, f, err := h.visibleScreen(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			ParentID string `json:"parent_id"`
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
		moved, err := sess.ReparentScreen(r.Context(), sc.ID, req.ParentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, moved)
	}
}

func (h *Handlers) screenSuggestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, _, err := h.visibleScreen(r, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		flowScreens, err := h.store.ListScreensByFlow(r.Context(), sc.FlowID)
		if err != nil {
			writeError(w, err)
			return
		}
		suggestions := tree.ScreenMoveSuggestions(*sc, flowScreens)
		if suggestions == nil {
			suggestions = []tree.MoveSuggestion{}
		}
		writeJSON(w, http.StatusOK, suggestions)
	}
}

// visibleScreen loads a screen and checks the actor can see the project
// it belongs to, returning the owning flow alongside.
func (h *Handlers) visibleScreen(r *http.Request, id string) (*model.Screen, *model.Flow, error) {
	sc, err := h.store.GetScreen(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	f, err := h.visibleFlow(r, sc.FlowID)
	if err != nil {
		return nil, nil, err
	}
	return sc, f, nil
}

func (h *Handlers) indexScreen(ctx context.Context, projectID string, sc model.Screen) {
	if h.search == nil {
		return
	}
	if err := h.search.IndexScreen(ctx, projectID, sc); err != nil {
		log.Printf("search: indexing screen %s: %v", sc.ID, err)
	}
}
