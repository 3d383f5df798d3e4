package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

const collectionName = "screens"

// Result is one search hit.
type Result struct {
	ScreenID string  `json:"screen_id"`
	Title    string  `json:"title"`
	Snippet  string  `json:"snippet,omitempty"`
	Score    float64 `json:"score"`
}

type document struct {
	projectID string
	title     string
	notes     string
}

// Index searches screens by title and notes. With an embedder it ranks
// by vector similarity through chromem; without one it falls back to
// case-insensitive substring matching, so search always works on a
// fresh install with no API key.
type Index struct {
	mu         sync.RWMutex
	docs       map[string]document
	collection *chromem.Collection
}

// NewIndex creates an index. embedder may be nil.
func NewIndex(embedder Embedder) (*Index, error) {
	idx := &Index{docs: make(map[string]document)}
	if embedder != nil {
		db := chromem.NewDB()
		col, err := db.GetOrCreateCollection(collectionName, nil, toChromemFunc(embedder))
		if err != nil {
			return nil, fmt.Errorf("creating search collection: %w", err)
		}
		idx.collection = col
	}
	return idx, nil
}

// IndexScreen adds or replaces a screen in the index.
func (idx *Index) IndexScreen(ctx context.Context, projectID string, sc model.Screen) error {
	idx.mu.Lock()
	idx.docs[sc.ID] = document{projectID: projectID, title: sc.Label(), notes: sc.Notes}
	idx.mu.Unlock()

	if idx.collection == nil {
		return nil
	}
	content := sc.Label()
	if sc.Notes != "" {
		content += "\n" + sc.Notes
	}
	err := idx.collection.AddDocuments(ctx, []chromem.Document{{
		ID:       sc.ID,
		Content:  content,
		Metadata: map[string]string{"project_id": projectID},
	}}, 1)
	if err != nil {
		return &model.ExternalServiceError{Service: "search index", Err: err}
	}
	return nil
}

// RemoveScreen drops a screen from the index.
func (idx *Index) RemoveScreen(ctx context.Context, screenID string) error {
	idx.mu.Lock()
	delete(idx.docs, screenID)
	idx.mu.Unlock()

	if idx.collection == nil {
		return nil
	}
	if err := idx.collection.Delete(ctx, nil, nil, screenID); err != nil {
		return &model.ExternalServiceError{Service: "search index", Err: err}
	}
	return nil
}

// Search returns up to limit screens of one project matching the query,
// best match first.
func (idx *Index) Search(ctx context.Context, projectID, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	if idx.collection != nil {
		return idx.vectorSearch(ctx, projectID, query, limit)
	}
	return idx.substringSearch(projectID, query, limit), nil
}

func (idx *Index) vectorSearch(ctx context.Context, projectID, query string, limit int) ([]Result, error) {
	// chromem rejects nResults larger than the collection.
	if count := idx.collection.Count(); count == 0 {
		return []Result{}, nil
	} else if limit > count {
		limit = count
	}

	hits, err := idx.collection.Query(ctx, query, limit, map[string]string{"project_id": projectID}, nil)
	if err != nil {
		return nil, &model.ExternalServiceError{Service: "search index", Err: err}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		r := Result{ScreenID: hit.ID, Score: float64(hit.Similarity)}
		if d, ok := idx.docs[hit.ID]; ok {
			r.Title = d.title
			r.Snippet = snippet(d.notes)
		}
		results = append(results, r)
	}
	return results, nil
}

func (idx *Index) substringSearch(projectID, query string, limit int) []Result {
	q := strings.ToLower(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := []Result{}
	for id, d := range idx.docs {
		if d.projectID != projectID {
			continue
		}
		var score float64
		switch {
		case strings.Contains(strings.ToLower(d.title), q):
			score = 1
		case strings.Contains(strings.ToLower(d.notes), q):
			score = 0.5
		default:
			continue
		}
		results = append(results, Result{
			ScreenID: id,
			Title:    d.title,
			Snippet:  snippet(d.notes),
			Score:    score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Title < results[j].Title
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Rebuild replaces the project's index contents from a full screen
// list, used at startup and after a session reload.
func (idx *Index) Rebuild(ctx context.Context, projectID string, screens []model.Screen) error {
	idx.mu.Lock()
	for id, d := range idx.docs {
		if d.projectID == projectID {
			delete(idx.docs, id)
		}
	}
	idx.mu.Unlock()

	for _, sc := range screens {
		if err := idx.IndexScreen(ctx, projectID, sc); err != nil {
			return err
		}
	}
	return nil
}

func snippet(notes string) string {
	const max = 160
	notes = strings.TrimSpace(notes)
	if len(notes) > max {
		return notes[:max] + "..."
	}
	return notes
}
