// Package importer bulk-creates screens from a directory of
// screenshots. Each top-level subdirectory becomes a flow; files at the
// root go into one catch-all flow. File order within a directory
// determines screen order.
package importer

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/progress"
	"github.com/flowdeckhq/flowdeck/internal/storage"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/vision"
)

// Options controls one import run.
type Options struct {
	Dir     string
	Include []string
	Exclude []string
	// Analyze runs the vision provider on each screenshot to name the
	// screen. Without it titles come from filenames.
	Analyze bool
}

// Summary reports what an import created.
type Summary struct {
	Flows   int
	Screens int
	Skipped int
}

// Importer wires the pieces an import needs.
type Importer struct {
	store    *store.Store
	files    storage.Store
	analyzer vision.Provider
	reporter progress.Reporter
}

func New(st *store.Store, files storage.Store, analyzer vision.Provider, reporter progress.Reporter) *Importer {
	if reporter == nil {
		reporter = progress.Silent{}
	}
	return &Importer{store: st, files: files, analyzer: analyzer, reporter: reporter}
}

// Run imports every matching screenshot under opts.Dir into the
// project. A file that fails to upload is skipped and counted, not
// fatal; a canceled context stops the run.
func (i *Importer) Run(ctx context.Context, actor model.Actor, projectID string, opts Options) (*Summary, error) {
	if _, err := i.store.GetProject(ctx, actor, projectID); err != nil {
		return nil, err
	}

	matches, err := scan(opts)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &Summary{}, nil
	}

	groups := groupByDirectory(matches)
	summary := &Summary{}
	i.reporter.Start(len(matches), "Importing screenshots")
	defer i.reporter.Finish()

	done := 0
	for _, g := range groups {
		flow := &model.Flow{ProjectID: projectID, Name: g.name, Parent: model.TopLevel()}
		if err := i.store.CreateFlow(ctx, flow); err != nil {
			return summary, fmt.Errorf("creating flow %q: %w", g.name, err)
		}
		summary.Flows++

		for _, rel := range g.files {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			done++
			i.reporter.Update(done, rel)

			if err := i.importFile(ctx, flow.ID, opts.Dir, rel, opts.Analyze); err != nil {
				log.Printf("import: skipping %s: %v", rel, err)
				summary.Skipped++
				continue
			}
			summary.Screens++
		}
	}
	return summary, nil
}

func (i *Importer) importFile(ctx context.Context, flowID, dir, rel string, analyze bool) error {
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(path.Ext(rel))
	url, err := i.files.Upload(ctx, rel, contentType, f)
	if err != nil {
		return err
	}

	sc := &model.Screen{
		FlowID:        flowID,
		Title:         vision.TitleFromFilename(rel),
		ScreenshotURL: url,
	}
	if analyze && i.analyzer != nil {
		if a, err := i.analyzer.AnalyzeScreenshot(ctx, url, rel); err != nil {
			log.Printf("import: analysis failed for %s, keeping filename title: %v", rel, err)
		} else {
			sc.DisplayName = a.Title
			sc.Notes = a.Description
		}
	}
	return i.store.CreateScreen(ctx, sc)
}

// scan returns the files under opts.Dir matching the include patterns
// and not matching any exclude pattern, as sorted slash paths relative
// to the directory.
func scan(opts Options) ([]string, error) {
	fsys := os.DirFS(opts.Dir)
	seen := map[string]bool{}
	var matches []string

	for _, pattern := range opts.Include {
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad include pattern %q: %w", pattern, err)
		}
		for _, rel := range found {
			if seen[rel] || excluded(rel, opts.Exclude) {
				continue
			}
			seen[rel] = true
			matches = append(matches, rel)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

type dirGroup struct {
	name  string
	files []string
}

// groupByDirectory buckets files by their top-level directory, in
// directory name order. Root-level files form the "Imported" group.
func groupByDirectory(matches []string) []dirGroup {
	byDir := map[string][]string{}
	for _, rel := range matches {
		dir := "Imported"
		if i := strings.IndexByte(rel, '/'); i > 0 {
			dir = rel[:i]
		}
		byDir[dir] = append(byDir[dir], rel)
	}

	names := make([]string, 0, len(byDir))
	for name := range byDir {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]dirGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, dirGroup{name: flowName(name), files: byDir[name]})
	}
	return groups
}

// flowName turns a directory name like "01_sign-up" into "Sign Up".
func flowName(dir string) string {
	name := strings.TrimLeft(dir, "0123456789_- ")
	if name == "" {
		name = dir
	}
	return vision.TitleFromFilename(name)
}
