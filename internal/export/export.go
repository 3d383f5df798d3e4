// Package export renders a project as a standalone HTML document:
// flows in hierarchical order, each with its screen tree, notes
// rendered from markdown.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

// Exporter converts project data into the static document.
type Exporter struct {
	md goldmark.Markdown
}

func NewExporter() *Exporter {
	return &Exporter{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
}

// flowSection is one flow ready for the template: depth for
// indentation, screens flattened in tree order.
type flowSection struct {
	Flow    model.Flow
	Depth   int
	Branch  bool
	Screens []screenEntry
}

type screenEntry struct {
	Screen model.Screen
	Notes  template.HTML
}

type documentData struct {
	Project model.Project
	Flows   []flowSection
	CSS     template.CSS
}

// Render produces the HTML document for a project.
func (e *Exporter) Render(data *store.ProjectData) ([]byte, error) {
	sections, err := e.buildSections(data)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("document").Parse(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing export template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, documentData{
		Project: data.Project,
		Flows:   sections,
		CSS:     template.CSS(cssContent),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering export: %w", err)
	}
	return buf.Bytes(), nil
}

// Export writes the document to dir/index.html.
func (e *Exporter) Export(data *store.ProjectData, dir string) (string, error) {
	out, err := e.Render(data)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

func (e *Exporter) buildSections(data *store.ProjectData) ([]flowSection, error) {
	screens := data.ScreensByFlow()
	depths := flowDepths(data.Flows)

	sorted := tree.SortFlowsHierarchically(data.Flows)
	sections := make([]flowSection, 0, len(sorted))
	for _, f := range sorted {
		forest := tree.BuildScreenTree(screens[f.ID])
		tree.SortTree(forest)

		var entries []screenEntry
		for _, sc := range tree.Flatten(forest) {
			notes, err := e.renderNotes(sc.Notes)
			if err != nil {
				return nil, fmt.Errorf("rendering notes for screen %s: %w", sc.ID, err)
			}
			entries = append(entries, screenEntry{Screen: sc, Notes: notes})
		}

		_, branch := f.Parent.ScreenID()
		sections = append(sections, flowSection{
			Flow:    f,
			Depth:   depths[f.ID],
			Branch:  branch,
			Screens: entries,
		})
	}
	return sections, nil
}

func (e *Exporter) renderNotes(notes string) (template.HTML, error) {
	if strings.TrimSpace(notes) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(notes), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// flowDepths computes each flow's nesting depth over parent_flow_id
// edges. Branch flows restart at depth 1 under their screen's flow.
func flowDepths(flows []model.Flow) map[string]int {
	byID := make(map[string]model.Flow, len(flows))
	for _, f := range flows {
		byID[f.ID] = f
	}
	depths := make(map[string]int, len(flows))

	var depth func(id string, seen map[string]bool) int
	depth = func(id string, seen map[string]bool) int {
		if d, ok := depths[id]; ok {
			return d
		}
		f, ok := byID[id]
		if !ok || seen[id] {
			return 0
		}
		seen[id] = true
		d := 0
		if pid, ok := f.Parent.FlowID(); ok {
			d = depth(pid, seen) + 1
		} else if _, ok := f.Parent.ScreenID(); ok {
			d = 1
		}
		depths[id] = d
		return d
	}
	for _, f := range flows {
		depth(f.ID, map[string]bool{})
	}
	return depths
}
