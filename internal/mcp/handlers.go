package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/search"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/tree"
)

// handleListProjects returns every project visible to the local actor.
func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects(ctx, s.actor)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing projects failed: %v", err)), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects yet. Create one in the web UI or with `flowdeck import`."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d project(s):\n", len(projects)))
	for _, p := range projects {
		sb.WriteString(fmt.Sprintf("\n%s (id: %s)\n", p.Name, p.ID))
		if p.Description != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", p.Description))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetFlowTree renders a project's full hierarchy as an indented
// outline.
func (s *Server) handleGetFlowTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}

	data, err := s.store.LoadProject(ctx, s.actor, projectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no project with id %q", projectID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("loading project failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatFlowTree(data)), nil
}

// handleSearchScreens searches one project's screens.
func (s *Server) handleSearchScreens(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	if s.index == nil {
		return mcp.NewToolResultError("search is not available on this server"), nil
	}
	if _, err := s.store.GetProject(ctx, s.actor, projectID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no project with id %q", projectID)), nil
	}

	results, err := s.index.Search(ctx, projectID, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching screens."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleGetScreen returns one screen's details.
func (s *Server) handleGetScreen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	screenID, err := request.RequireString("screen_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: screen_id"), nil
	}

	sc, err := s.store.GetScreen(ctx, screenID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no screen with id %q", screenID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("loading screen failed: %v", err)), nil
	}
	flow, err := s.store.GetFlow(ctx, sc.FlowID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading flow failed: %v", err)), nil
	}
	if _, err := s.store.GetProject(ctx, s.actor, flow.ProjectID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no screen with id %q", screenID)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (id: %s)\n", sc.Label(), sc.ID))
	sb.WriteString(fmt.Sprintf("Flow: %s (id: %s)\n", flow.Name, flow.ID))
	sb.WriteString(fmt.Sprintf("Title: %s\n", sc.Title))
	if sc.DisplayName != "" {
		sb.WriteString(fmt.Sprintf("Display name: %s\n", sc.DisplayName))
	}
	if sc.ParentID != "" {
		sb.WriteString(fmt.Sprintf("Variant of: %s (depth %d)\n", sc.ParentID, sc.Level))
	}
	if sc.ScreenshotURL != "" {
		sb.WriteString(fmt.Sprintf("Screenshot: %s\n", sc.ScreenshotURL))
	}
	if strings.TrimSpace(sc.Notes) != "" {
		sb.WriteString("\n")
		sb.WriteString(sc.Notes)
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatFlowTree renders the hierarchy as an indented outline: flows
// with their nested flows, each flow's screen variant tree, and branch
// flows under the screens they start from.
func formatFlowTree(data *store.ProjectData) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (id: %s)\n", data.Project.Name, data.Project.ID))

	p := tree.PartitionFlows(data.Flows)
	screens := data.ScreensByFlow()

	var writeFlow func(f model.Flow, indent string)
	var writeScreens func(nodes []*tree.ScreenNode, indent string)

	writeScreens = func(nodes []*tree.ScreenNode, indent string) {
		for _, n := range nodes {
			sb.WriteString(fmt.Sprintf("%s- [screen] %s (id: %s)\n", indent, n.Label(), n.ID))
			for _, branch := range p.ByParentScreen[n.ID] {
				writeFlow(branch, indent+"  ")
			}
			writeScreens(n.Children, indent+"  ")
		}
	}

	writeFlow = func(f model.Flow, indent string) {
		kind := "flow"
		if _, ok := f.Parent.ScreenID(); ok {
			kind = "branch"
		}
		sb.WriteString(fmt.Sprintf("%s- [%s] %s (id: %s, screens: %d)\n", indent, kind, f.Name, f.ID, f.ScreenCount))

		forest := tree.BuildScreenTree(screens[f.ID])
		tree.SortTree(forest)
		writeScreens(forest, indent+"  ")

		for _, child := range p.ByParentFlow[f.ID] {
			writeFlow(child, indent+"  ")
		}
	}

	for _, f := range p.TopLevel {
		writeFlow(f, "")
	}
	return sb.String()
}

// formatSearchResults converts search hits into a text block for agent
// consumption.
func formatSearchResults(results []search.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d screen(s):\n", len(results)))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n%d. %s (id: %s, score %.2f)\n", i+1, r.Title, r.ScreenID, r.Score))
		if r.Snippet != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", r.Snippet))
		}
	}
	return sb.String()
}
