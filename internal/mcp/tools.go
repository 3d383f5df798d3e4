package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listProjectsTool defines the list_projects MCP tool.
var listProjectsTool = mcp.NewTool("list_projects",
	mcp.WithDescription("List all screenshot projects with their IDs, names, and descriptions."),
)

// getFlowTreeTool defines the get_flow_tree MCP tool.
var getFlowTreeTool = mcp.NewTool("get_flow_tree",
	mcp.WithDescription("Get the full flow and screen hierarchy of a project as an indented outline. Shows flow nesting, branch flows, and screen variant trees."),
	mcp.WithString("project_id",
		mcp.Required(),
		mcp.Description("ID of the project to inspect"),
	),
)

// searchScreensTool defines the search_screens MCP tool.
var searchScreensTool = mcp.NewTool("search_screens",
	mcp.WithDescription("Search a project's screens by title and notes. Uses semantic search when embeddings are configured, substring matching otherwise."),
	mcp.WithString("project_id",
		mcp.Required(),
		mcp.Description("ID of the project to search in"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
)

// getScreenTool defines the get_screen MCP tool.
var getScreenTool = mcp.NewTool("get_screen",
	mcp.WithDescription("Get one screen's full details: title, display name, notes, screenshot URL, and position in its flow."),
	mcp.WithString("screen_id",
		mcp.Required(),
		mcp.Description("ID of the screen"),
	),
)
