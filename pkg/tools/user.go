package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func userDetailsTool() mcp.Tool {
	return mcp.NewTool("get_user_details",
		mcp.WithDescription("Account details for the active API token: name, plan, request quota and usage."),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleUserDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/user", q, "json"), nil
}
