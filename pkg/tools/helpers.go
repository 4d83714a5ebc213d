// Package tools registers the EODHD tool set on an MCP server. Each tool maps
// near 1:1 to one upstream REST endpoint: arguments become query parameters
// and the provider's JSON response is passed through unchanged.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

// Deps carries what every tool handler needs.
type Deps struct {
	Client *eodhd.Client
	WSBase string
	Logger zerolog.Logger
}

// errResult reports a validation or upstream failure as an {"error": ...}
// payload in the tool result, mirroring the upstream error shape. Failures
// surface to the caller, never as protocol errors.
func errResult(format string, args ...interface{}) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, args...)
	out, _ := json.MarshalIndent(map[string]string{"error": msg}, "", "  ")
	return mcp.NewToolResultText(string(out))
}

// fetch performs the upstream GET and converts the outcome into a tool result.
// fmtParam controls wrapping: csv and xml bodies are embedded in a JSON object
// so every tool consistently returns a JSON string.
func (d Deps) fetch(ctx context.Context, path string, query url.Values, fmtParam string) *mcp.CallToolResult {
	body, err := d.Client.Get(ctx, path, query)
	if err != nil {
		return errResult("%s", err.Error())
	}
	switch fmtParam {
	case "csv", "xml":
		out, merr := json.MarshalIndent(map[string]string{fmtParam: string(body)}, "", "  ")
		if merr != nil {
			return errResult("unexpected response format from API")
		}
		return mcp.NewToolResultText(string(out))
	default:
		return mcp.NewToolResultText(string(body))
	}
}

// applyTokenOverride copies a per-call api_token argument into the query.
func applyTokenOverride(req mcp.CallToolRequest, query url.Values) {
	if token := req.GetString("api_token", ""); token != "" {
		query.Set("api_token", token)
	}
}

// validateDateRange checks optional YYYY-MM-DD bounds and their ordering.
// Field names appear in the error so the caller knows which argument to fix.
func validateDateRange(from, to, fromField, toField string) *mcp.CallToolResult {
	if from != "" && !eodhd.ValidDate(from) {
		return errResult("'%s' must be YYYY-MM-DD when provided.", fromField)
	}
	if to != "" && !eodhd.ValidDate(to) {
		return errResult("'%s' must be YYYY-MM-DD when provided.", toField)
	}
	if from != "" && to != "" && eodhd.DateAfter(from, to) {
		return errResult("'%s' cannot be after '%s'.", fromField, toField)
	}
	return nil
}

func contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
