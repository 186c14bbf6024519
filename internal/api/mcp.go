// Package api exposes the discovery-call data to MCP clients.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/calldash/internal/backend"
	"github.com/kalambet/calldash/internal/discovery"
)

// MCPGateway is the read-only slice of the backend client the tools use.
type MCPGateway interface {
	Industries(ctx context.Context, token string) ([]discovery.Industry, error)
	CompaniesByIndustry(ctx context.Context, token, code string) ([]discovery.Company, error)
	CallsByCompany(ctx context.Context, token, companyID string) ([]discovery.Call, error)
	CallsByIndustry(ctx context.Context, token, code string) ([]discovery.Call, error)
	GetCall(ctx context.Context, token, callID string) (*discovery.Call, error)
}

var _ MCPGateway = (*backend.Client)(nil)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Gateway MCPGateway
	// Token is the service token sent with every backend request. When
	// empty every tool fails without contacting the backend.
	Token   string
	Version string
}

const tokenHint = "no backend token configured; set CALLDASH_BACKEND_TOKEN"

// NewMCPServer creates an MCP server with the calldash tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"calldash",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("calldash: read-only access to discovery calls, the companies they were held with and per-industry analytics."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_industries",
			mcp.WithDescription("List the industries discovery calls are grouped by."),
		),
		mcpListIndustries(deps),
	)

	s.AddTool(
		mcp.NewTool("list_companies",
			mcp.WithDescription("List the companies in one industry."),
			mcp.WithString("industry", mcp.Description("Industry code, e.g. HEALTHCARE"), mcp.Required()),
		),
		mcpListCompanies(deps),
	)

	s.AddTool(
		mcp.NewTool("list_calls",
			mcp.WithDescription("List the discovery calls held with one company."),
			mcp.WithString("company_id", mcp.Description("Company id"), mcp.Required()),
		),
		mcpListCalls(deps),
	)

	s.AddTool(
		mcp.NewTool("get_call",
			mcp.WithDescription("Fetch one discovery call with its problems, solutions and takeaways."),
			mcp.WithString("call_id", mcp.Description("Call id"), mcp.Required()),
		),
		mcpGetCall(deps),
	)

	s.AddTool(
		mcp.NewTool("sector_analytics",
			mcp.WithDescription("Sub-industry distribution and common problem categories for one industry."),
			mcp.WithString("industry", mcp.Description("Industry code, e.g. HEALTHCARE"), mcp.Required()),
		),
		mcpSectorAnalytics(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"calldash://industries",
			"Industries",
			mcp.WithResourceDescription("Industries as JSON, or the default list when the backend is unreachable"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceIndustries(deps),
	)

	return s
}

func mcpListIndustries(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Token == "" {
			return mcpError(tokenHint), nil
		}
		industries, err := deps.Gateway.Industries(ctx, deps.Token)
		if err != nil {
			return mcpFailure("list_industries", err), nil
		}
		return mcpJSON(nonNil(industries))
	}
}

func mcpListCompanies(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("industry")
		if err != nil || code == "" {
			return mcpError("industry is required"), nil
		}
		if deps.Token == "" {
			return mcpError(tokenHint), nil
		}
		companies, err := deps.Gateway.CompaniesByIndustry(ctx, deps.Token, code)
		if err != nil {
			return mcpFailure("list_companies", err), nil
		}
		return mcpJSON(nonNil(companies))
	}
}

func mcpListCalls(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("company_id")
		if err != nil || id == "" {
			return mcpError("company_id is required"), nil
		}
		if deps.Token == "" {
			return mcpError(tokenHint), nil
		}
		calls, err := deps.Gateway.CallsByCompany(ctx, deps.Token, id)
		if err != nil {
			return mcpFailure("list_calls", err), nil
		}
		return mcpJSON(nonNil(calls))
	}
}

func mcpGetCall(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("call_id")
		if err != nil || id == "" {
			return mcpError("call_id is required"), nil
		}
		if deps.Token == "" {
			return mcpError(tokenHint), nil
		}
		call, err := deps.Gateway.GetCall(ctx, deps.Token, id)
		if err != nil {
			return mcpFailure("get_call", err), nil
		}
		if call == nil {
			return mcpError(fmt.Sprintf("call %s not found", id)), nil
		}
		return mcpJSON(call)
	}
}

// mcpSectorAnalytics mirrors the sector page: a failed calls request only
// drops the problem breakdown.
func mcpSectorAnalytics(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("industry")
		if err != nil || code == "" {
			return mcpError("industry is required"), nil
		}
		if deps.Token == "" {
			return mcpError(tokenHint), nil
		}
		companies, err := deps.Gateway.CompaniesByIndustry(ctx, deps.Token, code)
		if err != nil {
			return mcpFailure("sector_analytics", err), nil
		}
		calls, err := deps.Gateway.CallsByIndustry(ctx, deps.Token, code)
		if err != nil {
			slog.Warn("sector analytics without calls", "industry", code, "error", err)
			calls = nil
		}
		return mcpJSON(discovery.AnalyzeSector(companies, calls))
	}
}

func mcpResourceIndustries(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		industries := discovery.FallbackIndustries()
		if deps.Token != "" {
			got, err := deps.Gateway.Industries(ctx, deps.Token)
			if err != nil {
				slog.Warn("industries resource using defaults", "error", err)
			} else {
				industries = nonNil(got)
			}
		}

		b, err := json.Marshal(industries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal industries: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

// mcpFailure reports err with the same wording the dashboard would show.
func mcpFailure(tool string, err error) *mcp.CallToolResult {
	slog.Warn("mcp tool failed", "tool", tool, "error", err)
	return mcpError(backend.UserMessage(err))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
