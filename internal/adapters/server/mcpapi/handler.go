// Package mcpapi exposes the on-call service as MCP tools over streamable HTTP or stdio.
package mcpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hylla/oncall/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewServer builds the MCP server with on-call tools and, when overrides is non-nil, the override listing tool.
func NewServer(cfg Config, oncall common.OnCallReader, overrides common.OverrideService) (*mcpserver.MCPServer, error) {
	if oncall == nil {
		return nil, fmt.Errorf("on-call service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerOnCallTool(mcpSrv, oncall)
	registerScheduleTool(mcpSrv, oncall)
	registerVersionTool(mcpSrv, oncall)
	if overrides != nil {
		registerOverrideTools(mcpSrv, overrides)
	}
	return mcpSrv, nil
}

// NewHandler builds one stateless MCP adapter for HTTP serving.
func NewHandler(cfg Config, oncall common.OnCallReader, overrides common.OverrideService) (*Handler, error) {
	mcpSrv, err := NewServer(cfg, oncall, overrides)
	if err != nil {
		return nil, err
	}
	cfg = normalizeConfig(cfg)
	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// ServeStdio runs the MCP server over line-delimited JSON-RPC on in/out until ctx ends or in closes.
func ServeStdio(ctx context.Context, cfg Config, oncall common.OnCallReader, overrides common.OverrideService, in io.Reader, out io.Writer) error {
	mcpSrv, err := NewServer(cfg, oncall, overrides)
	if err != nil {
		return err
	}
	if err := mcpserver.NewStdioServer(mcpSrv).Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve mcp stdio: %w", err)
	}
	return nil
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "oncall"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerOnCallTool registers the `get_oncall` tool.
func registerOnCallTool(srv *mcpserver.MCPServer, oncall common.OnCallReader) {
	srv.AddTool(
		mcp.NewTool(
			"get_oncall",
			mcp.WithDescription("Get engineer on duty for a given date (YYYY-MM-DD). Optional overrides string: 'Engineer A:YYYY-MM-DD,Engineer B:YYYY-MM-DD'."),
			mcp.WithString("date", mcp.Description("Target date YYYY-MM-DD (defaults to today)")),
			mcp.WithString("overrides", mcp.Description("Ad-hoc overrides 'Name:YYYY-MM-DD,...'")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			assignment, err := oncall.WhoIsOnCall(ctx, common.OnCallRequest{
				Date:      req.GetString("date", ""),
				Overrides: req.GetString("overrides", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(assignment)
			if err != nil {
				return nil, fmt.Errorf("encode get_oncall result: %w", err)
			}
			return result, nil
		},
	)
}

// registerScheduleTool registers the `list_schedule` tool.
func registerScheduleTool(srv *mcpserver.MCPServer, oncall common.OnCallReader) {
	srv.AddTool(
		mcp.NewTool(
			"list_schedule",
			mcp.WithDescription("List the engineer on duty for each day of a date range."),
			mcp.WithString("from", mcp.Description("First date YYYY-MM-DD (defaults to today)")),
			mcp.WithNumber("days", mcp.Description("Number of days to list (default 14, max 366)")),
			mcp.WithString("overrides", mcp.Description("Ad-hoc overrides 'Name:YYYY-MM-DD,...'")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			schedule, err := oncall.Schedule(ctx, common.ScheduleRequest{
				From:      req.GetString("from", ""),
				Days:      req.GetInt("days", 0),
				Overrides: req.GetString("overrides", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(schedule)
			if err != nil {
				return nil, fmt.Errorf("encode list_schedule result: %w", err)
			}
			return result, nil
		},
	)
}

// registerVersionTool registers the `show_version` tool.
func registerVersionTool(srv *mcpserver.MCPServer, oncall common.OnCallReader) {
	srv.AddTool(
		mcp.NewTool(
			"show_version",
			mcp.WithDescription("Show the current MCP version and the full changelog as structured JSON."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			info, err := oncall.Version(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(info)
			if err != nil {
				return nil, fmt.Errorf("encode show_version result: %w", err)
			}
			return result, nil
		},
	)
}

// registerOverrideTools registers the `list_overrides` tool.
func registerOverrideTools(srv *mcpserver.MCPServer, overrides common.OverrideService) {
	srv.AddTool(
		mcp.NewTool(
			"list_overrides",
			mcp.WithDescription("List configured and stored persistent overrides in precedence order."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			listing, err := overrides.ListOverrides(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(listing)
			if err != nil {
				return nil, fmt.Errorf("encode list_overrides result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError converts adapter errors into code-prefixed tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultError("unknown error")
	}
	return mcp.NewToolResultError(common.ErrorCode(err) + ": " + err.Error())
}
