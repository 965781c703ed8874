// Package server mounts the on-call REST API, the MCP endpoint and health endpoints on one listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/hylla/oncall/internal/adapters/server/common"
	"github.com/hylla/oncall/internal/adapters/server/httpapi"
	"github.com/hylla/oncall/internal/adapters/server/mcpapi"
)

const (
	defaultBindAddress     = "127.0.0.1:8080"
	defaultAPIEndpoint     = "/api/v1"
	defaultMCPEndpoint     = "/mcp"
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
	readinessTimeout       = 2 * time.Second
)

// Config defines serve-mode endpoint configuration.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies are the app-facing adapters behind every route.
// Readiness is optional; when nil, OnCall is used if it implements common.ReadinessChecker.
type Dependencies struct {
	OnCall    common.OnCallReader
	Overrides common.OverrideService
	Readiness common.ReadinessChecker
}

// readiness returns the checker backing /readyz, or nil when none is wired.
func (d Dependencies) readiness() common.ReadinessChecker {
	if d.Readiness != nil {
		return d.Readiness
	}
	if checker, ok := d.OnCall.(common.ReadinessChecker); ok {
		return checker
	}
	return nil
}

// NewHandler builds the root mux and returns the normalized config it was built from.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	if deps.OnCall == nil {
		return nil, Config{}, errors.New("on-call dependency is required")
	}

	mcpHandler, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.OnCall, deps.Overrides)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.OnCall, deps.Overrides))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleLiveness)
	mux.Handle("/readyz", readinessHandler(deps.readiness()))
	mux.Handle(cfg.APIEndpoint, api)
	mux.Handle(cfg.APIEndpoint+"/", api)
	mux.Handle(cfg.MCPEndpoint, mcpHandler)
	return mux, cfg, nil
}

// Run binds cfg.HTTPBind and serves until ctx is cancelled. Bind failures are returned immediately.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	listener, err := net.Listen("tcp", cfg.HTTPBind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPBind, err)
	}
	return serve(ctx, &http.Server{Handler: handler, ReadHeaderTimeout: readHeaderTimeout}, listener)
}

// serve runs srv on listener and drains in-flight requests once ctx is done.
func serve(ctx context.Context, srv *http.Server, listener net.Listener) error {
	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(listener)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve after shutdown: %w", err)
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown server: %w", shutdownErr)
	}
	return nil
}

// healthStatus is the body of /healthz and /readyz.
type healthStatus struct {
	Status string       `json:"status"`
	Error  *healthError `json:"error,omitempty"`
}

// healthError carries the transport error code of a failed readiness check.
type healthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleLiveness answers as long as the process can serve HTTP.
func handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, healthStatus{Status: "ok"})
}

// readinessHandler answers 503 while the rotation cannot be loaded or the store cannot be read.
func readinessHandler(checker common.ReadinessChecker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			writeHealth(w, http.StatusOK, healthStatus{Status: "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := checker.Ready(ctx); err != nil {
			writeHealth(w, http.StatusServiceUnavailable, healthStatus{
				Status: "unavailable",
				Error:  &healthError{Code: common.ErrorCode(err), Message: err.Error()},
			})
			return
		}
		writeHealth(w, http.StatusOK, healthStatus{Status: "ok"})
	})
}

func writeHealth(w http.ResponseWriter, status int, body healthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// normalizeConfig fills defaults and rejects an API mount that shadows the MCP endpoint.
func normalizeConfig(cfg Config) (Config, error) {
	cfg.HTTPBind = firstNonBlank(cfg.HTTPBind, defaultBindAddress)
	cfg.APIEndpoint = normalizeEndpoint(cfg.APIEndpoint, defaultAPIEndpoint)
	cfg.MCPEndpoint = normalizeEndpoint(cfg.MCPEndpoint, defaultMCPEndpoint)
	if cfg.APIEndpoint == cfg.MCPEndpoint {
		return Config{}, fmt.Errorf("api and mcp endpoints must differ, both are %s", cfg.APIEndpoint)
	}
	cfg.ServerName = firstNonBlank(cfg.ServerName, "oncall")
	cfg.ServerVersion = firstNonBlank(cfg.ServerVersion, "dev")
	return cfg, nil
}

// normalizeEndpoint returns a rooted, slash-trimmed mount path; blank or root input yields fallback.
func normalizeEndpoint(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	cleaned := path.Clean("/" + raw)
	if cleaned == "/" {
		return fallback
	}
	return cleaned
}

func firstNonBlank(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
