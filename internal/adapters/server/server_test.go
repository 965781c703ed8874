package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hylla/oncall/internal/adapters/server/common"
	"github.com/hylla/oncall/internal/app"
	"github.com/hylla/oncall/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// newTestDependencies wires a real service over a static weekly rotation.
func newTestDependencies(t *testing.T) Dependencies {
	t.Helper()
	cfg, err := domain.NewRotationConfig([]string{"Alice", "Bob", "Carol"}, domain.NewDate(2025, time.August, 25), 7)
	if err != nil {
		t.Fatalf("NewRotationConfig() error = %v", err)
	}
	return dependenciesFor(app.StaticRotation(app.Rotation{Config: cfg, Source: "none"}, nil))
}

// dependenciesFor wires a real service over one rotation provider.
func dependenciesFor(rotation app.RotationProvider) Dependencies {
	svc := app.NewService(nil, rotation, nil, nil, app.ServiceConfig{Version: "0.3.0"})
	return Dependencies{OnCall: common.NewAppServiceAdapter(svc)}
}

// getHealth issues one GET and decodes the health body.
func getHealth(t *testing.T, handler http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("%s: Decode() error = %v", path, err)
	}
	return rec.Code, body
}

// TestNewHandlerRoutes verifies health, API and MCP mounts.
func TestNewHandlerRoutes(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, newTestDependencies(t))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress || cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		code, body := getHealth(t, handler, path)
		if code != http.StatusOK || body["status"] != "ok" {
			t.Fatalf("%s = %d %#v, want 200 ok", path, code, body)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/oncall?date=2025-09-03", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("oncall status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var assignment map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&assignment); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if assignment["engineer"] != "Bob" {
		t.Fatalf("engineer = %#v, want Bob", assignment["engineer"])
	}

	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo":      map[string]any{"name": "oncall-test", "version": "1.0.0"},
		},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mcp status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// TestReadinessReflectsRotation verifies /readyz fails while the rotation cannot load and /healthz stays up.
func TestReadinessReflectsRotation(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "invalid config", err: fmt.Errorf("%w: parse config.toml: bad key", domain.ErrInvalidConfig), wantCode: "invalid_config"},
		{name: "empty roster", err: fmt.Errorf("%w: %w", domain.ErrInvalidConfig, domain.ErrEmptyRoster), wantCode: "invalid_config"},
		{name: "unreadable source", err: errors.New("config file unreadable"), wantCode: "service_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _, err := NewHandler(Config{}, dependenciesFor(app.StaticRotation(app.Rotation{}, tc.err)))
			if err != nil {
				t.Fatalf("NewHandler() error = %v", err)
			}
			code, body := getHealth(t, handler, "/readyz")
			if code != http.StatusServiceUnavailable || body["status"] != "unavailable" {
				t.Fatalf("/readyz = %d %#v, want 503 unavailable", code, body)
			}
			healthErr, ok := body["error"].(map[string]any)
			if !ok || healthErr["code"] != tc.wantCode {
				t.Fatalf("/readyz error = %#v, want code %q", body["error"], tc.wantCode)
			}
			if code, _ := getHealth(t, handler, "/healthz"); code != http.StatusOK {
				t.Fatalf("/healthz status = %d while not ready, want 200", code)
			}
		})
	}
}

// TestReadinessRecoversWhenRotationLoads verifies the provider is consulted on every request.
func TestReadinessRecoversWhenRotationLoads(t *testing.T) {
	cfg, err := domain.NewRotationConfig([]string{"Alice", "Bob"}, domain.NewDate(2025, time.August, 25), 7)
	if err != nil {
		t.Fatalf("NewRotationConfig() error = %v", err)
	}
	broken := true
	provider := func() (app.Rotation, error) {
		if broken {
			return app.Rotation{}, fmt.Errorf("%w: missing start_date", domain.ErrInvalidConfig)
		}
		return app.Rotation{Config: cfg}, nil
	}
	handler, _, err := NewHandler(Config{}, dependenciesFor(provider))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if code, _ := getHealth(t, handler, "/readyz"); code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz status = %d, want 503", code)
	}
	broken = false
	if code, body := getHealth(t, handler, "/readyz"); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("/readyz = %d %#v, want 200 ok", code, body)
	}
}

// stubReadiness overrides the readiness source.
type stubReadiness struct{ err error }

func (s stubReadiness) Ready(context.Context) error { return s.err }

// TestExplicitReadinessWins verifies Dependencies.Readiness takes precedence over the on-call reader.
func TestExplicitReadinessWins(t *testing.T) {
	deps := newTestDependencies(t)
	deps.Readiness = stubReadiness{err: fmt.Errorf("store: %w", common.ErrUnavailable)}
	handler, _, err := NewHandler(Config{}, deps)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	code, body := getHealth(t, handler, "/readyz")
	healthErr, _ := body["error"].(map[string]any)
	if code != http.StatusServiceUnavailable || healthErr["code"] != "service_unavailable" {
		t.Fatalf("/readyz = %d %#v, want 503 service_unavailable", code, body)
	}
}

// TestNewHandlerValidation verifies dependency and endpoint checks.
func TestNewHandlerValidation(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected error for missing on-call dependency")
	}
	if _, _, err := NewHandler(Config{APIEndpoint: "/x", MCPEndpoint: "x/"}, newTestDependencies(t)); err == nil {
		t.Fatal("expected error for colliding endpoints")
	}
}

// TestNormalizeEndpoint verifies endpoint shaping.
func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":          "/api/v1",
		"/":         "/api/v1",
		"api/v2":    "/api/v2",
		"/api/v2//": "/api/v2",
		" /rest ":   "/rest",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/api/v1"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRunReportsBindFailure verifies an occupied address fails fast.
func TestRunReportsBindFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = occupied.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = Run(ctx, Config{HTTPBind: occupied.Addr().String()}, newTestDependencies(t))
	if err == nil || ctx.Err() != nil {
		t.Fatalf("Run() = %v, want immediate listen error", err)
	}
}

// TestRunStopsOnContextCancel verifies graceful shutdown.
func TestRunStopsOnContextCancel(t *testing.T) {
	deps := newTestDependencies(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, deps)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
