// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/oncall/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	oncall    common.OnCallReader
	overrides common.OverrideService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter from the on-call reader and optional override service.
func NewHandler(oncall common.OnCallReader, overrides common.OverrideService) *Handler {
	return &Handler{
		oncall:    oncall,
		overrides: overrides,
	}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	switch path {
	case "oncall":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleOnCall(w, r)
	case "schedule":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleSchedule(w, r)
	case "version":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleVersion(w, r)
	case "overrides":
		switch r.Method {
		case http.MethodGet:
			h.handleListOverrides(w, r)
		case http.MethodPost:
			h.handleAddOverride(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	default:
		overrideID, ok := resolveOverrideID(path)
		if !ok {
			writeJSONError(w, http.StatusNotFound, APIError{
				Code:    "not_found",
				Message: "endpoint not found",
			})
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGetOverride(w, r, overrideID)
		case http.MethodDelete:
			h.handleRemoveOverride(w, r, overrideID)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
	}
}

// handleOnCall serves GET `/oncall`.
func (h *Handler) handleOnCall(w http.ResponseWriter, r *http.Request) {
	if !h.requireReader(w) {
		return
	}
	query := r.URL.Query()
	assignment, err := h.oncall.WhoIsOnCall(r.Context(), common.OnCallRequest{
		Date:      query.Get("date"),
		Overrides: query.Get("overrides"),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// handleSchedule serves GET `/schedule`.
func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if !h.requireReader(w) {
		return
	}
	query := r.URL.Query()
	days := 0
	if raw := strings.TrimSpace(query.Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: fmt.Sprintf("invalid days %q: expected an integer", raw),
			})
			return
		}
		days = parsed
	}
	schedule, err := h.oncall.Schedule(r.Context(), common.ScheduleRequest{
		From:      query.Get("from"),
		Days:      days,
		Overrides: query.Get("overrides"),
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// handleVersion serves GET `/version`.
func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !h.requireReader(w) {
		return
	}
	info, err := h.oncall.Version(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleListOverrides serves GET `/overrides`.
func (h *Handler) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	if !h.requireOverrides(w) {
		return
	}
	listing, err := h.overrides.ListOverrides(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// handleAddOverride serves POST `/overrides`.
func (h *Handler) handleAddOverride(w http.ResponseWriter, r *http.Request) {
	if !h.requireOverrides(w) {
		return
	}
	var req common.AddOverrideRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	record, err := h.overrides.AddOverride(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// handleGetOverride serves GET `/overrides/{id}`.
func (h *Handler) handleGetOverride(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireOverrides(w) {
		return
	}
	record, err := h.overrides.GetOverride(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleRemoveOverride serves DELETE `/overrides/{id}`.
func (h *Handler) handleRemoveOverride(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireOverrides(w) {
		return
	}
	if err := h.overrides.RemoveOverride(r.Context(), id); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireReader writes a 503 when no on-call reader is configured.
func (h *Handler) requireReader(w http.ResponseWriter) bool {
	if h.oncall != nil {
		return true
	}
	writeJSONError(w, http.StatusServiceUnavailable, APIError{
		Code:    "service_unavailable",
		Message: "on-call service is not configured",
	})
	return false
}

// requireOverrides writes a 501 when stored overrides are unavailable.
func (h *Handler) requireOverrides(w http.ResponseWriter) bool {
	if h.overrides != nil {
		return true
	}
	writeJSONError(w, http.StatusNotImplemented, APIError{
		Code:    "not_implemented",
		Message: "override APIs are not available",
	})
	return false
}

// resolveOverrideID parses `/overrides/{id}` and returns `{id}`.
func resolveOverrideID(path string) (string, bool) {
	const prefix = "overrides/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(path, prefix))
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	if err == nil {
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
		return
	}
	code := common.ErrorCode(err)
	apiErr := APIError{Code: code, Message: err.Error()}
	status := http.StatusInternalServerError
	switch code {
	case "invalid_config":
		status = http.StatusUnprocessableEntity
		apiErr.Hint = "Check the [rotation] section of the config file or ONCALL_ROTATION_CONFIG."
	case "invalid_request":
		status = http.StatusBadRequest
	case "not_found":
		status = http.StatusNotFound
	case "conflict":
		status = http.StatusConflict
	case "service_unavailable":
		status = http.StatusServiceUnavailable
	}
	writeJSONError(w, status, apiErr)
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w: %w", common.ErrInvalidRequest, err)
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
