// Package httphandler is the HTTP driving adapter serving the REST API.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mwarner/repodash/internal/application"
	"github.com/mwarner/repodash/internal/domain/model"
)

// Handler serves the dashboard REST API.
type Handler struct {
	statusSvc *application.StatusService
	tokens    *application.TokenManager
	timeout   time.Duration
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. timeout bounds
// a single aggregation pass end to end.
func NewHandler(statusSvc *application.StatusService, tokens *application.TokenManager, timeout time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		statusSvc: statusSvc,
		tokens:    tokens,
		timeout:   timeout,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/repos", h.GetRepos)
	mux.HandleFunc("GET /api/token", h.GetTokenStatus)
	mux.HandleFunc("POST /api/token", h.UpdateToken)
	mux.HandleFunc("GET /api/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// GetRepos aggregates repository status for the requested username.
// Credential precedence: explicit token query parameter, then the
// environment token when enabled, then anonymous.
func (h *Handler) GetRepos(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeErrorKind(w, http.StatusBadRequest, model.KindInvalidInput, "username is required")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = h.tokens.Token()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	statuses, rateLimit, err := h.statusSvc.Aggregate(ctx, username, token)
	if err != nil {
		h.writeAggregateError(w, username, err)
		return
	}

	repos := make([]RepoStatusResponse, 0, len(statuses))
	for _, status := range statuses {
		repos = append(repos, toRepoStatusResponse(status))
	}

	writeJSON(w, http.StatusOK, ReposResponse{
		Repos:     repos,
		RateLimit: toRateLimitResponse(rateLimit),
	})
}

// writeAggregateError maps an aggregation failure to a user-facing response.
// Invalid credentials get their own status so the UI can prompt for a new
// token; every other kind is a generic failure whose kind field still lets
// the UI distinguish "try again later" from "something broke".
func (h *Handler) writeAggregateError(w http.ResponseWriter, username string, err error) {
	kind := model.KindOf(err)

	h.logger.Error("aggregation failed",
		"username", username,
		"kind", string(kind),
		"error", err,
	)

	switch kind {
	case model.KindInvalidCredential:
		writeErrorKind(w, http.StatusUnauthorized, kind, "invalid GitHub credentials")
	case model.KindRateLimited:
		resp := errorResponse{
			Error: "GitHub rate limit exceeded",
			Kind:  string(kind),
		}
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && !apiErr.Reset.IsZero() {
			resp.Reset = apiErr.Reset.Unix()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		writeErrorKind(w, http.StatusInternalServerError, kind, "failed to fetch repository status")
	}
}

// GetTokenStatus reports whether an environment token exists and whether it
// is currently enabled.
func (h *Handler) GetTokenStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TokenStatusResponse{
		Enabled:    h.tokens.IsEnabled(),
		EnvPresent: h.tokens.HasEnvToken(),
	})
}

// UpdateToken enables or disables use of the environment token. Enabling
// without an environment token is a no-op reported as success=false.
func (h *Handler) UpdateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorKind(w, http.StatusBadRequest, model.KindInvalidInput, "malformed request body")
		return
	}

	resp := TokenUpdateResponse{Success: true}

	switch req.Action {
	case "enable":
		if !h.tokens.Enable() {
			resp.Success = false
			resp.Message = "no environment token configured"
		}
	case "disable":
		h.tokens.Disable()
	default:
		writeErrorKind(w, http.StatusBadRequest, model.KindInvalidInput, "action must be \"enable\" or \"disable\"")
		return
	}

	resp.Enabled = h.tokens.IsEnabled()
	resp.EnvPresent = h.tokens.HasEnvToken()

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a liveness response. Probed by cmd/healthcheck in containers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
