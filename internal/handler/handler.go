package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fiskara/taxchat/internal/domain"
	"github.com/fiskara/taxchat/internal/service"
)

// Handler wires the HTTP API to the services.
type Handler struct {
	users    *service.UserService
	sessions *service.SessionService
	chat     *service.ChatService
}

type Deps struct {
	Users    *service.UserService
	Sessions *service.SessionService
	Chat     *service.ChatService
}

func New(deps Deps) *Handler {
	return &Handler{
		users:    deps.Users,
		sessions: deps.Sessions,
		chat:     deps.Chat,
	}
}

// Register mounts all routes. Everything except registration and login
// sits behind the auth middleware.
func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/users/me", h.handleMe)
			r.Post("/chat", h.handleChat)
			r.Route("/chat/sessions", func(r chi.Router) {
				r.Get("/", h.handleListSessions)
				r.Get("/{id}", h.handleGetSession)
				r.Patch("/{id}", h.handleRenameSession)
				r.Delete("/{id}", h.handleDeleteSession)
			})
		})
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorBody struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, errorBody{Kind: kind, Error: message})
}

// respondServiceError maps domain errors onto the wire taxonomy so
// callers can distinguish failure kinds mechanically.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrUserExists):
		respondError(w, http.StatusBadRequest, "user_exists", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, domain.ErrInsufficientQuota):
		respondError(w, http.StatusForbidden, "insufficient_quota", err.Error())
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionOwnership):
		respondError(w, http.StatusNotFound, "session_not_found", domain.ErrSessionNotFound.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, domain.ErrThreadCreation):
		respondError(w, http.StatusBadGateway, "thread_creation_failed", err.Error())
	case errors.Is(err, domain.ErrUnsupportedToolCall):
		respondError(w, http.StatusBadGateway, "unsupported_tool_call", err.Error())
	case errors.Is(err, domain.ErrRunFailed):
		respondError(w, http.StatusBadGateway, "run_failed", err.Error())
	case errors.Is(err, domain.ErrRunCancelled):
		respondError(w, http.StatusBadGateway, "run_cancelled", err.Error())
	case errors.Is(err, domain.ErrRunExpired):
		respondError(w, http.StatusBadGateway, "run_expired", err.Error())
	case errors.Is(err, domain.ErrRunTimedOut):
		respondError(w, http.StatusGatewayTimeout, "run_timed_out", err.Error())
	default:
		slog.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "something went wrong")
	}
}
