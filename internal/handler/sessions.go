package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fiskara/taxchat/internal/middleware"
)

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	sessions, err := h.sessions.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, map[string]any{
			"id":        s.ID,
			"title":     s.Title,
			"updatedAt": s.UpdatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionRequest(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.GetForUser(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	messages := make([]map[string]any, 0, len(session.Messages))
	for _, m := range session.Messages {
		view := map[string]any{
			"role":      m.Role,
			"content":   m.Content,
			"timestamp": m.CreatedAt,
		}
		if len(m.Attachments) > 0 {
			atts := make([]map[string]any, 0, len(m.Attachments))
			for _, a := range m.Attachments {
				atts = append(atts, map[string]any{
					"name": a.Name,
					"type": a.MimeType,
					"size": a.Size,
				})
			}
			view["attachments"] = atts
		}
		messages = append(messages, view)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":        session.ID,
		"title":     session.Title,
		"threadId":  session.ThreadID,
		"messages":  messages,
		"updatedAt": session.UpdatedAt,
	})
}

func (h *Handler) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionRequest(w, r)
	if !ok {
		return
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Title == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	if err := h.sessions.Rename(r.Context(), id, userID, payload.Title); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "title": payload.Title})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionRequest(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), id, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "session deleted"})
}

// sessionRequest pulls the authenticated user and the session id out of
// the request, writing the error response itself when either is missing.
func sessionRequest(w http.ResponseWriter, r *http.Request) (int64, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return 0, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid session id")
		return 0, uuid.Nil, false
	}
	return userID, id, true
}
