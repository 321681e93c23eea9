package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fiskara/taxchat/internal/domain"
	"github.com/fiskara/taxchat/internal/middleware"
	"github.com/fiskara/taxchat/internal/service"
)

const maxChatRequestMemory = 32 << 20

type messageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// handleChat accepts one turn as JSON ({message, sessionId}) or as
// multipart form data when files ride along.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	req, cleanup, err := parseChatRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	defer cleanup()

	result, err := h.chat.SendMessage(r.Context(), userID, *req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	replies := make([]messageView, 0, len(result.Replies))
	for _, m := range result.Replies {
		replies = append(replies, messageView{Role: m.Role, Content: m.Content, Timestamp: m.CreatedAt})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"sessionId":         result.SessionID,
		"messages":          replies,
		"remainingMessages": result.RemainingMessages,
		"skippedFiles":      result.SkippedFiles,
	})
}

func parseChatRequest(r *http.Request) (*service.SendRequest, func(), error) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var payload struct {
			Message   string `json:"message"`
			SessionID string `json:"sessionId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, noop, domain.ErrEmptyMessage
		}
		req := &service.SendRequest{Message: payload.Message}
		if err := setSessionID(req, payload.SessionID); err != nil {
			return nil, noop, err
		}
		return req, noop, nil
	}

	if err := r.ParseMultipartForm(maxChatRequestMemory); err != nil {
		return nil, noop, err
	}

	req := &service.SendRequest{Message: r.FormValue("message")}
	if err := setSessionID(req, r.FormValue("sessionId")); err != nil {
		return nil, noop, err
	}

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		closers = append(closers, func() { f.Close() })
		req.Files = append(req.Files, service.IncomingFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		})
	}
	return req, cleanup, nil
}

func setSessionID(req *service.SendRequest, raw string) error {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return domain.ErrSessionNotFound
	}
	req.SessionID = &id
	return nil
}
