package handler

import (
	"net/http"

	"github.com/fiskara/taxchat/internal/middleware"
)

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	user, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"jobTitle": user.JobTitle,
		"subscription": map[string]any{
			"messageLimit":      user.MessageLimit,
			"remainingMessages": user.RemainingMessages,
		},
	})
}
