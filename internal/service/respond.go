package service

import (
	"sort"
	"strings"

	"github.com/fiskara/taxchat/internal/assistant"
	"github.com/fiskara/taxchat/internal/config"
	"github.com/fiskara/taxchat/internal/domain"
	"github.com/fiskara/taxchat/internal/sanitize"
)

// reconstructReplies turns the provider's unordered thread history into
// the clean assistant turns produced by the latest exchange: everything
// assistant-authored after the most recent user message, sorted ascending
// by timestamp, sanitized, with empty results dropped.
func reconstructReplies(msgs []assistant.ThreadMessage) []string {
	var lastUser int64
	for _, m := range msgs {
		if m.Role == domain.RoleUser && m.CreatedAt > lastUser {
			lastUser = m.CreatedAt
		}
	}

	var selected []assistant.ThreadMessage
	for _, m := range msgs {
		if m.Role == domain.RoleAssistant && m.CreatedAt > lastUser {
			selected = append(selected, m)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].CreatedAt < selected[j].CreatedAt
	})

	// The provider can deliver the scripted greeting after the substantive
	// answer when both land in the same second. Put the greeting back in
	// front.
	if len(selected) == 2 &&
		!strings.Contains(selected[0].Text(), config.GreetingMarker) &&
		strings.Contains(selected[1].Text(), config.GreetingMarker) {
		selected[0], selected[1] = selected[1], selected[0]
	}

	var replies []string
	for _, m := range selected {
		if cleaned, ok := sanitize.Clean(m.Text()); ok {
			replies = append(replies, cleaned)
		}
	}
	return replies
}
