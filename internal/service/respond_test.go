package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiskara/taxchat/internal/assistant"
	"github.com/fiskara/taxchat/internal/domain"
)

func TestReconstructRepliesOrdersByTimestamp(t *testing.T) {
	msgs := []assistant.ThreadMessage{
		threadText(domain.RoleUser, 100, "what is the VAT rate?"),
		threadText(domain.RoleAssistant, 103, "Third."),
		threadText(domain.RoleAssistant, 101, "First."),
		threadText(domain.RoleAssistant, 102, "Second."),
	}

	assert.Equal(t, []string{"First.", "Second.", "Third."}, reconstructReplies(msgs))
}

func TestReconstructRepliesSkipsEarlierTurns(t *testing.T) {
	msgs := []assistant.ThreadMessage{
		threadText(domain.RoleUser, 50, "earlier question"),
		threadText(domain.RoleAssistant, 51, "Earlier answer."),
		threadText(domain.RoleUser, 100, "current question"),
		threadText(domain.RoleAssistant, 101, "Current answer."),
	}

	assert.Equal(t, []string{"Current answer."}, reconstructReplies(msgs))
}

func TestReconstructRepliesSwapsLateGreeting(t *testing.T) {
	msgs := []assistant.ThreadMessage{
		threadText(domain.RoleUser, 100, "hello"),
		threadText(domain.RoleAssistant, 101, "Your filing deadline is 31 March."),
		threadText(domain.RoleAssistant, 101, "Welcome to TaxChat! How can I help today?"),
	}

	got := reconstructReplies(msgs)
	assert.Equal(t, []string{
		"Welcome to TaxChat! How can I help today?",
		"Your filing deadline is 31 March.",
	}, got)
}

func TestReconstructRepliesKeepsGreetingAlreadyFirst(t *testing.T) {
	msgs := []assistant.ThreadMessage{
		threadText(domain.RoleUser, 100, "hello"),
		threadText(domain.RoleAssistant, 101, "Welcome to TaxChat! How can I help today?"),
		threadText(domain.RoleAssistant, 102, "Your filing deadline is 31 March."),
	}

	got := reconstructReplies(msgs)
	assert.Equal(t, []string{
		"Welcome to TaxChat! How can I help today?",
		"Your filing deadline is 31 March.",
	}, got)
}

func TestReconstructRepliesNoSwapForThreeMessages(t *testing.T) {
	msgs := []assistant.ThreadMessage{
		threadText(domain.RoleUser, 100, "hello"),
		threadText(domain.RoleAssistant, 101, "One."),
		threadText(domain.RoleAssistant, 102, "Two."),
		threadText(domain.RoleAssistant, 103, "Welcome to TaxChat!"),
	}

	assert.Equal(t, []string{"One.", "Two.", "Welcome to TaxChat!"}, reconstructReplies(msgs))
}

func TestReconstructRepliesSanitizesAndDropsEmpty(t *testing.T) {
	msgs := []assistant.ThreadMessage{
		threadText(domain.RoleUser, 100, "what is the rate?"),
		threadText(domain.RoleAssistant, 101, "Let me check the uploaded files to find the answer."),
		threadText(domain.RoleAssistant, 102, "According to the document, rate is 9%. [1]"),
	}

	assert.Equal(t, []string{"rate is 9%."}, reconstructReplies(msgs))
}

func TestReconstructRepliesEmptyThread(t *testing.T) {
	assert.Empty(t, reconstructReplies(nil))
	assert.Empty(t, reconstructReplies([]assistant.ThreadMessage{
		threadText(domain.RoleUser, 100, "nothing back yet"),
	}))
}
