// Package alert posts operational events to a Telegram chat so run
// failures and exhausted quotas surface without log trawling.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
)

const maxAlertLen = 4096

type Notifier struct {
	bot    *bot.Bot
	chatID int64
}

// New builds a notifier for the configured chat. Returns nil when the
// token or chat id is unset; alerting is optional.
func New(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}

	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create alert bot: %w", err)
	}
	return &Notifier{bot: b, chatID: chatID}, nil
}

// Notify sends one event. Delivery is best-effort; failures are logged
// and never propagate into the request path.
func (n *Notifier) Notify(ctx context.Context, event, message string) {
	if n == nil || n.bot == nil {
		return
	}

	text := fmt.Sprintf("[%s] %s", event, message)
	if len([]rune(text)) > maxAlertLen {
		text = string([]rune(text)[:maxAlertLen-20]) + "\n\n... (truncated)"
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if _, err := n.bot.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	}); err != nil {
		slog.Error("failed to send alert", "error", err, "event", event)
	}
}
