// Package notifier implements the optional NOTIFIER_* egress named in §6:
// a best-effort SMS/chat channel the supervisor pushes halt and exit
// notices through. It is never on the hot path — a notifier failure is
// logged and swallowed, never propagated back into a bot's cycle.
package notifier

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spotpilot/logger"
)

// Notifier is the egress interface C7 pushes operator alerts through.
// Notify is fire-and-forget: implementations log their own failures rather
// than returning them, so a flaky egress channel never blocks a bot.
type Notifier interface {
	Notify(message string)
}

// Telegram sends alerts to a single configured chat via a bot token,
// grounded on the teacher's go-telegram-bot-api dependency.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram constructs a Telegram notifier. Returns (nil, nil) when token
// is empty so callers can treat a missing NOTIFIER_* config as "disabled"
// rather than an error.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notifier: telegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(message string) {
	if t == nil || t.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, message)
	if _, err := t.bot.Send(msg); err != nil {
		logger.Warnf("notifier: telegram send failed: %v", err)
	}
}

// Noop discards every notification; used when NOTIFIER_* is unconfigured.
type Noop struct{}

func (Noop) Notify(string) {}
