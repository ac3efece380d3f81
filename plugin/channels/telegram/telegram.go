// Package telegram mirrors relay notices into a Telegram chat via the Bot
// API. The mirror is an auxiliary channel: delivery failures are logged and
// never surface to the data path.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hrygo/chatrelay/relay"
)

// MirrorConfig holds configuration for the Telegram mirror.
type MirrorConfig struct {
	BotToken string
	ChatID   int64
}

// Mirror implements relay.Notifier by posting broadcast and system notices
// to one configured chat. Direct messages are not mirrored; a shared chat is
// the wrong place for a private queue.
type Mirror struct {
	bot    *tgbotapi.BotAPI
	config *MirrorConfig
}

// NewMirror creates a new Telegram mirror.
func NewMirror(config *MirrorConfig) (*Mirror, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Mirror{bot: bot, config: config}, nil
}

// Broadcast posts a broadcast notice to the configured chat.
func (m *Mirror) Broadcast(_ context.Context, text string) {
	m.post(text)
}

// SendTo is a no-op; private messages stay off the shared chat.
func (m *Mirror) SendTo(_ context.Context, _ string, _ *relay.Message) {}

// SystemNotice posts a system notice to the configured chat.
func (m *Mirror) SystemNotice(_ context.Context, text string) {
	m.post("[system] " + text)
}

func (m *Mirror) post(text string) {
	msg := tgbotapi.NewMessage(m.config.ChatID, text)
	if _, err := m.bot.Send(msg); err != nil {
		slog.Warn("telegram_mirror_failed", "chat_id", m.config.ChatID, "error", err)
	}
}

// Close closes the Telegram mirror.
func (m *Mirror) Close() error {
	return nil
}

var _ relay.Notifier = (*Mirror)(nil)
