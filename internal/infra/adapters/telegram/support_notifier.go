package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"digital-storefront/internal/config"
	"digital-storefront/internal/domain/ports/adapter"
)

var _ adapter.SupportNotifier = (*SupportNotifier)(nil)

// telegram messages are capped at 4096 characters
const maxMessageLen = 4096

// sender is the part of *tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SupportNotifier posts alerts into the support staff's Telegram chats.
type SupportNotifier struct {
	bot     sender
	chatIDs []int64
	log     *zerolog.Logger
}

func NewSupportNotifier(cfg config.SupportConfig, logger *zerolog.Logger) (*SupportNotifier, error) {
	if cfg.TelegramToken == "" {
		return nil, errors.New("support telegram token is empty")
	}
	if len(cfg.ChatIDs) == 0 {
		return nil, errors.New("no support chat ids configured")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newSupportNotifier(bot, cfg.ChatIDs, logger), nil
}

func newSupportNotifier(bot sender, chatIDs []int64, logger *zerolog.Logger) *SupportNotifier {
	return &SupportNotifier{bot: bot, chatIDs: chatIDs, log: logger}
}

// Notify sends text to every configured chat. It fails only when no chat received it.
func (n *SupportNotifier) Notify(ctx context.Context, text string) error {
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen-3] + "..."
	}
	var delivered int
	var lastErr error
	for _, id := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.DisableWebPagePreview = true
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Warn().Err(err).Int64("chat_id", id).Msg("support alert not delivered")
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 && lastErr != nil {
		return fmt.Errorf("support alert: %w", lastErr)
	}
	return nil
}

var _ adapter.SupportNotifier = (*NoopNotifier)(nil)

// NoopNotifier logs alerts instead of sending them. Used when no bot token is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) Notify(ctx context.Context, text string) error {
	n.log.Info().Str("text", text).Msg("[noop-telegram] support alert")
	return nil
}
