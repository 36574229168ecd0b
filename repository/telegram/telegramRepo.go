package telegramrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Repo struct {
	chatID int64
	bot    Sender
}

// New authenticates the bot against the Telegram API using client.
func New(token string, chatID int64, client *http.Client) (*Repo, error) {
	if token == "" {
		return nil, errors.New("telegram: empty bot token")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect bot: %w", err)
	}
	return NewWithSender(bot, chatID), nil
}

func NewWithSender(bot Sender, chatID int64) *Repo {
	return &Repo{chatID: chatID, bot: bot}
}

// Notify posts text to the configured chat. It gives up when ctx is done; the
// underlying request may still complete in the background.
func (r *Repo) Notify(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(r.chatID, text)

	done := make(chan error, 1)
	go func() {
		_, err := r.bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
