// Package alert delivers operator notifications. The pipeline treats alerts
// as fire-and-forget: a failed delivery is logged, never fatal.
package alert

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"livemarks/httpclient"
)

const telegramAPIBase = "https://api.telegram.org"

// Notifier delivers a short operator message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Telegram sends messages to a chat via the Bot API.
type Telegram struct {
	client  *httpclient.Client
	baseURL string
	token   string
	chatID  string
}

// NewTelegram creates a notifier for the given bot token and chat.
func NewTelegram(token, chatID string) *Telegram {
	cfg := httpclient.DefaultConfig()
	cfg.RequestsPerSecond = 0
	return &Telegram{
		client:  httpclient.New(cfg),
		baseURL: telegramAPIBase,
		token:   token,
		chatID:  chatID,
	}
}

// NewTelegramWith creates a notifier against a custom API base, for tests.
func NewTelegramWith(client *httpclient.Client, baseURL, token, chatID string) *Telegram {
	return &Telegram{client: client, baseURL: baseURL, token: token, chatID: chatID}
}

// Notify sends one message to the configured chat.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("alert: telegram token and chat id required")
	}

	params := url.Values{}
	params.Set("chat_id", t.chatID)
	params.Set("text", message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage?%s", t.baseURL, t.token, params.Encode())
	resp, err := t.client.Get(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("alert: send telegram message: %w", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("alert: telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

// NotifyBestEffort sends a message and logs the failure instead of returning
// it.
func NotifyBestEffort(ctx context.Context, n Notifier, message string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, message); err != nil {
		log.Printf("alert: notification not delivered: %v", err)
	}
}
