package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBaseURL = "https://api.telegram.org"

type TelegramSender struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

func NewTelegramSender(botToken string, chatID string) *TelegramSender {
	return &TelegramSender{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPIBaseURL,
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

func (sender *TelegramSender) Send(ctx context.Context, title string, message string) error {
	text := message
	if strings.TrimSpace(title) != "" {
		text = title + "\n" + message
	}

	values := url.Values{}
	values.Set("chat_id", sender.chatID)
	values.Set("text", text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(sender.baseURL, "/"), sender.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := sender.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// LogSender writes notifications to the process log.
type LogSender struct{}

func (LogSender) Send(_ context.Context, title string, message string) error {
	log.Printf("notify: %s: %s", title, message)
	return nil
}
