// Package slack delivers relay messages to a Slack-compatible incoming
// webhook. Delivery is fire-and-forget: callers log failures and move on.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultUsername is the bot name attached to every message.
const DefaultUsername = "Meet Bot"

// Notifier sends a text message to a chat destination.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Webhook posts messages to a Slack incoming webhook URL.
type Webhook struct {
	url      string
	username string
	client   *http.Client
}

// NewWebhook creates a webhook notifier with a per-request timeout.
func NewWebhook(url, username string, timeout time.Duration) *Webhook {
	if username == "" {
		username = DefaultUsername
	}
	return &Webhook{
		url:      url,
		username: username,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send posts the message. The returned error is informational: callers are
// expected to log it and never let it affect message processing.
func (w *Webhook) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"text":     text,
		"username": w.username,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return nil
}
