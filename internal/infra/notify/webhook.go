// Package notify delivers operator notifications over an incoming
// webhook. Delivery is fire-and-forget; a failed post never fails the
// build loop.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const deliveryTimeout = 10 * time.Second

// Notifier posts messages to a Slack-compatible webhook URL.
type Notifier struct {
	webhookURL string
	client     *http.Client
	log        *slog.Logger
}

// NewNotifier creates a notifier. An empty webhookURL disables
// delivery; Notify becomes a no-op that only logs.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: deliveryTimeout},
		log:        slog.With("component", "notify"),
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// Notify posts a message to the webhook. Errors are logged, never
// returned.
func (n *Notifier) Notify(ctx context.Context, message string) {
	if !n.Enabled() {
		n.log.Debug("Webhook not configured, skipping notification", "message", message)
		return
	}

	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		n.log.Warn("Failed to encode notification", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		n.log.Warn("Failed to build notification request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn("Notification delivery failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.log.Warn("Notification rejected", "status", resp.StatusCode)
	}
}

// NotifyEscalation formats and posts an escalation summary.
func (n *Notifier) NotifyEscalation(ctx context.Context, service, method, category, message string) {
	n.Notify(ctx, fmt.Sprintf(
		":rotating_light: [%s] %s.%s failed terminally: %s",
		category, service, method, message,
	))
}
