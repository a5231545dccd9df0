package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Pusher delivers a notification to an external push channel. Sending
// is best effort; the aggregation pipeline never blocks on it.
type Pusher interface {
	Send(ctx context.Context, n Notification) error
}

// NopPusher drops everything. Used when no push endpoint is configured
// or permission was denied.
type NopPusher struct{}

func (NopPusher) Send(ctx context.Context, n Notification) error {
	return nil
}

// WebhookPusher POSTs notifications as JSON to a configured endpoint
// (an ntfy-style relay or similar).
type WebhookPusher struct {
	url    string
	client *http.Client
}

func NewWebhookPusher(url string) *WebhookPusher {
	return &WebhookPusher{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type pushPayload struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"requireInteraction"`
}

func (p *WebhookPusher) Send(ctx context.Context, n Notification) error {
	payload := pushPayload{
		Title:              n.Title,
		Body:               n.Description,
		Tag:                n.ID,
		RequireInteraction: n.Priority == PriorityHigh,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}
