package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
)

// WebhookChannel POSTs the notification as JSON to the subscription's target url.
type WebhookChannel struct {
	client *http.Client
}

func NewWebhookChannel(timeout time.Duration) *WebhookChannel {
	return &WebhookChannel{client: &http.Client{Timeout: timeout}}
}

func (c *WebhookChannel) Deliver(ctx context.Context, target string, n models.Notification) error {
	if target == "" {
		return fmt.Errorf("%w: webhook target is empty", common.ErrDelivery)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-Id", n.Id)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook returned %s", common.ErrDelivery, resp.Status)
	}
	return nil
}
