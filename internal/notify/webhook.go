// internal/notify/webhook.go
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tobihealthops/requiva-go/internal/config"
)

// Digest is the insight summary posted after a scheduled refresh.
type Digest struct {
	GeneratedAt    string  `json:"generated_at"`
	OrderCount     int     `json:"order_count"`
	UrgentReorders int     `json:"urgent_reorders"`
	Anomalies      int     `json:"anomalies"`
	TopBulkItem    string  `json:"top_bulk_item,omitempty"`
	TopBulkSavings float64 `json:"top_bulk_savings,omitempty"`
}

// Notifier delivers insight digests. The webhook implementation posts
// JSON to whatever the lab pointed NOTIFY_WEBHOOK_URL at (Slack relay,
// in practice).
type Notifier interface {
	SendDigest(ctx context.Context, digest Digest) error
}

type webhookNotifier struct {
	client *resty.Client
	url    string
}

type noopNotifier struct{}

// NewNotifier returns a webhook notifier, or a noop when no URL is
// configured.
func NewNotifier(cfg config.NotifyConfig) Notifier {
	if cfg.WebhookURL == "" {
		return &noopNotifier{}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &webhookNotifier{client: client, url: cfg.WebhookURL}
}

func (n *webhookNotifier) SendDigest(ctx context.Context, digest Digest) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(digest).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("send insight digest: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send insight digest: webhook returned %s", resp.Status())
	}
	return nil
}

func (n *noopNotifier) SendDigest(ctx context.Context, digest Digest) error {
	return nil
}
