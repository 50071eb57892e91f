package channels

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
	"github.com/rensai-hq/rensai-release-tracker/pkg/httpclient"
)

type webhookChannel struct {
	id      string
	kind    domain.ChannelKind
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newWebhookChannel(_ context.Context, cfg ChannelConfig, log Logger) (Channel, error) {
	if cfg.Webhook == nil {
		return nil, fmt.Errorf("channel %q missing webhook configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second)

	return &webhookChannel{
		id:      cfg.ID,
		kind:    cfg.NotificationKind(),
		method:  cfg.Webhook.Method,
		url:     cfg.Webhook.URL,
		headers: cfg.Webhook.Headers,
		client:  client,
		log:     ensureLogger(log),
	}, nil
}

func (w *webhookChannel) ID() string               { return w.id }
func (w *webhookChannel) Kind() domain.ChannelKind { return w.kind }

// Deliver posts the message as JSON to the configured endpoint.
func (w *webhookChannel) Deliver(ctx context.Context, msg Message) error {
	req := w.client.R().
		SetContext(ctx).
		SetBody(msg)

	if len(w.headers) > 0 {
		req.SetHeaders(w.headers)
	}

	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		snippet := readBodySnippet(resp.Body())
		return fmt.Errorf("webhook response status %d: %s", resp.StatusCode(), snippet)
	}
	w.log.DebugObj("webhook channel delivered", "channel_webhook_delivery", map[string]any{
		"channel_id": w.id,
		"subscriber": msg.Notification.SubscriberExternalID,
	})
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
