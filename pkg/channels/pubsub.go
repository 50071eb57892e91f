package channels

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// pubsubChannel publishes notifications to a Google Cloud Pub/Sub topic.
type pubsubChannel struct {
	id     string
	kind   domain.ChannelKind
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newPubSubChannel(ctx context.Context, cfg ChannelConfig, log Logger) (Channel, error) {
	if cfg.PubSub == nil {
		return nil, fmt.Errorf("channel %q missing pubsub configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.PubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.PubSub.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubChannel{
		id:     cfg.ID,
		kind:   cfg.NotificationKind(),
		client: client,
		topic:  client.Topic(cfg.PubSub.Topic),
		log:    ensureLogger(log),
	}, nil
}

func (p *pubsubChannel) ID() string               { return p.id }
func (p *pubsubChannel) Kind() domain.ChannelKind { return p.kind }

// Deliver publishes the message and waits for the server acknowledgement.
func (p *pubsubChannel) Deliver(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"subscriber": msg.Notification.SubscriberExternalID,
			"media_id":   string(msg.Notification.MediaID),
		},
	})

	if _, err := res.Get(ctx); err != nil {
		p.log.ErrorObj("pubsub channel publish failed", "channel_pubsub_error", map[string]any{
			"channel_id": p.id,
			"error":      err.Error(),
		})
		return fmt.Errorf("publish message to pubsub: %w", err)
	}
	p.log.DebugObj("pubsub channel delivered", "channel_pubsub_delivery", map[string]any{
		"channel_id": p.id,
	})
	return nil
}

// Close flushes the topic and releases the underlying client.
func (p *pubsubChannel) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
