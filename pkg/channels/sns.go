package channels

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// snsClient defines the minimal subset of the SNS client used by snsChannel.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsChannel broadcasts notifications to an SNS topic so several consumers
// can subscribe to the same stream.
type snsChannel struct {
	id       string
	kind     domain.ChannelKind
	topicARN string
	client   snsClient
	log      Logger
}

func newSNSChannel(ctx context.Context, cfg ChannelConfig, log Logger) (Channel, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("channel %q missing sns configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.SNS.Region)}
	if cfg.SNS.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SNS.AccessKeyID, cfg.SNS.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &snsChannel{
		id:       cfg.ID,
		kind:     cfg.NotificationKind(),
		topicARN: cfg.SNS.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *snsChannel) ID() string               { return s.id }
func (s *snsChannel) Kind() domain.ChannelKind { return s.kind }

// Deliver publishes the message to the configured SNS topic.
func (s *snsChannel) Deliver(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"subscriber": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Notification.SubscriberExternalID),
			},
			"media_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(msg.Notification.MediaID)),
			},
		},
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		s.log.ErrorObj("sns channel publish failed", "channel_sns_error", map[string]any{
			"channel_id": s.id,
			"error":      err.Error(),
		})
		return fmt.Errorf("publish message to sns: %w", err)
	}
	s.log.DebugObj("sns channel delivered", "channel_sns_delivery", map[string]any{
		"channel_id": s.id,
	})
	return nil
}
