package channels

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

// sqsClient defines the minimal subset of the SQS client used by sqsChannel.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsChannel queues notifications for downstream consumers, typically the
// chat bot workers.
type sqsChannel struct {
	id       string
	kind     domain.ChannelKind
	queueURL string
	client   sqsClient
	log      Logger
}

func newSQSChannel(ctx context.Context, cfg ChannelConfig, log Logger) (Channel, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("channel %q missing sqs configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.SQS.Region)}
	if cfg.SQS.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SQS.AccessKeyID, cfg.SQS.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &sqsChannel{
		id:       cfg.ID,
		kind:     cfg.NotificationKind(),
		queueURL: cfg.SQS.QueueURL,
		client:   sqs.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *sqsChannel) ID() string               { return s.id }
func (s *sqsChannel) Kind() domain.ChannelKind { return s.kind }

// Deliver sends the message to the configured SQS queue.
func (s *sqsChannel) Deliver(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
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

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		s.log.ErrorObj("sqs channel send failed", "channel_sqs_error", map[string]any{
			"channel_id": s.id,
			"error":      err.Error(),
		})
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs channel delivered", "channel_sqs_delivery", map[string]any{
		"channel_id": s.id,
	})
	return nil
}
