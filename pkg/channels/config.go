package channels

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

const (
	// Supported channel transport types.
	TypeWebhook = "webhook"
	TypeSQS     = "sqs"
	TypeSNS     = "sns"
	TypePubSub  = "pubsub"

	webhookDefaultMethod         = "POST"
	webhookDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the channels configuration file.
type configFile struct {
	Channels []ChannelConfig `json:"channels" yaml:"channels"`
}

// ChannelConfig is a single channel entry declared in config files.
type ChannelConfig struct {
	ID      string         `json:"id" yaml:"id"`
	Kind    string         `json:"kind" yaml:"kind"`
	Type    string         `json:"type" yaml:"type"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
	Webhook *WebhookConfig `json:"webhook" yaml:"webhook"`
	SQS     *SQSConfig     `json:"sqs" yaml:"sqs"`
	SNS     *SNSConfig     `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig  `json:"pubsub" yaml:"pubsub"`
}

// WebhookConfig holds generic HTTP sink settings.
type WebhookConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SQSConfig holds AWS SQS specific settings. The static key pair is
// optional; without it the channel uses the ambient AWS credential chain.
type SQSConfig struct {
	QueueURL        string `json:"queue_url" yaml:"queue_url"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SNSConfig holds AWS SNS specific settings. The static key pair is
// optional; without it the channel uses the ambient AWS credential chain.
type SNSConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// PubSubConfig holds Google Cloud Pub/Sub specific settings. A credentials
// file is optional; without it the client uses application default
// credentials.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// ConfigRegistry materializes channel definitions loaded from config files.
type ConfigRegistry struct {
	mu       sync.RWMutex
	channels []ChannelConfig
	idx      map[string]ChannelConfig
}

// LoadChannels loads the channel registry from a YAML/JSON file.
func LoadChannels(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("channels file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open channels file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	fileReg, err := parseChannelsFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Channels) == 0 {
		return nil, errors.New("channels file contains no channel entries")
	}

	reg := &ConfigRegistry{
		channels: make([]ChannelConfig, len(fileReg.Channels)),
		idx:      make(map[string]ChannelConfig, len(fileReg.Channels)),
	}

	for i := range fileReg.Channels {
		cfg := sanitizeChannelConfig(fileReg.Channels[i])
		if err := validateChannelConfig(cfg); err != nil {
			return nil, fmt.Errorf("channels[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate channel id %q", cfg.ID)
		}
		reg.channels[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

func parseChannelsFile(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err != nil {
			return configFile{}, fmt.Errorf("decode %s channels: %w", d.name, err)
		}
		return reg, nil
	}

	return configFile{}, errors.New("channels file format not recognized (expected YAML or JSON)")
}

// sanitizeChannelConfig trims and normalizes the channel config fields.
func sanitizeChannelConfig(cfg ChannelConfig) ChannelConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Kind = strings.ToLower(strings.TrimSpace(cfg.Kind))
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.Webhook != nil {
		c := *cfg.Webhook
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = webhookDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = webhookDefaultTimeoutSeconds
		}
		cfg.Webhook = &c
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		c.QueueURL = strings.TrimSpace(c.QueueURL)
		c.Region = strings.TrimSpace(c.Region)
		c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
		c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		c.TopicARN = strings.TrimSpace(c.TopicARN)
		c.Region = strings.TrimSpace(c.Region)
		c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
		c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		c.ProjectID = strings.TrimSpace(c.ProjectID)
		c.Topic = strings.TrimSpace(c.Topic)
		c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
		cfg.PubSub = &c
	}

	return cfg
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validateChannelConfig checks that required fields are present.
func validateChannelConfig(cfg ChannelConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if _, err := domain.ParseChannelKind(cfg.Kind); err != nil {
		return fmt.Errorf("kind is invalid for channel %q: %w", cfg.ID, err)
	}
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for channel %q", cfg.ID)
	case TypeWebhook:
		if cfg.Webhook == nil {
			return fmt.Errorf("webhook config required for channel %q", cfg.ID)
		}
		if cfg.Webhook.URL == "" {
			return fmt.Errorf("webhook.url is required for channel %q", cfg.ID)
		}
	case TypeSQS:
		if cfg.SQS == nil {
			return fmt.Errorf("sqs config required for channel %q", cfg.ID)
		}
		if cfg.SQS.QueueURL == "" {
			return fmt.Errorf("sqs.queue_url is required for channel %q", cfg.ID)
		}
		if cfg.SQS.Region == "" {
			return fmt.Errorf("sqs.region is required for channel %q", cfg.ID)
		}
		if err := validateKeyPair(cfg.SQS.AccessKeyID, cfg.SQS.SecretAccessKey); err != nil {
			return fmt.Errorf("sqs credentials for channel %q: %w", cfg.ID, err)
		}
	case TypeSNS:
		if cfg.SNS == nil {
			return fmt.Errorf("sns config required for channel %q", cfg.ID)
		}
		if cfg.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for channel %q", cfg.ID)
		}
		if cfg.SNS.Region == "" {
			return fmt.Errorf("sns.region is required for channel %q", cfg.ID)
		}
		if err := validateKeyPair(cfg.SNS.AccessKeyID, cfg.SNS.SecretAccessKey); err != nil {
			return fmt.Errorf("sns credentials for channel %q: %w", cfg.ID, err)
		}
	case TypePubSub:
		if cfg.PubSub == nil {
			return fmt.Errorf("pubsub config required for channel %q", cfg.ID)
		}
		if cfg.PubSub.ProjectID == "" {
			return fmt.Errorf("pubsub.project_id is required for channel %q", cfg.ID)
		}
		if cfg.PubSub.Topic == "" {
			return fmt.Errorf("pubsub.topic is required for channel %q", cfg.ID)
		}
	default:
		return fmt.Errorf("unknown type %q for channel %q", cfg.Type, cfg.ID)
	}
	return nil
}

// validateKeyPair rejects a half-configured static credential pair.
func validateKeyPair(accessKeyID, secretAccessKey string) error {
	if (accessKeyID == "") != (secretAccessKey == "") {
		return errors.New("access_key_id and secret_access_key must be set together")
	}
	return nil
}

// ByID returns the channel config by id.
func (r *ConfigRegistry) ByID(id string) (ChannelConfig, bool) {
	if r == nil {
		return ChannelConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return ChannelConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured channels.
func (r *ConfigRegistry) All() []ChannelConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ChannelConfig, len(r.channels))
	copy(out, r.channels)
	return out
}

// Enabled returns channels that are enabled.
func (r *ConfigRegistry) Enabled() []ChannelConfig {
	if r == nil {
		return nil
	}

	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]ChannelConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag defaulting to true.
func (cfg ChannelConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}

// NotificationKind returns the parsed notification kind this channel serves.
// Configs are validated at load time, so parse failures fall back to web.
func (cfg ChannelConfig) NotificationKind() domain.ChannelKind {
	kind, err := domain.ParseChannelKind(cfg.Kind)
	if err != nil {
		return domain.ChannelWeb
	}
	return kind
}
