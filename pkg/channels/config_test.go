package channels

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeChannelsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write channels file: %v", err)
	}
	return path
}

func TestLoadChannelsEnabledFilter(t *testing.T) {
	path := writeChannelsFile(t, "channels.yaml", `
channels:
  - id: hook1
    kind: web
    type: webhook
    enabled: false
    webhook:
      url: https://example.com
  - id: hook2
    kind: web
    type: webhook
    enabled: true
    webhook:
      url: https://example.com/2
`)
	reg, err := LoadChannels(path)
	if err != nil {
		t.Fatalf("LoadChannels: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "hook2" {
		t.Fatalf("expected only hook2 enabled, got %#v", enabled)
	}
	if _, ok := reg.ByID("hook1"); !ok {
		t.Fatalf("ByID should still find disabled channels")
	}
}

func TestLoadChannelsSanitizesDefaults(t *testing.T) {
	path := writeChannelsFile(t, "channels.yaml", `
channels:
  - id: hook
    kind: WEB
    type: Webhook
    webhook:
      url: "  https://example.com  "
`)
	reg, err := LoadChannels(path)
	if err != nil {
		t.Fatalf("LoadChannels: %v", err)
	}
	cfg, ok := reg.ByID("hook")
	if !ok {
		t.Fatalf("channel not found")
	}
	if cfg.Kind != "web" || cfg.Type != TypeWebhook {
		t.Fatalf("kind/type not normalized: %q %q", cfg.Kind, cfg.Type)
	}
	if !cfg.EnabledValue() {
		t.Fatalf("enabled should default to true")
	}
	if cfg.Webhook.URL != "https://example.com" {
		t.Fatalf("url not trimmed: %q", cfg.Webhook.URL)
	}
	if cfg.Webhook.Method != "POST" {
		t.Fatalf("method should default to POST, got %q", cfg.Webhook.Method)
	}
	if cfg.Webhook.TimeoutSeconds != webhookDefaultTimeoutSeconds {
		t.Fatalf("timeout should default, got %d", cfg.Webhook.TimeoutSeconds)
	}
}

func TestLoadChannelsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty file",
			content: "channels: []\n",
			wantErr: "no channel entries",
		},
		{
			name: "missing id",
			content: `
channels:
  - kind: web
    type: webhook
    webhook: {url: https://example.com}
`,
			wantErr: "id is required",
		},
		{
			name: "bad kind",
			content: `
channels:
  - id: c1
    kind: carrier-pigeon
    type: webhook
    webhook: {url: https://example.com}
`,
			wantErr: "kind",
		},
		{
			name: "unknown type",
			content: `
channels:
  - id: c1
    kind: web
    type: smoke-signal
`,
			wantErr: "unknown type",
		},
		{
			name: "sqs missing region",
			content: `
channels:
  - id: c1
    kind: chat
    type: sqs
    sqs: {queue_url: https://example.com/q}
`,
			wantErr: "sqs.region",
		},
		{
			name: "sqs half-configured credentials",
			content: `
channels:
  - id: c1
    kind: chat
    type: sqs
    sqs:
      queue_url: https://example.com/q
      region: us-east-1
      access_key_id: AKIAEXAMPLE
`,
			wantErr: "set together",
		},
		{
			name: "sns missing topic",
			content: `
channels:
  - id: c1
    kind: chat
    type: sns
    sns: {region: us-east-1}
`,
			wantErr: "sns.topic_arn",
		},
		{
			name: "sns half-configured credentials",
			content: `
channels:
  - id: c1
    kind: chat
    type: sns
    sns:
      topic_arn: arn:aws:sns:us-east-1:123:releases
      region: us-east-1
      secret_access_key: wJalrEXAMPLE
`,
			wantErr: "set together",
		},
		{
			name: "pubsub missing project",
			content: `
channels:
  - id: c1
    kind: web
    type: pubsub
    pubsub: {topic: notifications}
`,
			wantErr: "pubsub.project_id",
		},
		{
			name: "duplicate ids",
			content: `
channels:
  - id: c1
    kind: web
    type: webhook
    webhook: {url: https://example.com}
  - id: c1
    kind: chat
    type: webhook
    webhook: {url: https://example.com/2}
`,
			wantErr: "duplicate channel id",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeChannelsFile(t, "channels.yaml", tc.content)
			_, err := LoadChannels(path)
			if err == nil {
				t.Fatal("LoadChannels succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("got error %q, want it to mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	chs, err := BuildAll(context.Background(), reg, []ChannelConfig{
		{ID: "hook", Kind: "web", Type: TypeWebhook, Webhook: &WebhookConfig{URL: "https://example.com", TimeoutSeconds: 1}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(chs) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(chs))
	}
	if chs[0].ID() != "hook" {
		t.Fatalf("unexpected channel id %q", chs[0].ID())
	}
}

func TestBuildAllUnknownType(t *testing.T) {
	reg := DefaultRegistry()
	_, err := BuildAll(context.Background(), reg, []ChannelConfig{
		{ID: "x", Kind: "web", Type: "smoke-signal"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown channel type")
	}
}
