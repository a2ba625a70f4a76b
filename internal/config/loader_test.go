package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
api_key: "12345:AAbbCCdd-ee"
bot_username: testbot
secret: ${BOTMAN_TEST_SECRET:-fallback-secret}
webhook:
  url: https://example.com/hook
  max_connections: 40
  allowed_updates: []
cron:
  groups:
    default: ["/cleanup"]
    maintenance: ["/prune", "/vacuum"]
gateway:
  bind: 127.0.0.1:9090
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "botman.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnvDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Secret != "fallback-secret" {
		t.Errorf("Secret = %q, want env default", cfg.Secret)
	}
	if cfg.Webhook.URL != "https://example.com/hook" {
		t.Errorf("Webhook.URL = %q", cfg.Webhook.URL)
	}
	if cfg.Gateway.Bind != "127.0.0.1:9090" {
		t.Errorf("Gateway.Bind = %q", cfg.Gateway.Bind)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadExpandsEnvValues(t *testing.T) {
	t.Setenv("BOTMAN_TEST_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Secret != "from-env" {
		t.Errorf("Secret = %q, want from-env", cfg.Secret)
	}
}

func TestLoadUnresolvedVariableFails(t *testing.T) {
	_, err := Load(writeConfig(t, "api_key: ${BOTMAN_NO_SUCH_VAR}\n"))
	if err == nil || !strings.Contains(err.Error(), "unresolved variable") {
		t.Errorf("Load() error = %v, want unresolved variable", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`api_key: "12345:AAbb"`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Gateway.Bind != "127.0.0.1:8080" {
		t.Errorf("default Gateway.Bind = %q", cfg.Gateway.Bind)
	}
	if cfg.Storage.Path != "botman.db" {
		t.Errorf("default Storage.Path = %q", cfg.Storage.Path)
	}
	if !cfg.RequestValidationEnabled() {
		t.Error("request validation should default to enabled")
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing api key", `bot_username: x`},
		{"malformed api key", `api_key: not-a-token`},
		{"http webhook url", "api_key: \"12345:AAbb\"\nwebhook:\n  url: http://insecure.example.com\n"},
		{"bad cidr", "api_key: \"12345:AAbb\"\nvalid_ips: [\"not-a-range\"]\n"},
		{"missing cron expr", "api_key: \"12345:AAbb\"\ncron:\n  schedule:\n    - groups: default\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestParamsBackedByConfig(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	p := cfg.Params()
	if got := p.String("cron.groups.maintenance.0", ""); got != "" {
		// Dotted descent does not index into lists; the whole list is the value.
		t.Errorf("indexing into list = %q, want empty", got)
	}
	groups := p.StringSlice("cron.groups.maintenance")
	if len(groups) != 2 || groups[0] != "/prune" {
		t.Errorf("cron.groups.maintenance = %v", groups)
	}
}
