package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/noplanman/telegram-bot-manager/internal/config"
	"github.com/noplanman/telegram-bot-manager/internal/output"
	"github.com/noplanman/telegram-bot-manager/internal/poll"
	"github.com/noplanman/telegram-bot-manager/internal/telegram"
)

const managerConfigYAML = `
api_key: "12345:AAEexampleExampleExampleExample"
secret: "super_secret"
admins: [1234]
commands:
  configs:
    cleanup:
      dry_run: true
cron:
  groups:
    default: ["/cleanup"]
    maintenance: ["/report", "/purge"]
`

func newTestManager(t *testing.T, runtime *fakeRuntime) (*Manager, *config.Config) {
	t.Helper()

	cfg, err := config.Parse([]byte(managerConfigYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	m := New(Deps{
		Config:  cfg,
		Runtime: runtime,
		Sink:    output.NewSink(nil),
		Sleep:   func(time.Duration) {},
	})
	return m, cfg
}

func cliInvocation(cfg *config.Config, overrides map[string]string) Invocation {
	return Invocation{
		Params:  cfg.Params().With(overrides),
		Request: RequestContext{CLI: true},
	}
}

func TestRunWebhookInfo(t *testing.T) {
	runtime := &fakeRuntime{}
	m, cfg := newTestManager(t, runtime)

	if err := m.Run(context.Background(), cliInvocation(cfg, map[string]string{"a": "webhookinfo"})); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(runtime.calls) != 1 || runtime.calls[0] != "info" {
		t.Fatalf("calls = %v, want [info]", runtime.calls)
	}
	if got := m.Sink().Drain(); !strings.Contains(got, "Webhook URL") {
		t.Fatalf("output = %q", got)
	}
}

func TestRunInvalidAction(t *testing.T) {
	runtime := &fakeRuntime{}
	m, cfg := newTestManager(t, runtime)

	err := m.Run(context.Background(), cliInvocation(cfg, map[string]string{"a": "explode"}))
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("Run = %v, want ErrInvalidAction", err)
	}
	if len(runtime.calls) != 0 {
		t.Fatalf("calls = %v, want none", runtime.calls)
	}
}

func TestRunDeniesBadSecret(t *testing.T) {
	runtime := &fakeRuntime{}
	m, cfg := newTestManager(t, runtime)

	inv := Invocation{
		Params:  cfg.Params().With(map[string]string{"a": "webhookinfo", "s": "wrong"}),
		Request: RequestContext{RemoteAddr: "149.154.167.220:443"},
	}
	if err := m.Run(context.Background(), inv); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Run = %v, want ErrAccessDenied", err)
	}
}

func TestRunDeniesForeignSource(t *testing.T) {
	runtime := &fakeRuntime{}
	m, cfg := newTestManager(t, runtime)

	inv := Invocation{
		Params:  cfg.Params().With(map[string]string{"a": "webhookinfo", "s": "super_secret"}),
		Request: RequestContext{RemoteAddr: "203.0.113.7:1234"},
	}
	if err := m.Run(context.Background(), inv); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("Run = %v, want ErrAccessDenied", err)
	}
}

func TestRunCronAppliesSettingsAndDispatches(t *testing.T) {
	runtime := &fakeRuntime{}
	m, cfg := newTestManager(t, runtime)

	inv := cliInvocation(cfg, map[string]string{"a": "cron", "g": "maintenance"})
	if err := m.Run(context.Background(), inv); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(runtime.applied) != 1 {
		t.Fatalf("applied = %d settings, want 1", len(runtime.applied))
	}
	if got := runtime.applied[0].Admins; len(got) != 1 || got[0] != 1234 {
		t.Fatalf("admins = %v", got)
	}
	if len(runtime.commands) != 1 {
		t.Fatalf("commands = %v, want one batch", runtime.commands)
	}
	batch := runtime.commands[0]
	if len(batch) != 2 || batch[0] != "/report" || batch[1] != "/purge" {
		t.Fatalf("batch = %v", batch)
	}
}

func TestRunHandleDefaultsToPolling(t *testing.T) {
	runtime := &fakeRuntime{fetch: telegram.FetchResult{OK: true}}
	m, cfg := newTestManager(t, runtime)

	if err := m.Run(context.Background(), cliInvocation(cfg, nil)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(runtime.calls) != 1 || runtime.calls[0] != "fetch" {
		t.Fatalf("calls = %v, want [fetch]", runtime.calls)
	}
	if got := m.Sink().Drain(); !strings.Contains(got, "Updates received: 0") {
		t.Fatalf("output = %q", got)
	}
}

func TestRunHandleDelegatesToWebhookWhenConfigured(t *testing.T) {
	runtime := &fakeRuntime{}
	cfg, err := config.Parse([]byte(managerConfigYAML + `
webhook:
  url: "https://example.com/hook"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := New(Deps{Config: cfg, Runtime: runtime, Sink: output.NewSink(nil)})

	inv := Invocation{
		Params:  cfg.Params().With(map[string]string{"a": "handle"}),
		Request: RequestContext{CLI: true},
		Body:    []byte(`{"update_id":7}`),
	}
	if err := m.Run(context.Background(), inv); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(runtime.handled) != 1 || string(runtime.handled[0]) != `{"update_id":7}` {
		t.Fatalf("handled = %q", runtime.handled)
	}
}

func TestRunUsesCustomFormatter(t *testing.T) {
	runtime := &fakeRuntime{fetch: telegram.FetchResult{
		OK:      true,
		Updates: []telegram.Update{{UpdateID: 7, Message: &telegram.Message{Text: "hi", Chat: telegram.Chat{ID: 123}}}},
	}}
	m, cfg := newTestManager(t, runtime)

	m.SetCustomFormatter(poll.FormatterFunc(func(res telegram.FetchResult) string {
		return fmt.Sprintf("got %d updates\n", len(res.Updates))
	}))

	if err := m.Run(context.Background(), cliInvocation(cfg, nil)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := m.Sink().Drain()
	if got != "got 1 updates\n" {
		t.Fatalf("output = %q, want custom formatter output", got)
	}
	if strings.Contains(got, "Updates received") {
		t.Fatal("default formatter output should be fully replaced")
	}
}
