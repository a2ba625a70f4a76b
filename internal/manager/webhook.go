package manager

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/noplanman/telegram-bot-manager/internal/config"
	"github.com/noplanman/telegram-bot-manager/internal/output"
)

// WebhookLifecycle drives webhook registration, deregistration, and reset
// against the runtime facade.
type WebhookLifecycle struct {
	runtime Runtime
	params  *config.Params
	sink    *output.Sink
	sleep   func(time.Duration)
	logger  *slog.Logger
}

// NewWebhookLifecycle creates a controller for one invocation. A nil sleep
// uses time.Sleep.
func NewWebhookLifecycle(runtime Runtime, params *config.Params, sink *output.Sink, sleep func(time.Duration), logger *slog.Logger) *WebhookLifecycle {
	if sleep == nil {
		sleep = time.Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookLifecycle{
		runtime: runtime,
		params:  params,
		sink:    sink,
		sleep:   sleep,
		logger:  logger,
	}
}

// Process executes one set, unset, or reset action. Facade-level rejections
// are reported through the sink, not returned as errors.
func (w *WebhookLifecycle) Process(ctx context.Context, action Action) error {
	hookURL := strings.TrimSpace(w.params.String("webhook.url", ""))
	if action.IsAny(ActionSet, ActionReset) && hookURL == "" {
		return fmt.Errorf("%w: no webhook url configured", ErrInvalidWebhook)
	}

	if action.IsAny(ActionUnset, ActionReset) {
		res, err := w.runtime.DeleteWebhook(ctx)
		if err != nil {
			return err
		}
		w.sink.Append(res.Description + "\n")

		if action == ActionReset {
			// The Bot API throttles webhook registrations; give it a beat
			// between delete and set.
			w.sleep(time.Second)
		}
	}

	if action.IsAny(ActionSet, ActionReset) {
		res, err := w.runtime.SetWebhook(ctx, w.registrationURL(hookURL), WebhookOptions(w.params))
		if err != nil {
			return err
		}
		w.sink.Append(res.Description + "\n")
	}

	return nil
}

// registrationURL appends the handle action and the resolved secret to the
// configured webhook URL, so pushed deliveries authenticate themselves.
func (w *WebhookLifecycle) registrationURL(hookURL string) string {
	query := url.Values{}
	query.Set("a", string(ActionHandle))
	query.Set("s", w.params.String("secret", ""))

	sep := "?"
	if strings.Contains(hookURL, "?") {
		sep = "&"
	}
	return hookURL + sep + query.Encode()
}

// WebhookOptions assembles the registration options map, including only the
// keys that are meaningfully present. An allowed_updates list is included
// whenever configured, even when empty: an empty list is an explicit
// "default set only" signal, distinct from omission.
func WebhookOptions(params *config.Params) map[string]any {
	opts := map[string]any{}

	if cert := strings.TrimSpace(params.String("webhook.certificate", "")); cert != "" {
		opts["certificate"] = cert
	}
	if maxConn := params.Int("webhook.max_connections", 0); maxConn > 0 {
		opts["max_connections"] = maxConn
	}
	if list, ok := params.LookupStringSlice("webhook.allowed_updates"); ok {
		opts["allowed_updates"] = list
	}

	return opts
}
