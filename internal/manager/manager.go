// Package manager implements the per-invocation dispatch pipeline: action
// resolution, request validation, and routing to the webhook lifecycle, the
// update poller, or the cron dispatcher.
package manager

import (
	"context"
	"log/slog"
	"time"

	"github.com/noplanman/telegram-bot-manager/internal/config"
	"github.com/noplanman/telegram-bot-manager/internal/cron"
	"github.com/noplanman/telegram-bot-manager/internal/output"
	"github.com/noplanman/telegram-bot-manager/internal/poll"
	"github.com/noplanman/telegram-bot-manager/internal/telegram"
)

// Invocation is one request to the manager: the merged parameter view, the
// transport context, and (for webhook deliveries) the pushed update body.
type Invocation struct {
	Params  *config.Params
	Request RequestContext
	Body    []byte
}

// Deps wires a Manager. Config, Runtime, and Sink are required; the rest
// defaults to production implementations.
type Deps struct {
	Config  *config.Config
	Runtime Runtime
	Sink    *output.Sink
	Logger  *slog.Logger
	Clock   poll.Clock
	Sleep   func(time.Duration)
}

// Manager routes each invocation to exactly one operating mode.
type Manager struct {
	cfg       *config.Config
	runtime   Runtime
	sink      *output.Sink
	logger    *slog.Logger
	clock     poll.Clock
	sleep     func(time.Duration)
	formatter poll.Formatter
}

// New creates a Manager.
func New(d Deps) *Manager {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clock == nil {
		d.Clock = poll.SystemClock()
	}
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
	return &Manager{
		cfg:     d.Config,
		runtime: d.Runtime,
		sink:    d.Sink,
		logger:  d.Logger,
		clock:   d.Clock,
		sleep:   d.Sleep,
	}
}

// SetCustomFormatter replaces the default fetch-result formatter for all
// subsequent polling invocations on this manager.
func (m *Manager) SetCustomFormatter(f poll.Formatter) {
	m.formatter = f
}

// Sink returns the output sink invocations write to. The invoking process
// drains it after Run.
func (m *Manager) Sink() *output.Sink {
	return m.sink
}

// Run executes one invocation. Fatal conditions (access denied, invalid
// webhook, invalid action) come back as errors; facade-level failures are
// reported as text through the sink and do not abort the invocation.
func (m *Manager) Run(ctx context.Context, inv Invocation) error {
	action, err := ParseAction(inv.Params.String("a", ""))
	if err != nil {
		return err
	}

	validator := NewRequestValidator(inv.Params, inv.Request, m.logger)
	if err := validator.ValidateSecret(false); err != nil {
		return err
	}
	if err := validator.ValidateRequest(); err != nil {
		return err
	}

	m.logger.Debug("dispatching invocation", "action", string(action), "cli", inv.Request.CLI)

	switch action {
	case ActionWebhookInfo:
		res, err := m.runtime.WebhookInfo(ctx)
		if err != nil {
			return err
		}
		m.sink.Append(res.Description + "\n")
		return nil

	case ActionSet, ActionUnset, ActionReset:
		lifecycle := NewWebhookLifecycle(m.runtime, inv.Params, m.sink, m.sleep, m.logger)
		return lifecycle.Process(ctx, action)

	case ActionCron:
		m.runtime.Apply(m.runtimeSettings())
		dispatcher := cron.NewDispatcher(m.runtime, inv.Params, m.sink, m.logger)
		return dispatcher.Run(ctx)

	default: // ActionHandle
		m.runtime.Apply(m.runtimeSettings())
		poller := poll.New(m.runtime, inv.Params, m.sink, m.clock, m.logger)
		if m.formatter != nil {
			poller.SetFormatter(m.formatter)
		}
		return poller.HandleRequest(ctx, inv.Body)
	}
}

// runtimeSettings builds the pass-through configuration applied to the
// runtime before handle and cron invocations.
func (m *Manager) runtimeSettings() telegram.Settings {
	return telegram.Settings{
		Admins:         m.cfg.Admins,
		CommandPaths:   m.cfg.Commands.Paths,
		CommandConfigs: m.cfg.Commands.Configs,
		CustomInput:    m.cfg.CustomInput,
		DownloadPath:   m.cfg.Paths.Download,
		UploadPath:     m.cfg.Paths.Upload,
		EnableDB:       m.cfg.Storage.Enabled,
		Limiter: telegram.LimiterSettings{
			Enabled:  m.cfg.Limiter.Enabled,
			Interval: m.cfg.Limiter.Interval,
		},
	}
}
