// Package poll fetches updates from the bot runtime, once or in a
// wall-clock-bounded loop, and renders them for the output sink.
package poll

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/noplanman/telegram-bot-manager/internal/config"
	"github.com/noplanman/telegram-bot-manager/internal/output"
	"github.com/noplanman/telegram-bot-manager/internal/telegram"
)

const (
	// defaultLoopDuration is used when the loop parameter is present but
	// empty: poll "forever", capped at seven days.
	defaultLoopDuration = 604800 * time.Second

	defaultLoopInterval = 2 * time.Second
	minLoopInterval     = time.Second
)

// Runtime is the facade subset the poller consumes.
type Runtime interface {
	FetchUpdates(ctx context.Context) (telegram.FetchResult, error)
	HandleUpdate(ctx context.Context, body []byte) error
}

// Poller drives the handle action: webhook delivery when a webhook is
// configured, otherwise a single fetch or a bounded fetch loop.
type Poller struct {
	runtime   Runtime
	params    *config.Params
	sink      *output.Sink
	clock     Clock
	logger    *slog.Logger
	formatter Formatter
}

// New creates a Poller for one invocation.
func New(runtime Runtime, params *config.Params, sink *output.Sink, clock Clock, logger *slog.Logger) *Poller {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		runtime:   runtime,
		params:    params,
		sink:      sink,
		clock:     clock,
		logger:    logger,
		formatter: NewDefaultFormatter(clock),
	}
}

// SetFormatter registers a formatter that fully replaces the default one for
// all subsequent fetch cycles on this instance.
func (p *Poller) SetFormatter(f Formatter) {
	if f != nil {
		p.formatter = f
	}
}

// HandleRequest routes the handle action. With a configured webhook URL the
// pushed body is handed to the runtime synchronously; otherwise updates are
// pulled, once or in a loop depending on the resolved duration.
func (p *Poller) HandleRequest(ctx context.Context, body []byte) error {
	if strings.TrimSpace(p.params.String("webhook.url", "")) != "" {
		return p.runtime.HandleUpdate(ctx, body)
	}

	duration := LoopDuration(p.params.LookupString("l"))
	if duration > 0 {
		return p.loop(ctx, duration, LoopInterval(p.params.LookupString("i")))
	}
	return p.fetchOnce(ctx)
}

// loop performs fetch-and-process cycles until the wall clock passes
// start+duration. The interval sleep is not interrupted mid-sleep, so the
// final iteration may overrun slightly.
func (p *Poller) loop(ctx context.Context, duration, interval time.Duration) error {
	end := p.clock.Now().Add(duration)
	p.logger.Info("polling updates", "until", end.Format(time.RFC3339), "interval", interval)

	for p.clock.Now().Before(end) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.fetchOnce(ctx); err != nil {
			return err
		}
		p.clock.Sleep(interval)
	}
	return nil
}

// fetchOnce performs one fetch-and-process cycle and appends the formatted
// result to the sink. A failed fetch is diagnostic output, not an error.
func (p *Poller) fetchOnce(ctx context.Context) error {
	res, err := p.runtime.FetchUpdates(ctx)
	if err != nil {
		return err
	}
	p.sink.Append(p.formatter.Format(res))
	return nil
}

// LoopDuration resolves the loop duration parameter. Absent means no loop;
// an empty or whitespace-only value selects the seven-day default; anything
// else is coerced to integer seconds and clamped to a minimum of 0.
func LoopDuration(raw string, present bool) time.Duration {
	if !present {
		return 0
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultLoopDuration
	}
	seconds := atoi(trimmed)
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds) * time.Second
}

// LoopInterval resolves the loop interval parameter. Absent or empty selects
// the 2-second default; anything else is coerced to integer seconds and
// clamped to a minimum of 1.
func LoopInterval(raw string, present bool) time.Duration {
	trimmed := strings.TrimSpace(raw)
	if !present || trimmed == "" {
		return defaultLoopInterval
	}
	interval := time.Duration(atoi(trimmed)) * time.Second
	if interval < minLoopInterval {
		return minLoopInterval
	}
	return interval
}

// atoi coerces loosely: unparseable values count as 0, matching the clamp
// semantics of the duration and interval parameters.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
