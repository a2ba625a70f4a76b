package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/noplanman/telegram-bot-manager/internal/config"
)

// Submit runs one cron dispatch invocation for the given comma-separated
// group list. Wired to the manager by the caller; kept as a function value
// to avoid a dependency cycle.
type Submit func(ctx context.Context, groups string) error

// Scheduler runs configured group dispatches on cron expressions. Each entry
// is protected by a per-entry mutex so a slow dispatch skips overlapping
// ticks instead of stacking up (TryLock is atomic, no race).
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries []config.ScheduleEntry
	submit  Submit
	logger  *slog.Logger
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler over the configured entries.
func NewScheduler(entries []config.ScheduleEntry, submit Submit, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{entries: entries, submit: submit, logger: logger}
}

// Start parses all schedule expressions and begins ticking. Returns an error
// if any expression is invalid.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	for _, entry := range s.entries {
		entry := entry
		lock := &sync.Mutex{}
		groups := entry.Groups
		if groups == "" {
			groups = DefaultGroup
		}

		_, err := s.cron.AddFunc(entry.Expr, func() {
			if !lock.TryLock() {
				s.logger.Warn("cron dispatch still running, skipping tick", "groups", groups)
				return
			}
			defer lock.Unlock()

			s.logger.Debug("cron dispatch started", "groups", groups)
			if err := s.submit(ctx, groups); err != nil {
				s.logger.Error("cron dispatch failed", "groups", groups, "error", err)
			}
		})
		if err != nil {
			cancel()
			return fmt.Errorf("cron: invalid schedule %q: %w", entry.Expr, err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started", "entries", len(s.entries))
	return nil
}

// Stop shuts the scheduler down, waiting for in-flight dispatches.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("cron scheduler stopped")
	}
	return nil
}
