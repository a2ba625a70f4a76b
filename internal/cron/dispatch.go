// Package cron resolves named command groups into command lists and submits
// them to the bot runtime, either on demand or on a schedule.
package cron

import (
	"context"
	"log/slog"
	"strings"

	"github.com/noplanman/telegram-bot-manager/internal/config"
	"github.com/noplanman/telegram-bot-manager/internal/output"
	"github.com/noplanman/telegram-bot-manager/internal/telegram"
)

// DefaultGroup is used when the invocation names no groups.
const DefaultGroup = "default"

// Runtime is the facade subset the dispatcher consumes.
type Runtime interface {
	RunCommands(ctx context.Context, commands []string) (telegram.Result, error)
}

// Dispatcher merges the command lists of the requested groups and submits
// them as a single execution.
type Dispatcher struct {
	runtime Runtime
	params  *config.Params
	sink    *output.Sink
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher for one invocation.
func NewDispatcher(runtime Runtime, params *config.Params, sink *output.Sink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{runtime: runtime, params: params, sink: sink, logger: logger}
}

// Run resolves the requested groups and submits the merged command list.
// Groups without configuration contribute nothing; duplicates are preserved
// in group order.
func (d *Dispatcher) Run(ctx context.Context) error {
	groups := ParseGroups(d.params.String("g", ""))

	var commands []string
	for _, group := range groups {
		commands = append(commands, d.params.StringSlice("cron.groups."+group)...)
	}

	d.logger.Info("running cron groups", "groups", groups, "commands", len(commands))

	res, err := d.runtime.RunCommands(ctx, commands)
	if err != nil {
		return err
	}
	d.sink.Append(res.Description + "\n")
	return nil
}

// ParseGroups splits a comma-separated group list, trimming entries and
// dropping empties. An empty input yields the default group.
func ParseGroups(raw string) []string {
	var groups []string
	for _, group := range strings.Split(raw, ",") {
		if group = strings.TrimSpace(group); group != "" {
			groups = append(groups, group)
		}
	}
	if len(groups) == 0 {
		return []string{DefaultGroup}
	}
	return groups
}
