// Package main is the entry point for the botman CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/noplanman/telegram-bot-manager/internal/config"
	"github.com/noplanman/telegram-bot-manager/internal/cron"
	"github.com/noplanman/telegram-bot-manager/internal/gateway"
	"github.com/noplanman/telegram-bot-manager/internal/manager"
	"github.com/noplanman/telegram-bot-manager/internal/output"
	"github.com/noplanman/telegram-bot-manager/internal/storage"
	"github.com/noplanman/telegram-bot-manager/internal/telegram"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// invocationFlags are the per-invocation override flags shared by run and
// mirrored by the gateway's query parameters.
type invocationFlags struct {
	action   string
	secret   string
	loop     string
	interval string
	groups   string
}

func main() {
	// A .env next to the binary is a convenience for ${VAR} references in
	// the config file; a missing one is not an error.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "botman",
		Short:         "Manage and consume a Telegram bot: webhooks, polling, cron commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "botman.yaml", "Path to configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.AddCommand(versionCmd(), runCmd(), serveCmd(), scheduleCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("botman %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func runCmd() *cobra.Command {
	var flags invocationFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one manager invocation and print its output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, output.NewSink(os.Stdout))
			if err != nil {
				return err
			}
			defer app.close()

			inv := manager.Invocation{
				Params:  app.cfg.Params().With(overrides(cmd, flags)),
				Request: manager.RequestContext{CLI: true},
			}
			return app.manager.Run(cmd.Context(), inv)
		},
	}

	cmd.Flags().StringVarP(&flags.action, "action", "a", "", "Action: webhookinfo, set, unset, reset, handle, cron")
	cmd.Flags().StringVarP(&flags.secret, "secret", "s", "", "Access secret for this invocation")
	cmd.Flags().StringVarP(&flags.loop, "loop", "l", "", "Poll loop duration in seconds (empty for the default window)")
	cmd.Flags().StringVarP(&flags.interval, "interval", "i", "", "Poll loop interval in seconds")
	cmd.Flags().StringVarP(&flags.groups, "groups", "g", "", "Comma-separated cron command groups")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the manager over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, output.NewSink(nil))
			if err != nil {
				return err
			}
			defer app.close()

			// Fail fast on a bad token before binding the listener.
			me, err := app.client.GetMe(cmd.Context())
			if err != nil {
				return fmt.Errorf("token check failed: %w", err)
			}
			app.logger.Info("bot authenticated", "username", me.Username, "id", me.ID)

			gw := gateway.New(app.cfg, app.manager, app.logger)
			if err := gw.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			return gw.Stop(context.Background())
		},
	}
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run configured cron dispatches on their schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, output.NewSink(os.Stdout))
			if err != nil {
				return err
			}
			defer app.close()

			if len(app.cfg.Cron.Schedule) == 0 {
				return fmt.Errorf("no cron.schedule entries configured")
			}

			submit := func(ctx context.Context, groups string) error {
				inv := manager.Invocation{
					Params:  app.cfg.Params().With(map[string]string{"a": "cron", "g": groups}),
					Request: manager.RequestContext{CLI: true},
				}
				return app.manager.Run(ctx, inv)
			}

			scheduler := cron.NewScheduler(app.cfg.Cron.Schedule, submit, app.logger)
			if err := scheduler.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			return scheduler.Stop(context.Background())
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("Configuration OK")
			return nil
		},
	})
	return cmd
}

// app holds the wired invocation pipeline for one command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *telegram.Client
	manager *manager.Manager
	store   *storage.Store
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// buildApp loads the configuration and wires the bot runtime behind a
// manager writing to the given sink.
func buildApp(cmd *cobra.Command, sink *output.Sink) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", levelName)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	client := telegram.NewClient(cfg.APIKey, cfg.APIURL, logger)

	a := &app{cfg: cfg, logger: logger, client: client}
	if cfg.Storage.Enabled {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
		client.SetOffsetStore(store)
	}

	a.manager = manager.New(manager.Deps{
		Config:  cfg,
		Runtime: client,
		Sink:    sink,
		Logger:  logger,
	})
	return a, nil
}

// overrides collects only the invocation flags the user actually set, so
// absent and empty flag values stay distinguishable.
func overrides(cmd *cobra.Command, flags invocationFlags) map[string]string {
	values := map[string]string{}
	for key, entry := range map[string]struct {
		name  string
		value string
	}{
		"a": {"action", flags.action},
		"s": {"secret", flags.secret},
		"l": {"loop", flags.loop},
		"i": {"interval", flags.interval},
		"g": {"groups", flags.groups},
	} {
		if cmd.Flags().Changed(entry.name) {
			values[key] = entry.value
		}
	}
	return values
}
