// Package gateway exposes the manager over HTTP: the action endpoint that
// mirrors the CLI surface, plus health and metrics endpoints.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/noplanman/telegram-bot-manager/internal/config"
	"github.com/noplanman/telegram-bot-manager/internal/manager"
	"github.com/noplanman/telegram-bot-manager/internal/output"
)

// Invoker runs one manager invocation and owns the sink it writes to.
// Satisfied by *manager.Manager.
type Invoker interface {
	Run(ctx context.Context, inv manager.Invocation) error
	Sink() *output.Sink
}

// Gateway is the HTTP front end. Invocations are serialised with a mutex:
// the sink is shared and polling loops must not overlap.
type Gateway struct {
	cfg       *config.Config
	invoker   Invoker
	logger    *slog.Logger
	metrics   *Metrics
	server    *http.Server
	startedAt time.Time

	invokeMu sync.Mutex
}

// New creates a Gateway over the given configuration and invoker.
func New(cfg *config.Config, invoker Invoker, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg:     cfg,
		invoker: invoker,
		logger:  logger,
		metrics: NewMetrics(),
	}
}

// Start begins listening on the configured bind address. It returns once the
// listener is established; serving continues in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.cfg.Gateway.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.cfg.Gateway.ReadTimeout,
		WriteTimeout: g.cfg.Gateway.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.cfg.Gateway.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.cfg.Gateway.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully with the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.cfg.Gateway.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
