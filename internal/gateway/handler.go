package gateway

import (
	"errors"
	"io"
	"net/http"

	"github.com/noplanman/telegram-bot-manager/internal/manager"
)

// overrideParams are the query parameters forwarded into the invocation as
// flat overrides. Only parameters present in the request are layered on, so
// absent and empty stay distinguishable downstream.
var overrideParams = []string{"a", "s", "l", "i", "g"}

// maxBodyBytes caps webhook delivery bodies. Telegram updates are small;
// anything near this limit is not a bot update.
const maxBodyBytes = 1 << 20

// handleInvoke runs one manager invocation per request. Invocations are
// serialised; polling loops hold the lock for their full duration.
func (g *Gateway) handleInvoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Method == http.MethodPost {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				http.Error(w, "failed to read body", http.StatusBadRequest)
				return
			}
		}

		overrides := make(map[string]string)
		query := r.URL.Query()
		for _, key := range overrideParams {
			if query.Has(key) {
				overrides[key] = query.Get(key)
			}
		}

		inv := manager.Invocation{
			Params: g.cfg.Params().With(overrides),
			Request: manager.RequestContext{
				RemoteAddr:   r.RemoteAddr,
				ClientIP:     r.Header.Get("X-Client-Ip"),
				ForwardedFor: r.Header.Get("X-Forwarded-For"),
			},
			Body: body,
		}

		action := query.Get("a")
		if action == "" {
			action = string(manager.ActionHandle)
		}

		g.invokeMu.Lock()
		err := g.invoker.Run(r.Context(), inv)
		text := g.invoker.Sink().Drain()
		g.invokeMu.Unlock()

		if err != nil {
			g.metrics.RecordInvocation(action, "error")
			g.writeError(w, action, err)
			return
		}

		g.metrics.RecordInvocation(action, "ok")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if text == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, text)
	}
}

// writeError maps fatal invocation errors to HTTP statuses.
func (g *Gateway) writeError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, manager.ErrAccessDenied):
		g.metrics.RecordAccessDenied()
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, manager.ErrInvalidAction), errors.Is(err, manager.ErrInvalidWebhook):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		g.logger.Error("invocation failed", "action", action, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
