// Package telegram implements the Bot API runtime the manager orchestrates:
// webhook registration, update fetching, inbound update handling, and
// scheduled command execution.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	maxRetries       = 3
	initialBackoff   = time.Second
	maxResponseBytes = 10 << 20 // prevent unbounded reads from API responses

	// DefaultAPIURL is the production Bot API endpoint.
	DefaultAPIURL = "https://api.telegram.org"
)

// UpdateHandler processes one parsed update. Registering a handler replaces
// the client's built-in logging dispatch.
type UpdateHandler func(ctx context.Context, update *Update) error

// Client is the Bot API runtime facade. API-level rejections are downgraded
// to Result values; transport failures surface as errors.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu       sync.Mutex
	settings Settings
	store    OffsetStore
	mem      memoryCursor
	handler  UpdateHandler
	lastCall time.Time
}

// NewClient creates a Bot API client. An empty baseURL selects the production
// endpoint.
func NewClient(token, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		logger:  logger,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetOffsetStore attaches a persistent poll-cursor store. It is only consulted
// while Settings.EnableDB is true; otherwise the in-process cursor is used.
func (c *Client) SetOffsetStore(s OffsetStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = s
}

// SetUpdateHandler registers the handler invoked for every processed update.
func (c *Client) SetUpdateHandler(h UpdateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Apply installs the pass-through runtime settings. Called by the manager
// before handle and cron invocations.
func (c *Client) Apply(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

// cursor returns the offset store to use under the current settings.
func (c *Client) cursor() OffsetStore {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settings.EnableDB && c.store != nil {
		return c.store
	}
	return &c.mem
}

// pace blocks until the rate limiter permits the next API call.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	var wait time.Duration
	now := time.Now()
	if c.settings.Limiter.Enabled {
		if next := c.lastCall.Add(c.settings.Limiter.interval()); next.After(now) {
			wait = next.Sub(now)
		}
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// call sends a JSON POST request to the given Bot API method and decodes the
// response envelope. It returns the result, the API's human-readable
// description, and handles 429 rate limiting with Retry-After.
func call[T any](ctx context.Context, c *Client, method string, payload any) (*T, string, error) {
	if err := c.pace(ctx); err != nil {
		return nil, "", err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("telegram: marshal %s request: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
		if err != nil {
			return nil, "", fmt.Errorf("telegram: create %s request: %w", method, err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// Wrap without the raw URL to avoid leaking the token-bearing
			// path in error messages.
			return nil, "", fmt.Errorf("telegram: %s request failed: %w", method, err)
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if err != nil {
			return nil, "", fmt.Errorf("telegram: read %s response: %w", method, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries-1 {
			var apiResp APIResponse[json.RawMessage]
			if err := json.Unmarshal(respBody, &apiResp); err == nil && apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
				backoff = time.Duration(apiResp.Parameters.RetryAfter) * time.Second
			}

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, "", ctx.Err()
			case <-timer.C:
			}
			backoff *= 2

			if payload != nil {
				data, _ := json.Marshal(payload)
				body = bytes.NewReader(data)
			}
			continue
		}

		var apiResp APIResponse[T]
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return nil, "", fmt.Errorf("telegram: decode %s response: %w", method, err)
		}

		if !apiResp.OK {
			apiErr := &APIError{
				Code:        apiResp.ErrorCode,
				Description: apiResp.Description,
			}
			if apiResp.Parameters != nil {
				apiErr.RetryAfter = apiResp.Parameters.RetryAfter
			}
			return nil, "", apiErr
		}

		return &apiResp.Result, apiResp.Description, nil
	}

	return nil, "", fmt.Errorf("telegram: %s: max retries exceeded", method)
}

// GetMe returns the bot's user information. Used at startup to validate the
// configured token.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	user, _, err := call[User](ctx, c, "getMe", nil)
	return user, err
}

// DeleteWebhook removes the current webhook integration.
func (c *Client) DeleteWebhook(ctx context.Context) (Result, error) {
	_, desc, err := call[bool](ctx, c, "deleteWebhook", nil)
	if err != nil {
		return rejection(err)
	}
	if desc == "" {
		desc = "Webhook deleted"
	}
	return Result{OK: true, Description: desc}, nil
}

// SetWebhook registers url as the webhook endpoint. The options map carries
// only the keys that are meaningfully present; an empty "allowed_updates"
// list is passed through as-is, which tells the API to subscribe to the
// default update set explicitly.
func (c *Client) SetWebhook(ctx context.Context, url string, options map[string]any) (Result, error) {
	payload := map[string]any{"url": url}
	for k, v := range options {
		payload[k] = v
	}

	_, desc, err := call[bool](ctx, c, "setWebhook", payload)
	if err != nil {
		return rejection(err)
	}
	if desc == "" {
		desc = "Webhook set"
	}
	return Result{OK: true, Description: desc}, nil
}

// WebhookInfo fetches and renders the current webhook status.
func (c *Client) WebhookInfo(ctx context.Context) (Result, error) {
	info, _, err := call[WebhookInfo](ctx, c, "getWebhookInfo", nil)
	if err != nil {
		return rejection(err)
	}
	return Result{OK: true, Description: info.Describe()}, nil
}

// FetchUpdates performs one getUpdates call starting at the stored offset,
// dispatches every received update, and confirms the new offset.
func (c *Client) FetchUpdates(ctx context.Context) (FetchResult, error) {
	store := c.cursor()

	offset, err := store.LoadOffset(ctx)
	if err != nil {
		c.logger.Warn("loading poll cursor failed, starting from 0", "error", err)
		offset = 0
	}

	updates, _, err := call[[]Update](ctx, c, "getUpdates", map[string]any{
		"offset": offset,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return FetchResult{Description: apiErr.Description}, nil
		}
		return FetchResult{}, err
	}

	for i := range *updates {
		u := &(*updates)[i]
		if err := c.dispatch(ctx, u); err != nil {
			c.logger.Error("update dispatch failed", "update_id", u.UpdateID, "error", err)
		}
	}

	if n := len(*updates); n > 0 {
		next := (*updates)[n-1].UpdateID + 1
		if err := store.SaveOffset(ctx, next); err != nil {
			c.logger.Warn("saving poll cursor failed", "offset", next, "error", err)
		}
	}

	return FetchResult{OK: true, Updates: *updates}, nil
}

// HandleUpdate processes one pushed update synchronously. An empty body falls
// back to the configured custom input, if any.
func (c *Client) HandleUpdate(ctx context.Context, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		c.mu.Lock()
		custom := c.settings.CustomInput
		c.mu.Unlock()
		if custom == "" {
			return errors.New("telegram: empty update body")
		}
		body = []byte(custom)
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("telegram: invalid update JSON: %w", err)
	}

	return c.dispatch(ctx, &update)
}

// RunCommands executes the merged cron command list by feeding a synthetic
// command update per entry through the dispatch pipeline.
func (c *Client) RunCommands(ctx context.Context, commands []string) (Result, error) {
	c.mu.Lock()
	var sender int64 = 1
	if len(c.settings.Admins) > 0 {
		sender = c.settings.Admins[0]
	}
	c.mu.Unlock()

	var failed int
	for _, cmd := range commands {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		if !strings.HasPrefix(cmd, "/") {
			cmd = "/" + cmd
		}
		if err := c.dispatch(ctx, syntheticCommand(cmd, sender)); err != nil {
			failed++
			c.logger.Error("scheduled command failed", "command", cmd, "error", err)
		}
	}

	desc := fmt.Sprintf("Ran %d commands", len(commands))
	if failed > 0 {
		desc = fmt.Sprintf("%s, %d failed", desc, failed)
	}
	return Result{OK: failed == 0, Description: desc}, nil
}

// dispatch routes one parsed update to the registered handler, or to the
// built-in logging dispatch when none is set.
func (c *Client) dispatch(ctx context.Context, u *Update) error {
	c.mu.Lock()
	handler := c.handler
	configs := c.settings.CommandConfigs
	c.mu.Unlock()

	if handler != nil {
		return handler(ctx, u)
	}

	if msg := u.Message; msg != nil && msg.IsCommand() {
		name := msg.Command()
		_, configured := configs[name]
		c.logger.Info("command received",
			"command", name,
			"chat", msg.Chat.ID,
			"configured", configured,
		)
		return nil
	}

	c.logger.Debug("update received", "update_id", u.UpdateID, "kind", u.Kind())
	return nil
}

// syntheticCommand builds the update fed through dispatch for a scheduled
// command, attributed to the given sender chat.
func syntheticCommand(cmd string, sender int64) *Update {
	name, _, _ := strings.Cut(cmd, " ")
	return &Update{
		Message: &Message{
			Text: cmd,
			Date: int(time.Now().Unix()),
			Entities: []MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(name)},
			},
			Chat: Chat{ID: sender, Type: "private"},
			From: &User{ID: sender},
		},
	}
}

// rejection converts an API-level error into a failed Result; transport
// errors pass through unchanged.
func rejection(err error) (Result, error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Result{Description: apiErr.Description}, nil
	}
	return Result{}, err
}
