package manager

import (
	"context"

	"github.com/noplanman/telegram-bot-manager/internal/telegram"
)

// Runtime is the bot runtime facade the manager orchestrates. API-level
// rejections come back as failed Results; only transport-level failures
// surface as errors and abort the invocation.
type Runtime interface {
	DeleteWebhook(ctx context.Context) (telegram.Result, error)
	SetWebhook(ctx context.Context, url string, options map[string]any) (telegram.Result, error)
	WebhookInfo(ctx context.Context) (telegram.Result, error)
	FetchUpdates(ctx context.Context) (telegram.FetchResult, error)
	HandleUpdate(ctx context.Context, body []byte) error
	RunCommands(ctx context.Context, commands []string) (telegram.Result, error)
	Apply(settings telegram.Settings)
}
