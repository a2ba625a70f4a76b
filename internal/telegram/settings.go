package telegram

import "time"

// Settings carries the pass-through runtime configuration the manager applies
// before a handle or cron invocation. All fields are optional; zero values
// leave the corresponding behavior unchanged from the client defaults.
type Settings struct {
	// Admins are chat IDs allowed to run administrative commands. The first
	// entry is also used as the synthetic sender for cron-executed commands.
	Admins []int64

	// CommandPaths are extra directories searched for command definitions.
	CommandPaths []string

	// CommandConfigs holds per-command configuration overrides keyed by
	// command name.
	CommandConfigs map[string]map[string]any

	// CustomInput, when set, replaces an empty inbound-handle body. Used to
	// feed a canned update through the pipeline for testing a deployment.
	CustomInput string

	// DownloadPath and UploadPath point at the directories used for Bot API
	// file transfers.
	DownloadPath string
	UploadPath   string

	// EnableDB switches the poll cursor from the in-process fallback to the
	// persistent store, when one is attached.
	EnableDB bool

	// Limiter throttles outgoing Bot API calls.
	Limiter LimiterSettings
}

// LimiterSettings configures client-side request pacing.
type LimiterSettings struct {
	Enabled bool

	// Interval is the minimum delay between consecutive Bot API calls.
	// Zero means the Telegram-documented default of 1 second.
	Interval time.Duration
}

// interval returns the effective pacing interval.
func (l LimiterSettings) interval() time.Duration {
	if l.Interval > 0 {
		return l.Interval
	}
	return time.Second
}
