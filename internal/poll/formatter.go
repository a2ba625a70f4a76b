package poll

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/noplanman/telegram-bot-manager/internal/telegram"
)

// Formatter turns one fetch result into the text appended to the output
// sink. Registering a custom Formatter fully replaces the default one.
type Formatter interface {
	Format(res telegram.FetchResult) string
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(res telegram.FetchResult) string

// Format implements Formatter.
func (f FormatterFunc) Format(res telegram.FetchResult) string {
	return f(res)
}

const timestampLayout = "2006-01-02 15:04:05"

// spaceRun matches internal runs of whitespace collapsed in summary labels.
var spaceRun = regexp.MustCompile(`\s+`)

// defaultFormatter renders a timestamped header plus one summary line per
// update.
type defaultFormatter struct {
	clock Clock
}

// NewDefaultFormatter returns the formatter used when no custom one is
// registered.
func NewDefaultFormatter(clock Clock) Formatter {
	if clock == nil {
		clock = SystemClock()
	}
	return &defaultFormatter{clock: clock}
}

// Format implements Formatter.
func (f *defaultFormatter) Format(res telegram.FetchResult) string {
	now := f.clock.Now().Format(timestampLayout)

	if !res.OK {
		return fmt.Sprintf("%s - Failed to fetch updates\n%s\n", now, res.Description)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - Updates received: %d\n", now, len(res.Updates))
	for i := range res.Updates {
		chatID, label := summarize(&res.Updates[i])
		fmt.Fprintf(&b, "%s: %s\n", chatID, label)
	}
	return b.String()
}

// summarize derives the (chat_id, label) diagnostic pair for one update.
// Updates without an attributable chat get the "n/a" placeholder and a bare
// type label.
func summarize(u *telegram.Update) (string, string) {
	kind := u.Kind()

	switch {
	case u.Message != nil:
		return formatID(u.Message.Chat.ID), cleanLabel(kind + ";" + u.Message.ContentType())
	case u.InlineQuery != nil:
		return formatID(u.InlineQuery.From.ID), cleanLabel(kind + ";" + u.InlineQuery.Query)
	case u.ChosenInlineResult != nil:
		return formatID(u.ChosenInlineResult.From.ID), cleanLabel(kind + ";" + u.ChosenInlineResult.Query)
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return formatID(u.CallbackQuery.Message.Chat.ID), cleanLabel(kind + ";" + u.CallbackQuery.Data)
	default:
		return "n/a", cleanLabel(kind)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// cleanLabel collapses internal whitespace runs to single spaces and trims.
func cleanLabel(label string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(label, " "))
}
