package telegram

import (
	"fmt"
	"strings"
	"time"
)

// Update represents an incoming update from the Telegram Bot API. Exactly one
// of the optional payload fields is set per update.
type Update struct {
	UpdateID           int                 `json:"update_id"`
	Message            *Message            `json:"message,omitempty"`
	EditedMessage      *Message            `json:"edited_message,omitempty"`
	ChannelPost        *Message            `json:"channel_post,omitempty"`
	EditedChannelPost  *Message            `json:"edited_channel_post,omitempty"`
	InlineQuery        *InlineQuery        `json:"inline_query,omitempty"`
	ChosenInlineResult *ChosenInlineResult `json:"chosen_inline_result,omitempty"`
	CallbackQuery      *CallbackQuery      `json:"callback_query,omitempty"`
}

// Kind returns the update's type string as used by the Bot API, or "unknown"
// when no payload field is set.
func (u *Update) Kind() string {
	switch {
	case u.Message != nil:
		return "message"
	case u.EditedMessage != nil:
		return "edited_message"
	case u.ChannelPost != nil:
		return "channel_post"
	case u.EditedChannelPost != nil:
		return "edited_channel_post"
	case u.InlineQuery != nil:
		return "inline_query"
	case u.ChosenInlineResult != nil:
		return "chosen_inline_result"
	case u.CallbackQuery != nil:
		return "callback_query"
	default:
		return "unknown"
	}
}

// Message represents a Telegram message.
type Message struct {
	MessageID int             `json:"message_id"`
	From      *User           `json:"from,omitempty"`
	Chat      Chat            `json:"chat"`
	Date      int             `json:"date"`
	Text      string          `json:"text,omitempty"`
	Entities  []MessageEntity `json:"entities,omitempty"`
	Photo     []PhotoSize     `json:"photo,omitempty"`
	Audio     *Audio          `json:"audio,omitempty"`
	Voice     *Voice          `json:"voice,omitempty"`
	Document  *Document       `json:"document,omitempty"`
	Sticker   *Sticker        `json:"sticker,omitempty"`
	Location  *Location       `json:"location,omitempty"`
	Caption   string          `json:"caption,omitempty"`
}

// ContentType returns the content subtype of the message: "command" for a
// message whose text starts with a bot command entity, "text" for plain text,
// the media kind for media messages, and "message" when nothing matches.
func (m *Message) ContentType() string {
	switch {
	case m.Text != "":
		if m.IsCommand() {
			return "command"
		}
		return "text"
	case len(m.Photo) > 0:
		return "photo"
	case m.Audio != nil:
		return "audio"
	case m.Voice != nil:
		return "voice"
	case m.Document != nil:
		return "document"
	case m.Sticker != nil:
		return "sticker"
	case m.Location != nil:
		return "location"
	default:
		return "message"
	}
}

// IsCommand reports whether the message is a bot command, i.e. its text
// starts with a bot_command entity at offset 0.
func (m *Message) IsCommand() bool {
	if !strings.HasPrefix(m.Text, "/") {
		return false
	}
	for _, e := range m.Entities {
		if e.Type == "bot_command" && e.Offset == 0 {
			return true
		}
	}
	return false
}

// Command returns the command name without the leading slash or a trailing
// @botname mention. Empty if the message is not a command.
func (m *Message) Command() string {
	if !m.IsCommand() {
		return ""
	}
	cmd, _, _ := strings.Cut(m.Text[1:], " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd
}

// Chat represents a Telegram chat.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// User represents a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// MessageEntity represents a special entity in a text message (e.g. hashtags,
// URLs, bot commands).
type MessageEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	URL    string `json:"url,omitempty"`
	User   *User  `json:"user,omitempty"`
}

// PhotoSize represents one size of a photo or a file/sticker thumbnail.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int    `json:"file_size,omitempty"`
}

// Audio represents an audio file.
type Audio struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Duration     int    `json:"duration"`
	Performer    string `json:"performer,omitempty"`
	Title        string `json:"title,omitempty"`
	MIMEType     string `json:"mime_type,omitempty"`
	FileSize     int    `json:"file_size,omitempty"`
}

// Voice represents a voice note.
type Voice struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Duration     int    `json:"duration"`
	MIMEType     string `json:"mime_type,omitempty"`
	FileSize     int    `json:"file_size,omitempty"`
}

// Document represents a general file (not photos, audio, or voice).
type Document struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MIMEType     string `json:"mime_type,omitempty"`
	FileSize     int    `json:"file_size,omitempty"`
}

// Sticker represents a sticker.
type Sticker struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Type         string `json:"type"`
	Emoji        string `json:"emoji,omitempty"`
	SetName      string `json:"set_name,omitempty"`
}

// Location represents a point on the map.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// InlineQuery represents an incoming inline query.
type InlineQuery struct {
	ID    string `json:"id"`
	From  User   `json:"from"`
	Query string `json:"query"`
}

// ChosenInlineResult represents an inline result chosen by a user.
type ChosenInlineResult struct {
	ResultID string `json:"result_id"`
	From     User   `json:"from"`
	Query    string `json:"query"`
}

// CallbackQuery represents an incoming callback query from an inline keyboard.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// WebhookInfo describes the current webhook status.
type WebhookInfo struct {
	URL                  string   `json:"url"`
	HasCustomCertificate bool     `json:"has_custom_certificate"`
	PendingUpdateCount   int      `json:"pending_update_count"`
	IPAddress            string   `json:"ip_address,omitempty"`
	LastErrorDate        int64    `json:"last_error_date,omitempty"`
	LastErrorMessage     string   `json:"last_error_message,omitempty"`
	MaxConnections       int      `json:"max_connections,omitempty"`
	AllowedUpdates       []string `json:"allowed_updates,omitempty"`
}

// Describe renders the webhook info as multi-line human-readable text.
func (w *WebhookInfo) Describe() string {
	var b strings.Builder
	if w.URL == "" {
		b.WriteString("Webhook: not set")
	} else {
		fmt.Fprintf(&b, "Webhook: %s", w.URL)
	}
	fmt.Fprintf(&b, "\nPending updates: %d", w.PendingUpdateCount)
	if w.HasCustomCertificate {
		b.WriteString("\nCustom certificate: yes")
	}
	if w.IPAddress != "" {
		fmt.Fprintf(&b, "\nIP address: %s", w.IPAddress)
	}
	if w.MaxConnections > 0 {
		fmt.Fprintf(&b, "\nMax connections: %d", w.MaxConnections)
	}
	if w.AllowedUpdates != nil {
		fmt.Fprintf(&b, "\nAllowed updates: [%s]", strings.Join(w.AllowedUpdates, ", "))
	}
	if w.LastErrorMessage != "" {
		fmt.Fprintf(&b, "\nLast error: %s (%s)",
			w.LastErrorMessage,
			time.Unix(w.LastErrorDate, 0).UTC().Format("2006-01-02 15:04:05"),
		)
	}
	return b.String()
}

// Result is the outcome of a facade operation. API-level rejections are
// reported here with OK=false, not as Go errors.
type Result struct {
	OK          bool
	Description string
}

// FetchResult is the outcome of one fetch-updates call.
type FetchResult struct {
	OK          bool
	Description string
	Updates     []Update
}

// APIResponse is the generic envelope returned by the Telegram Bot API.
type APIResponse[T any] struct {
	OK          bool                `json:"ok"`
	Result      T                   `json:"result"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters contains information about why a request was unsuccessful.
type ResponseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

// APIError represents an error returned by the Telegram Bot API.
type APIError struct {
	Code        int    `json:"error_code"`
	Description string `json:"description"`
	RetryAfter  int    `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram: %d %s (retry after %ds)", e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}
