package manager

import "errors"

var (
	// ErrAccessDenied marks a failed secret or source-address check. Fatal to
	// the invocation; never retried.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidWebhook marks a set or reset request without a configured
	// webhook URL.
	ErrInvalidWebhook = errors.New("invalid webhook")

	// ErrInvalidAction marks an unrecognized action token.
	ErrInvalidAction = errors.New("invalid action")
)
