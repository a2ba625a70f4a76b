package manager

import "fmt"

// Action is the operating mode selected for one invocation. The set is
// closed; anything else fails action resolution.
type Action string

const (
	ActionWebhookInfo Action = "webhookinfo"
	ActionSet         Action = "set"
	ActionUnset       Action = "unset"
	ActionReset       Action = "reset"
	ActionHandle      Action = "handle"
	ActionCron        Action = "cron"
)

// ParseAction resolves the action token. An empty token defaults to handle,
// which is what a bare webhook delivery carries.
func ParseAction(token string) (Action, error) {
	if token == "" {
		return ActionHandle, nil
	}
	switch a := Action(token); a {
	case ActionWebhookInfo, ActionSet, ActionUnset, ActionReset, ActionHandle, ActionCron:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, token)
}

// IsAny reports whether the action is one of the given set.
func (a Action) IsAny(actions ...Action) bool {
	for _, candidate := range actions {
		if a == candidate {
			return true
		}
	}
	return false
}
