package manager

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strings"

	"github.com/noplanman/telegram-bot-manager/internal/config"
)

// telegramRanges are the published Bot API source ranges. Pushed updates must
// originate from one of these unless extra ranges are configured.
var telegramRanges = []netip.Prefix{
	netip.MustParsePrefix("149.154.160.0/20"),
	netip.MustParsePrefix("91.108.4.0/22"),
}

// RequestValidator authenticates an invocation (shared secret) and authorizes
// its transport-level source (IP allow-list).
type RequestValidator struct {
	params  *config.Params
	request RequestContext
	logger  *slog.Logger
}

// NewRequestValidator creates a validator for one invocation.
func NewRequestValidator(params *config.Params, request RequestContext, logger *slog.Logger) *RequestValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestValidator{params: params, request: request, logger: logger}
}

// ValidateSecret compares the configured secret against the one supplied with
// the invocation. CLI invocations skip the check unless force is set. The
// comparison is constant-time.
func (v *RequestValidator) ValidateSecret(force bool) error {
	if v.request.CLI && !force {
		return nil
	}

	configured := v.params.String("secret", "")
	supplied := v.params.String("s", "")

	if configured == "" || supplied == "" {
		return fmt.Errorf("%w: invalid access secret", ErrAccessDenied)
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) != 1 {
		return fmt.Errorf("%w: invalid access secret", ErrAccessDenied)
	}
	return nil
}

// IsValidRequest reports whether the invocation's source address is
// acceptable. CLI invocations outside a test harness always pass, as do all
// requests when validation is disabled via configuration.
func (v *RequestValidator) IsValidRequest() bool {
	if v.request.CLI && !v.request.Test {
		return true
	}
	if !v.params.Bool("validate_request", true) {
		return true
	}

	addr, ok := v.sourceAddr()
	if !ok {
		return false
	}

	for _, prefix := range telegramRanges {
		if prefix.Contains(addr) {
			return true
		}
	}
	for _, raw := range v.params.StringSlice("valid_ips") {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(raw))
		if err != nil {
			v.logger.Warn("skipping malformed allowed range", "range", raw, "error", err)
			continue
		}
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ValidateRequest fails the invocation when the source address check does
// not pass.
func (v *RequestValidator) ValidateRequest() error {
	if !v.IsValidRequest() {
		return fmt.Errorf("%w: invalid request source", ErrAccessDenied)
	}
	return nil
}

// sourceAddr determines the candidate source address: the first forwarding
// header whose whole value is a syntactically valid IP literal wins, then
// the direct transport address. A multi-hop forwarded list is not a valid
// literal and is ignored rather than trusted hop by hop.
func (v *RequestValidator) sourceAddr() (netip.Addr, bool) {
	for _, header := range []string{v.request.ClientIP, v.request.ForwardedFor} {
		if addr, err := netip.ParseAddr(strings.TrimSpace(header)); err == nil {
			return addr.Unmap(), true
		}
	}

	remote := v.request.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(remote))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
