package manager

// RequestContext is an immutable snapshot of the transport-level ambient
// state of one invocation. Passing it explicitly keeps the secret and IP
// checks deterministic under test.
type RequestContext struct {
	// RemoteAddr is the transport-reported peer address, host or host:port.
	RemoteAddr string

	// ClientIP and ForwardedFor carry the raw values of the X-Client-Ip and
	// X-Forwarded-For headers. Empty when absent or in CLI mode.
	ClientIP     string
	ForwardedFor string

	// CLI marks a command-line invocation, which bypasses the secret and IP
	// checks.
	CLI bool

	// Test marks a test-harness invocation; it keeps the IP check active
	// even in CLI mode.
	Test bool
}
