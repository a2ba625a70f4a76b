// Package output collects the human-readable text produced during a single
// manager invocation.
package output

import (
	"io"
	"strings"
	"sync"
)

// Sink accumulates invocation output. When constructed with a writer it also
// streams every appended chunk immediately, so long-running poll loops show
// progress on stdout while the buffer stays available for the caller.
type Sink struct {
	mu     sync.Mutex
	buf    strings.Builder
	stream io.Writer
}

// NewSink creates a Sink. A nil stream keeps output buffer-only, which is what
// tests and the HTTP gateway want.
func NewSink(stream io.Writer) *Sink {
	return &Sink{stream: stream}
}

// Append adds text to the buffer and, if a stream is configured, writes it
// through immediately.
func (s *Sink) Append(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.WriteString(text)
	if s.stream != nil {
		_, _ = io.WriteString(s.stream, text)
	}
}

// Drain returns the buffered output and clears the buffer in the same
// critical section, so the same text is never handed out twice.
func (s *Sink) Drain() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.buf.String()
	s.buf.Reset()
	return out
}
