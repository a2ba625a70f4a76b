package output

import (
	"strings"
	"testing"
)

func TestSinkAppendAndDrain(t *testing.T) {
	s := NewSink(nil)
	s.Append("first\n")
	s.Append("second\n")

	got := s.Drain()
	if got != "first\nsecond\n" {
		t.Errorf("Drain() = %q, want %q", got, "first\nsecond\n")
	}

	if again := s.Drain(); again != "" {
		t.Errorf("second Drain() = %q, want empty", again)
	}
}

func TestSinkStreamsImmediately(t *testing.T) {
	var stream strings.Builder
	s := NewSink(&stream)

	s.Append("hello")
	if stream.String() != "hello" {
		t.Errorf("stream = %q, want %q", stream.String(), "hello")
	}

	// Draining must not re-emit to the stream.
	_ = s.Drain()
	if stream.String() != "hello" {
		t.Errorf("stream after Drain = %q, want %q", stream.String(), "hello")
	}
}

func TestSinkIgnoresEmptyAppend(t *testing.T) {
	var stream strings.Builder
	s := NewSink(&stream)
	s.Append("")
	if stream.String() != "" || s.Drain() != "" {
		t.Error("empty Append should be a no-op")
	}
}
