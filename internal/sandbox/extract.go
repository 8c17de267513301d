package sandbox

import (
	"context"
	"strings"
	"time"
)

const (
	DefaultConnectMarker  = "ssh "
	DefaultReadOnlyMarker = "ro-"
	DefaultMaxAttempts    = 30
	DefaultInterval       = time.Second
)

// Extractor polls an agent's output for its connection command.
type Extractor struct {
	ConnectMarker  string
	ReadOnlyMarker string
	MaxAttempts    int
	Interval       time.Duration
}

// NewExtractor returns an Extractor with the default markers and bounds.
func NewExtractor() *Extractor {
	return &Extractor{
		ConnectMarker:  DefaultConnectMarker,
		ReadOnlyMarker: DefaultReadOnlyMarker,
		MaxAttempts:    DefaultMaxAttempts,
		Interval:       DefaultInterval,
	}
}

// IsCandidate reports whether line is a usable, writable connection command.
func (e *Extractor) IsCandidate(line string) bool {
	if !strings.Contains(line, e.ConnectMarker) {
		return false
	}
	return e.ReadOnlyMarker == "" || !strings.Contains(line, e.ReadOnlyMarker)
}

// Extract waits for a connection command on lines. Each attempt waits up to
// Interval for a line and then consumes whatever is already buffered; the
// last candidate seen in that batch wins and ends the loop. It reports false
// after MaxAttempts empty attempts, when lines closes first, or when ctx is
// done.
func (e *Extractor) Extract(ctx context.Context, lines <-chan string) (string, bool) {
	var candidate string

	for attempt := 0; attempt < e.MaxAttempts; attempt++ {
		wait := time.NewTimer(e.Interval)
		closed := false

		select {
		case <-ctx.Done():
			wait.Stop()
			return "", false
		case line, ok := <-lines:
			if !ok {
				closed = true
				break
			}
			candidate = e.observe(candidate, line)
			candidate, closed = e.drain(candidate, lines)
		case <-wait.C:
		}
		wait.Stop()

		if candidate != "" {
			return candidate, true
		}
		if closed {
			return "", false
		}
	}

	return "", false
}

func (e *Extractor) observe(candidate, line string) string {
	if e.IsCandidate(line) {
		return strings.TrimSpace(line)
	}
	return candidate
}

func (e *Extractor) drain(candidate string, lines <-chan string) (string, bool) {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return candidate, true
			}
			candidate = e.observe(candidate, line)
		default:
			return candidate, false
		}
	}
}
