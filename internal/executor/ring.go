// pattern: Functional Core

package executor

import (
	"time"

	"gwa/internal/events"
)

// DefaultRingCapacity is the number of log lines kept when no capacity is
// given.
const DefaultRingCapacity = 1000

// LogEntry is one captured line. Source is the branch a hook ran for, or a
// component name for system lines.
type LogEntry struct {
	Timestamp time.Time
	Source    string
	Stream    events.Stream
	Line      string
}

// LogRing keeps the most recent entries in arrival order. It is not safe for
// concurrent use; the UI loop owns it.
type LogRing struct {
	buf   []LogEntry
	start int
	size  int
}

// NewLogRing creates a ring holding at most capacity entries.
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &LogRing{buf: make([]LogEntry, capacity)}
}

// Append adds e, evicting the oldest entry when the ring is full.
func (r *LogRing) Append(e LogEntry) {
	idx := (r.start + r.size) % len(r.buf)
	r.buf[idx] = e
	if r.size < len(r.buf) {
		r.size++
		return
	}
	r.start = (r.start + 1) % len(r.buf)
}

// Entries returns a copy of the entries, oldest first.
func (r *LogRing) Entries() []LogEntry {
	out := make([]LogEntry, r.size)
	for i := range r.size {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// For returns the entries whose Source is source, oldest first.
func (r *LogRing) For(source string) []LogEntry {
	var out []LogEntry
	for i := range r.size {
		e := r.buf[(r.start+i)%len(r.buf)]
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

func (r *LogRing) Len() int { return r.size }

func (r *LogRing) Cap() int { return len(r.buf) }
