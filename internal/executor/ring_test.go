package executor

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"gwa/internal/events"
)

func TestLogRing_EvictsOldest(t *testing.T) {
	r := NewLogRing(3)
	for i := range 5 {
		r.Append(LogEntry{Source: "b", Stream: events.Stdout, Line: fmt.Sprint(i)})
	}

	got := r.Entries()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"2", "3", "4"} {
		if got[i].Line != want {
			t.Errorf("entry %d = %q, want %q", i, got[i].Line, want)
		}
	}
}

func TestLogRing_For(t *testing.T) {
	r := NewLogRing(10)
	r.Append(LogEntry{Source: "a", Line: "a1"})
	r.Append(LogEntry{Source: "b", Line: "b1"})
	r.Append(LogEntry{Source: "a", Line: "a2"})

	got := r.For("a")
	if len(got) != 2 || got[0].Line != "a1" || got[1].Line != "a2" {
		t.Errorf("For(a) = %+v", got)
	}
	if len(r.For("missing")) != 0 {
		t.Error("unknown source should have no entries")
	}
}

func TestLogRing_DefaultCapacity(t *testing.T) {
	if c := NewLogRing(0).Cap(); c != DefaultRingCapacity {
		t.Errorf("Cap = %d, want %d", c, DefaultRingCapacity)
	}
}

func TestLogRing_KeepsNewestSuffix(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(t, "capacity")
		lines := rapid.SliceOf(rapid.String()).Draw(t, "lines")

		r := NewLogRing(capacity)
		for _, l := range lines {
			r.Append(LogEntry{Line: l})
		}

		want := lines
		if len(want) > capacity {
			want = want[len(want)-capacity:]
		}
		got := r.Entries()
		if len(got) != len(want) || r.Len() != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].Line != want[i] {
				t.Fatalf("entry %d = %q, want %q", i, got[i].Line, want[i])
			}
		}
	})
}
