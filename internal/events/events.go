// Package events contains the immutable values that producers (the watcher,
// hook runs) hand to the UI loop. Nothing in this package holds mutable state
// apart from the inbox channel itself.
package events

import (
	"context"
	"time"
)

// Event is implemented by every value that can travel through an Inbox.
type Event interface {
	isEvent()
}

// ClassificationKind is the policy bucket a remote branch falls into.
type ClassificationKind int

const (
	Undecided ClassificationKind = iota
	AlreadyWorktree
	Ignored
	Untracked
	Tracked
)

func (k ClassificationKind) String() string {
	switch k {
	case AlreadyWorktree:
		return "worktree"
	case Ignored:
		return "ignored"
	case Untracked:
		return "untracked"
	case Tracked:
		return "tracked"
	default:
		return "undecided"
	}
}

// Classification is the result of evaluating one branch against the policy.
// Pattern is set only for Ignored.
type Classification struct {
	Kind    ClassificationKind
	Pattern string
}

// Discoverable reports whether a branch in this bucket should be surfaced to
// the user as a candidate for a new worktree.
func (c Classification) Discoverable() bool {
	return c.Kind == Undecided || c.Kind == Tracked
}

// ClassifiedBranch pairs a remote branch with its classification for one poll.
type ClassifiedBranch struct {
	Name           string
	Revision       string
	Classification Classification
}

// Stream identifies where a log line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
	System Stream = "system"
)

// PollStarted is emitted at the start of every watcher tick.
type PollStarted struct {
	At     time.Time
	Forced bool
}

// FetchFailed is emitted when the fetch (or the ref listing that follows it)
// fails. No BranchDiscovered events follow it in the same tick.
type FetchFailed struct {
	Remote string
	Reason string
}

// BranchDiscovered is emitted once per branch the first time it is seen as
// Undecided or Tracked without a worktree. Baseline is true for branches
// that already existed, locally or as remote-tracking refs, before the
// watcher's first fetch.
type BranchDiscovered struct {
	Branch         string
	Revision       string
	Classification Classification
	Baseline       bool
}

// PollCompleted closes every tick, successful or not. Err is empty on success.
type PollCompleted struct {
	At          time.Time
	BranchCount int
	Branches    []ClassifiedBranch
	Err         string
}

// OutcomeKind is the terminal state of a hook run.
type OutcomeKind int

const (
	Succeeded OutcomeKind = iota
	Failed
	SpawnError
)

func (k OutcomeKind) String() string {
	switch k {
	case Failed:
		return "failed"
	case SpawnError:
		return "spawn error"
	default:
		return "succeeded"
	}
}

// Outcome describes how a hook run ended.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
	Reason   string
}

// HookStarted is emitted once the hook process has been spawned.
type HookStarted struct {
	RunID   string
	Branch  string
	Command string
	Dir     string
	At      time.Time
}

// HookOutput carries one line of hook output.
type HookOutput struct {
	RunID  string
	Branch string
	Stream Stream
	Line   string
	At     time.Time
}

// HookFinished is the single terminal event of a hook run.
type HookFinished struct {
	RunID   string
	Branch  string
	Outcome Outcome
	At      time.Time
}

func (PollStarted) isEvent()      {}
func (FetchFailed) isEvent()      {}
func (BranchDiscovered) isEvent() {}
func (PollCompleted) isEvent()    {}
func (HookStarted) isEvent()      {}
func (HookOutput) isEvent()       {}
func (HookFinished) isEvent()     {}

// Sender is the producer side of an Inbox.
type Sender interface {
	Send(ctx context.Context, ev Event) bool
}

// Inbox fans events from every producer into the single consumer loop.
// Events from one producer keep their order.
type Inbox struct {
	ch chan Event
}

// NewInbox creates an inbox with the given buffer size.
func NewInbox(size int) *Inbox {
	return &Inbox{ch: make(chan Event, size)}
}

// Send delivers ev, waiting for buffer space. It returns false if ctx is
// cancelled first, so producers never outlive shutdown.
func (b *Inbox) Send(ctx context.Context, ev Event) bool {
	select {
	case b.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Events returns the consumer side of the inbox.
func (b *Inbox) Events() <-chan Event {
	return b.ch
}
