// pattern: Functional Core

package watcher

import (
	"time"

	"gwa/internal/config"
	"gwa/internal/events"
)

// Policy is the watcher's read-only view of the configuration. The UI loop
// builds a fresh Policy after every config change and hands it over with
// SetPolicy; the watcher never sees the Config itself.
type Policy struct {
	Remote           string
	Interval         time.Duration
	Ignore           *config.Matcher
	Tracked          config.BranchSet
	Untracked        config.BranchSet
	WorktreeBranches config.BranchSet
}

// PolicyFrom snapshots cfg. The sets are cloned so later config transitions
// cannot race with a poll in progress.
func PolicyFrom(cfg config.Config, ignore *config.Matcher) Policy {
	return Policy{
		Remote:           cfg.RemoteName,
		Interval:         cfg.PollInterval(),
		Ignore:           ignore,
		Tracked:          cfg.TrackedBranches.Clone(),
		Untracked:        cfg.UntrackedBranches.Clone(),
		WorktreeBranches: cfg.WorktreeBranches(),
	}
}

func (p Policy) interval() time.Duration {
	if p.Interval < config.MinPollInterval {
		return config.MinPollInterval
	}
	return p.Interval
}

// Classify places branch in exactly one bucket. The checks run in a fixed
// order: existing worktree, ignore pattern, untracked, tracked, undecided.
// An ignore pattern therefore wins over an explicit track decision.
func Classify(p Policy, live config.BranchSet, branch string) events.Classification {
	if p.WorktreeBranches.Has(branch) || live.Has(branch) {
		return events.Classification{Kind: events.AlreadyWorktree}
	}
	if pattern, ok := p.Ignore.Match(branch); ok {
		return events.Classification{Kind: events.Ignored, Pattern: pattern}
	}
	if p.Untracked.Has(branch) {
		return events.Classification{Kind: events.Untracked}
	}
	if p.Tracked.Has(branch) {
		return events.Classification{Kind: events.Tracked}
	}
	return events.Classification{Kind: events.Undecided}
}
