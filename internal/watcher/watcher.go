// pattern: Imperative Shell

// Package watcher polls the remote on a timer, classifies its branches and
// reports what it found as events. It owns no application state beyond the
// set of branches it has already surfaced.
package watcher

import (
	"context"
	"time"

	"gwa/internal/config"
	"gwa/internal/events"
	"gwa/internal/git"
	"gwa/internal/logging"
)

type Watcher struct {
	provider git.Provider
	sink     events.Sender
	logger   *logging.ScopedLogger
	now      func() time.Time

	policyCh chan Policy
	trigger  chan struct{}

	// Owned by the Run goroutine.
	policy   Policy
	surfaced map[string]struct{}

	// known holds the branches present before the first fetch. Without it
	// every discovery of the first successful poll is baseline.
	known     map[string]struct{}
	firstDone bool
}

// New creates a watcher that starts with the given policy.
func New(provider git.Provider, sink events.Sender, logger *logging.ScopedLogger, initial Policy) *Watcher {
	return &Watcher{
		provider: provider,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
		policyCh: make(chan Policy, 1),
		trigger:  make(chan struct{}, 1),
		policy:   initial,
		surfaced: make(map[string]struct{}),
	}
}

// SetPolicy replaces the policy used from the next poll on. Only the most
// recent policy is kept if several arrive between polls.
func (w *Watcher) SetPolicy(p Policy) {
	for {
		select {
		case w.policyCh <- p:
			return
		default:
		}
		select {
		case <-w.policyCh:
		default:
		}
	}
}

// ForcePoll requests a poll outside the schedule without resetting the
// interval. Requests made while a poll is running collapse into a single
// extra poll.
func (w *Watcher) ForcePoll() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run polls immediately, then on every interval tick and forced request,
// until ctx is cancelled. A poll in progress at cancellation is abandoned.
func (w *Watcher) Run(ctx context.Context) {
	w.applyPendingPolicy()
	interval := w.policy.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("watcher started", "remote", w.policy.Remote, "interval", interval.String())
	w.seedBaseline(ctx)
	w.poll(ctx, false)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watcher stopped")
			return
		case p := <-w.policyCh:
			w.policy = p
		case <-ticker.C:
			w.poll(ctx, false)
		case <-w.trigger:
			w.poll(ctx, true)
		}
		w.dropStaleTick(ticker)

		if next := w.policy.interval(); next != interval {
			interval = next
			ticker.Reset(interval)
			w.logger.Debug("poll interval changed", "interval", interval.String())
		}
	}
}

// seedBaseline records the remote-tracking and local branches that exist
// before the first fetch. Branches the first fetch brings in are new.
func (w *Watcher) seedBaseline(ctx context.Context) {
	refs, err := w.provider.ListRemoteBranches(ctx, w.policy.Remote)
	if err != nil {
		w.logger.Warn("could not read branches before the first fetch", "error", err)
		return
	}
	known := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		known[r.Name] = struct{}{}
	}
	if locals, err := w.provider.ListLocalBranches(ctx); err != nil {
		w.logger.Debug("listing local branches failed", "error", err)
	} else {
		for _, name := range locals {
			known[name] = struct{}{}
		}
	}
	w.known = known
}

// dropStaleTick discards a tick that fired while a poll ran if a forced
// poll is already queued, so one slow fetch is followed by one poll.
func (w *Watcher) dropStaleTick(ticker *time.Ticker) {
	if len(w.trigger) == 0 {
		return
	}
	select {
	case <-ticker.C:
		w.logger.Debug("dropped tick behind a queued forced poll")
	default:
	}
}

func (w *Watcher) isBaseline(branch string) bool {
	if w.known == nil {
		return !w.firstDone
	}
	_, ok := w.known[branch]
	return ok
}

func (w *Watcher) applyPendingPolicy() {
	select {
	case p := <-w.policyCh:
		w.policy = p
	default:
	}
}

func (w *Watcher) poll(ctx context.Context, forced bool) {
	if ctx.Err() != nil {
		return
	}
	w.applyPendingPolicy()
	p := w.policy

	if !w.sink.Send(ctx, events.PollStarted{At: w.now(), Forced: forced}) {
		return
	}

	if err := w.provider.Fetch(ctx, p.Remote); err != nil {
		w.fail(ctx, p.Remote, err)
		return
	}

	branches, err := w.provider.ListRemoteBranches(ctx, p.Remote)
	if err != nil {
		w.fail(ctx, p.Remote, err)
		return
	}

	live := config.BranchSet{}
	if wts, err := w.provider.ListWorktrees(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("listing worktrees failed, using cached list", "error", err)
	} else {
		for _, wt := range wts {
			if wt.Branch != "" {
				live.Add(wt.Branch)
			}
		}
	}

	seen := make(map[string]struct{}, len(branches))
	classified := make([]events.ClassifiedBranch, 0, len(branches))
	var discovered []events.BranchDiscovered

	for _, b := range branches {
		c := Classify(p, live, b.Name)
		seen[b.Name] = struct{}{}
		classified = append(classified, events.ClassifiedBranch{Name: b.Name, Revision: b.Revision, Classification: c})

		if !c.Discoverable() {
			continue
		}
		if _, done := w.surfaced[b.Name]; done {
			continue
		}
		w.surfaced[b.Name] = struct{}{}
		discovered = append(discovered, events.BranchDiscovered{
			Branch:         b.Name,
			Revision:       b.Revision,
			Classification: c,
			Baseline:       w.isBaseline(b.Name),
		})
	}

	for name := range w.surfaced {
		if _, ok := seen[name]; !ok {
			delete(w.surfaced, name)
			delete(w.known, name)
		}
	}
	w.firstDone = true

	for _, ev := range discovered {
		if !w.sink.Send(ctx, ev) {
			return
		}
	}

	w.logger.Debug("poll completed", "branches", len(branches), "discovered", len(discovered), "forced", forced)
	w.sink.Send(ctx, events.PollCompleted{
		At:          w.now(),
		BranchCount: len(branches),
		Branches:    classified,
	})
}

// fail reports a failed fetch or listing. Nothing is reported when the
// failure was caused by shutdown.
func (w *Watcher) fail(ctx context.Context, remote string, err error) {
	if ctx.Err() != nil {
		return
	}
	reason := err.Error()
	w.logger.Info("fetch failed", "remote", remote, "error", reason)
	if !w.sink.Send(ctx, events.FetchFailed{Remote: remote, Reason: reason}) {
		return
	}
	w.sink.Send(ctx, events.PollCompleted{At: w.now(), Err: reason})
}
