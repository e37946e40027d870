// pattern: Imperative Shell

package tui

import (
	"context"

	"gwa/internal/config"
	"gwa/internal/events"
	"gwa/internal/executor"
	"gwa/internal/logging"
	"gwa/internal/watcher"
)

// Poller is the part of the watcher the UI drives.
type Poller interface {
	ForcePoll()
	SetPolicy(p watcher.Policy)
}

// HookRunner starts and cancels post-create hooks.
type HookRunner interface {
	RunHook(ctx context.Context, req executor.HookRequest) executor.Handle
	Cancel(runID string) bool
}

// ConfigStore persists the configuration file.
type ConfigStore interface {
	Save(cfg config.Config) error
	LoadIfChanged() (config.Config, bool, error)
	Path() string
}

// WorktreeOps creates and removes worktrees on disk.
type WorktreeOps interface {
	CreateWorktree(ctx context.Context, cfg config.Config, branch string) (config.WorktreeEntry, error)
	DeleteWorktree(ctx context.Context, entry config.WorktreeEntry) error
}

// Deps wires the model to the rest of the program. Channels may be nil, in
// which case the corresponding source is never read.
type Deps struct {
	Ctx       context.Context
	Config    config.Config
	Ignore    *config.Matcher
	Store     ConfigStore
	Worktrees WorktreeOps
	Hooks     HookRunner
	Poller    Poller
	Logger    *logging.ScopedLogger

	Inbox         <-chan events.Event
	ConfigChanges <-chan struct{}
	LogEntries    <-chan logging.LogEntry

	RepoRoot     string
	Version      string
	RingCapacity int

	// External lists branches checked out in worktrees this tool did not create.
	External []string
}
