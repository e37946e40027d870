// pattern: Imperative Shell

package worktree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gwa/internal/config"
	"gwa/internal/git"
	"gwa/internal/logging"
)

var (
	// ErrPathAlreadyExists means the target directory exists and is not the
	// known worktree for the branch.
	ErrPathAlreadyExists = errors.New("worktree path already exists")

	// ErrGitOperation wraps any failure reported by the git provider.
	ErrGitOperation = errors.New("git operation failed")

	// ErrMainWorktree is returned when asked to delete the repository itself.
	ErrMainWorktree = errors.New("cannot delete the main worktree")

	// ErrInvalidBranch is returned for names that cannot become a directory.
	ErrInvalidBranch = errors.New("invalid branch name")
)

// Manager turns branches into worktrees and back. It computes new config
// values but never writes the config file; the caller persists.
type Manager struct {
	provider git.Provider
	repoRoot string
	logger   *logging.ScopedLogger
	now      func() time.Time
}

func NewManager(provider git.Provider, repoRoot string, logger *logging.ScopedLogger) *Manager {
	return &Manager{
		provider: provider,
		repoRoot: repoRoot,
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateBranch rejects names that would not produce a usable directory
// under the worktree base.
func ValidateBranch(branch string) error {
	if strings.TrimSpace(branch) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidBranch)
	}
	switch config.Sanitize(branch) {
	case ".", "..":
		return fmt.Errorf("%w: %q", ErrInvalidBranch, branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidBranch, branch)
	}
	return nil
}

// CreateWorktree adds a worktree for branch at
// <repoRoot>/<worktreeBaseDir>/<sanitized branch>. A branch that already has
// an entry in cfg gets that entry back unchanged. The returned entry's hook
// is pending.
func (m *Manager) CreateWorktree(ctx context.Context, cfg config.Config, branch string) (config.WorktreeEntry, error) {
	if err := ValidateBranch(branch); err != nil {
		return config.WorktreeEntry{}, err
	}
	if existing, ok := cfg.Worktree(branch); ok {
		return existing, nil
	}

	path := cfg.WorktreePath(m.repoRoot, branch)
	if other, ok := cfg.WorktreeAt(path); ok {
		return config.WorktreeEntry{}, fmt.Errorf("%w: %s is the worktree of %s", ErrPathAlreadyExists, path, other.Branch)
	}
	if _, err := os.Stat(path); err == nil {
		return config.WorktreeEntry{}, fmt.Errorf("%w: %s", ErrPathAlreadyExists, path)
	}

	m.logger.Info("creating worktree", "branch", branch, "path", path)
	if err := m.provider.AddWorktree(ctx, branch, path, cfg.RemoteName); err != nil {
		m.logger.Warn("worktree add failed", "branch", branch, "error", err)
		return config.WorktreeEntry{}, fmt.Errorf("%w: %w", ErrGitOperation, err)
	}

	return config.WorktreeEntry{
		Branch:    branch,
		Path:      path,
		CreatedAt: m.now().UTC(),
		Hook:      config.Pending(),
	}, nil
}

// DeleteWorktree removes the worktree at entry.Path. A directory that is
// already gone, or that git no longer knows as a worktree, counts as
// deleted. Dirty worktrees are refused by git and reported as
// ErrGitOperation.
func (m *Manager) DeleteWorktree(ctx context.Context, entry config.WorktreeEntry) error {
	if samePath(entry.Path, m.repoRoot) {
		return ErrMainWorktree
	}

	if _, err := os.Stat(entry.Path); os.IsNotExist(err) {
		m.logger.Info("worktree directory already gone", "branch", entry.Branch, "path", entry.Path)
		m.prune(ctx)
		return nil
	}

	if err := m.provider.RemoveWorktree(ctx, entry.Path); err != nil {
		if alreadyRemoved(err) {
			m.logger.Info("git no longer tracks worktree", "branch", entry.Branch, "error", err)
			m.prune(ctx)
			return nil
		}
		return fmt.Errorf("%w: %w", ErrGitOperation, err)
	}

	m.logger.Info("worktree removed", "branch", entry.Branch, "path", entry.Path)
	return nil
}

// SetTrackState records the user's decision for branch on a copy of cfg.
func (m *Manager) SetTrackState(cfg config.Config, branch string, state config.TrackState) config.Config {
	return cfg.WithTrackState(branch, state)
}

// Reconcile compares the cached worktree list with git's live list. Cached
// entries whose path is no longer a worktree are dropped, and hooks that
// were pending or running when the last session ended become interrupted.
// A live worktree the config does not know is adopted when it sits at the
// path this manager would have used for its branch; that happens when the
// program quit between creating it and recording it. It also returns the
// branches of the remaining live worktrees the config does not know.
func (m *Manager) Reconcile(ctx context.Context, cfg config.Config) (config.Config, []string, error) {
	live, err := m.provider.ListWorktrees(ctx)
	if err != nil {
		return cfg, nil, fmt.Errorf("%w: %w", ErrGitOperation, err)
	}

	out := cfg.Clone()
	out.Worktrees = out.Worktrees[:0]
	known := config.BranchSet{}

	for _, entry := range cfg.Worktrees {
		if !containsPath(live, entry.Path) {
			m.logger.Info("dropping stale worktree entry", "branch", entry.Branch, "path", entry.Path)
			continue
		}
		if entry.Hook.Active() {
			entry.Hook = config.Interrupted("session ended before the hook finished")
		}
		out.Worktrees = append(out.Worktrees, entry)
		known.Add(entry.Branch)
	}

	var external []string
	for _, wt := range live {
		if wt.Branch == "" || wt.Bare || samePath(wt.Path, m.repoRoot) || known.Has(wt.Branch) {
			continue
		}
		if samePath(wt.Path, cfg.WorktreePath(m.repoRoot, wt.Branch)) {
			m.logger.Info("adopting worktree created by an earlier session", "branch", wt.Branch, "path", wt.Path)
			out.Worktrees = append(out.Worktrees, config.WorktreeEntry{
				Branch:    wt.Branch,
				Path:      wt.Path,
				CreatedAt: m.now().UTC(),
				Hook:      config.Interrupted("session ended before the hook ran"),
			})
			known.Add(wt.Branch)
			continue
		}
		external = append(external, wt.Branch)
	}
	return out, external, nil
}

func (m *Manager) prune(ctx context.Context) {
	if err := m.provider.Prune(ctx); err != nil {
		m.logger.Debug("worktree prune failed", "error", err)
	}
}

func alreadyRemoved(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "is not a working tree") || strings.Contains(msg, "does not exist")
}

func containsPath(list []git.Worktree, path string) bool {
	for _, wt := range list {
		if samePath(wt.Path, path) {
			return true
		}
	}
	return false
}

// samePath compares two paths after cleaning and, when both exist,
// resolving symlinks.
func samePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if a == b {
		return true
	}
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && ra == rb
}
