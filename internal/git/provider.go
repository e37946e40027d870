// Package git wraps the repository operations the watcher and worktree
// manager depend on. Discovery and ref listing read the repository with
// go-git; fetch and linked-worktree management run the git binary, since
// go-git cannot manage linked worktrees.
package git

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotRepository is returned by Discover when no repository contains the path.
var ErrNotRepository = errors.New("not a git repository")

// Error is an opaque failure reported by git. Callers only show Message.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("git %s failed", e.Op)
	}
	return fmt.Sprintf("git %s: %s", e.Op, e.Message)
}

// BranchRef is a remote branch as seen by one poll.
type BranchRef struct {
	Name     string
	Revision string
}

// Worktree is one entry of `git worktree list --porcelain`.
type Worktree struct {
	Path     string
	Head     string
	Branch   string
	Bare     bool
	Detached bool
	Locked   bool
	Prunable bool
}

// Provider is the capability surface the rest of the program uses.
type Provider interface {
	Fetch(ctx context.Context, remote string) error
	ListRemoteBranches(ctx context.Context, remote string) ([]BranchRef, error)
	ListLocalBranches(ctx context.Context) ([]string, error)
	ListWorktrees(ctx context.Context) ([]Worktree, error)
	AddWorktree(ctx context.Context, branch, path, remote string) error
	RemoveWorktree(ctx context.Context, path string) error
	Prune(ctx context.Context) error
}
