// pattern: Imperative Shell

package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"gwa/internal/logging"
)

// Repository implements Provider for one repository on disk.
type Repository struct {
	root   string
	logger *logging.ScopedLogger

	mu   sync.Mutex
	repo *gogit.Repository
}

var _ Provider = (*Repository)(nil)

// Discover opens the repository containing path, walking up to find .git.
// Running inside a linked worktree yields that worktree as the root. When
// go-git cannot open the repository (for example an unsupported extension)
// the git binary is used for every operation.
func Discover(path string, logger *logging.ScopedLogger) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotRepository, path, err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotRepository, abs)
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err == nil {
		wt, wtErr := repo.Worktree()
		if wtErr != nil {
			return nil, fmt.Errorf("%w: %s has no working tree: %v", ErrNotRepository, abs, wtErr)
		}
		root := wt.Filesystem.Root()
		logger.Debug("discovered repository", "root", root)
		return &Repository{root: root, logger: logger, repo: repo}, nil
	}
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, abs)
	}

	logger.Debug("go-git could not open repository, using git binary", "error", err)
	fallback := &Repository{root: abs, logger: logger}
	out, _, runErr := fallback.run(context.Background(), "rev-parse", "--show-toplevel")
	if runErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotRepository, abs, runErr)
	}
	fallback.root = strings.TrimSpace(out)
	return fallback, nil
}

// Root returns the top-level directory of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// Remotes returns the configured remote names in sorted order.
func (r *Repository) Remotes() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	if r.repo != nil {
		remotes, err := r.repo.Remotes()
		if err != nil {
			return nil, &Error{Op: "remote", Message: err.Error()}
		}
		for _, rem := range remotes {
			names = append(names, rem.Config().Name)
		}
	} else {
		out, _, err := r.run(context.Background(), "remote")
		if err != nil {
			return nil, err
		}
		names = strings.Fields(out)
	}
	sort.Strings(names)
	return names, nil
}

// RemoteExists reports whether a remote with the given name is configured.
func (r *Repository) RemoteExists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		_, _, err := r.run(context.Background(), "remote", "get-url", name)
		return err == nil
	}
	_, err := r.repo.Remote(name)
	return err == nil
}

// DefaultBranch guesses the remote's default branch: the target of
// <remote>/HEAD, then the first common name present on the remote, then the
// currently checked-out branch.
func (r *Repository) DefaultBranch(remote string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		out, _, err := r.run(context.Background(), "symbolic-ref", "--short", "refs/remotes/"+remote+"/HEAD")
		if err != nil {
			return "", false
		}
		return strings.TrimPrefix(strings.TrimSpace(out), remote+"/"), true
	}

	if ref, err := r.repo.Reference(plumbing.NewRemoteHEADReferenceName(remote), false); err == nil && ref.Type() == plumbing.SymbolicReference {
		target := ref.Target().String()
		if b, ok := strings.CutPrefix(target, "refs/remotes/"+remote+"/"); ok {
			return b, true
		}
	}

	for _, name := range []string{"main", "master", "develop", "dev"} {
		if _, err := r.repo.Reference(plumbing.NewRemoteReferenceName(remote, name), false); err == nil {
			return name, true
		}
	}

	if head, err := r.repo.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short(), true
	}
	return "", false
}

// Fetch runs `git fetch --prune <remote>`. A non-zero exit whose stderr
// holds only warnings or hints counts as success.
func (r *Repository) Fetch(ctx context.Context, remote string) error {
	_, stderr, err := r.run(ctx, "fetch", "--prune", remote)
	if err == nil {
		return nil
	}
	var gerr *Error
	if errors.As(err, &gerr) && fetchOnlyWarnings(stderr) {
		r.logger.Debug("fetch exited non-zero with warnings only", "remote", remote, "stderr", strings.TrimSpace(stderr))
		return nil
	}
	return err
}

// ListRemoteBranches lists refs/remotes/<remote>/*, excluding HEAD. Refs are
// read with go-git; the git binary is the fallback when go-git cannot read
// the ref store.
func (r *Repository) ListRemoteBranches(ctx context.Context, remote string) ([]BranchRef, error) {
	refs, err := r.remoteBranchesGoGit(remote)
	if err == nil {
		return refs, nil
	}
	r.logger.Debug("go-git ref listing failed, using git binary", "error", err)

	out, _, err := r.run(ctx, "for-each-ref", "--format=%(refname:short) %(objectname:short)", "refs/remotes/"+remote)
	if err != nil {
		return nil, err
	}
	return parseForEachRef(out, remote), nil
}

func (r *Repository) remoteBranchesGoGit(remote string) ([]BranchRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, errors.New("repository not opened with go-git")
	}
	iter, err := r.repo.References()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	prefix := "refs/remotes/" + remote + "/"
	var refs []BranchRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if ref.Type() != plumbing.HashReference || !strings.HasPrefix(name, prefix) {
			return nil
		}
		branch := strings.TrimPrefix(name, prefix)
		if branch == "HEAD" {
			return nil
		}
		refs = append(refs, BranchRef{Name: branch, Revision: shortHash(ref.Hash())})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// ListLocalBranches lists refs/heads/*, sorted by name.
func (r *Repository) ListLocalBranches(ctx context.Context) ([]string, error) {
	names, err := r.localBranchesGoGit()
	if err == nil {
		return names, nil
	}
	r.logger.Debug("go-git branch listing failed, using git binary", "error", err)

	out, _, err := r.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}
	names = parseLocalBranches(out)
	sort.Strings(names)
	return names, nil
}

func (r *Repository) localBranchesGoGit() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, errors.New("repository not opened with go-git")
	}
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// ListWorktrees returns the live worktree list, main worktree first.
func (r *Repository) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	out, _, err := r.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseWorktreeList(out), nil
}

// AddWorktree checks out branch at path, creating a local branch tracking
// <remote>/<branch>. When the local branch already exists it is checked out
// as is.
func (r *Repository) AddWorktree(ctx context.Context, branch, path, remote string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &Error{Op: "worktree add", Message: err.Error()}
	}

	_, stderr, err := r.run(ctx, "worktree", "add", "--track", "-b", branch, path, remote+"/"+branch)
	if err != nil {
		if !strings.Contains(stderr, "already exists") {
			return err
		}
		r.logger.Debug("local branch exists, adding worktree without -b", "branch", branch)
		if _, _, err := r.run(ctx, "worktree", "add", path, branch); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err != nil {
		return &Error{Op: "worktree add", Message: fmt.Sprintf("directory was not created at %s", path)}
	}
	return nil
}

// RemoveWorktree runs `git worktree remove <path>`. It refuses dirty trees.
func (r *Repository) RemoveWorktree(ctx context.Context, path string) error {
	_, _, err := r.run(ctx, "worktree", "remove", path)
	return err
}

// Prune drops administrative entries for worktrees whose directory is gone.
func (r *Repository) Prune(ctx context.Context) error {
	_, _, err := r.run(ctx, "worktree", "prune")
	return err
}

// run executes git in the repository root with prompts disabled. A non-zero
// exit is returned as *Error carrying the trimmed stderr.
func (r *Repository) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running git", "args", strings.Join(args, " "))
	err := cmd.Run()
	if err == nil {
		return stdout.String(), stderr.String(), nil
	}
	if ctx.Err() != nil {
		return stdout.String(), stderr.String(), ctx.Err()
	}

	op := args[0]
	if len(args) > 1 && op == "worktree" {
		op = "worktree " + args[1]
	}
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		msg = err.Error()
	}
	return stdout.String(), stderr.String(), &Error{Op: op, Message: msg}
}

func shortHash(h plumbing.Hash) string {
	s := h.String()
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
