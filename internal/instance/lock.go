// pattern: Imperative Shell

// Package instance keeps two gwa processes from watching the same
// repository at once.
package instance

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another process holds the lock for the
// same repository.
var ErrAlreadyRunning = errors.New("another gwa instance is already watching this repository")

// Lock is a held per-repository lock. The owner file next to it records the
// holder's pid so a second instance can say who is in the way.
type Lock struct {
	fl        *flock.Flock
	ownerPath string
}

// DefaultStateDir returns $XDG_STATE_HOME/gwa/locks, falling back to
// ~/.local/state/gwa/locks.
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "gwa", "locks")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "gwa", "locks")
	}
	return filepath.Join(home, ".local", "state", "gwa", "locks")
}

// key names the lock files for repoRoot.
func key(repoRoot string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(repoRoot)))
	return hex.EncodeToString(sum[:8])
}

// Acquire takes the lock for repoRoot under stateDir without blocking.
func Acquire(stateDir, repoRoot string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	base := filepath.Join(stateDir, key(repoRoot))
	fl := flock.New(base + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		if pid, ok := readOwner(base + ".pid"); ok {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		return nil, ErrAlreadyRunning
	}

	l := &Lock{fl: fl, ownerPath: base + ".pid"}
	owner := strconv.Itoa(os.Getpid()) + "\n" + repoRoot + "\n"
	_ = os.WriteFile(l.ownerPath, []byte(owner), 0600)
	return l, nil
}

// Release removes the owner file and unlocks. It is safe to call on nil.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	_ = os.Remove(l.ownerPath)
	if l.fl != nil {
		_ = l.fl.Unlock()
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

func readOwner(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	first, _, _ := strings.Cut(string(data), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, false
	}
	return pid, true
}
