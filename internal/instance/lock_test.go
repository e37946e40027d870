package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir, "/repo/a")
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	// flock locks are per open file description, so a second handle in the
	// same process is refused just like another process would be.
	_, err = Acquire(dir, "/repo/a")
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Acquire() error = %v, want ErrAlreadyRunning", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("pid %d", os.Getpid())) {
		t.Errorf("error should name the holder: %v", err)
	}

	ownerPath := strings.TrimSuffix(l.Path(), ".lock") + ".pid"
	data, err := os.ReadFile(ownerPath)
	if err != nil {
		t.Fatalf("owner file not found: %v", err)
	}
	if !strings.Contains(string(data), "/repo/a") {
		t.Errorf("owner file = %q", data)
	}

	l.Release()
	if _, err := os.Stat(ownerPath); !os.IsNotExist(err) {
		t.Error("owner file should be removed by Release")
	}

	l2, err := Acquire(dir, "/repo/a")
	if err != nil {
		t.Fatalf("Acquire() after Release should succeed: %v", err)
	}
	l2.Release()
}

func TestAcquire_DifferentRepositories(t *testing.T) {
	dir := t.TempDir()

	a, err := Acquire(dir, "/repo/a")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Release()

	b, err := Acquire(dir, "/repo/b")
	if err != nil {
		t.Fatalf("lock for another repository should succeed: %v", err)
	}
	defer b.Release()

	if a.Path() == b.Path() {
		t.Error("repositories share a lock file")
	}
}

func TestAcquire_CleansRoot(t *testing.T) {
	dir := t.TempDir()
	a, err := Acquire(dir, "/repo/a/")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Release()

	if _, err := Acquire(dir, "/repo/a"); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("trailing slash should map to the same lock, got %v", err)
	}
}

func TestAcquire_CreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "locks")
	l, err := Acquire(dir, "/repo")
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	l.Release()
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	l.Release()
}

func TestDefaultStateDir(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	if got := DefaultStateDir(); got != "/tmp/state/gwa/locks" {
		t.Errorf("DefaultStateDir() = %q", got)
	}
}
