// pattern: Imperative Shell

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

var (
	// ErrCorrupt is returned by Load when the file exists but cannot be
	// parsed. Defaults are returned alongside it.
	ErrCorrupt = errors.New("config file is corrupt")

	// ErrNewerVersion is returned by Load when the file was written by a
	// newer schema. The parsed config is still returned.
	ErrNewerVersion = errors.New("config file has a newer schema version")
)

// Store reads and writes the per-repository config file. Writes replace the
// whole file atomically.
type Store struct {
	path string

	mu       sync.Mutex
	lastSeen []byte
	corrupt  bool
}

// NewStore returns a store for the config file in repoRoot.
func NewStore(repoRoot string) *Store {
	return &Store{path: filepath.Join(repoRoot, FileName)}
}

// NewStoreAt returns a store for an explicit file path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Exists reports whether the config file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the config file. A missing file yields defaults and no error.
// A file that cannot be read or parsed yields defaults and an error the
// caller should surface as a warning.
func (s *Store) Load() (Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("read %s: %w", s.path, err)
	}

	cfg, err := Parse(data)

	s.mu.Lock()
	s.lastSeen = data
	s.corrupt = errors.Is(err, ErrCorrupt)
	s.mu.Unlock()

	return cfg, err
}

// LoadIfChanged re-reads the file and reports whether its content differs
// from what this store last read or wrote.
func (s *Store) LoadIfChanged() (Config, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, false, fmt.Errorf("read %s: %w", s.path, err)
	}

	s.mu.Lock()
	same := bytes.Equal(data, s.lastSeen)
	if !same {
		s.lastSeen = data
	}
	s.mu.Unlock()
	if same {
		return Config{}, false, nil
	}

	cfg, err := Parse(data)
	if err != nil && !errors.Is(err, ErrNewerVersion) {
		return Config{}, false, err
	}
	return cfg, true, nil
}

// Save writes cfg with the current schema version. A file that failed to
// parse on load is copied to a .bak sibling first.
func (s *Store) Save(cfg Config) error {
	cfg.Version = CurrentVersion
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.corrupt {
		if old, err := os.ReadFile(s.path); err == nil {
			if err := atomic.WriteFile(s.path+".bak", bytes.NewReader(old)); err != nil {
				return fmt.Errorf("back up corrupt config: %w", err)
			}
		}
		s.corrupt = false
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.lastSeen = data
	return nil
}

// CheckWritable verifies the config file (or its directory, when the file
// does not exist yet) accepts writes.
func (s *Store) CheckWritable() error {
	if f, err := os.OpenFile(s.path, os.O_WRONLY, 0); err == nil {
		return f.Close()
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("config path not writable: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".gwa-tmp-*")
	if err != nil {
		return fmt.Errorf("config directory not writable: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	return os.Remove(name)
}

// Parse decodes a config file body. Fields absent from the file keep their
// defaults. Unknown fields are ignored.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	cfg.normalize()
	if cfg.Version > CurrentVersion {
		return cfg, fmt.Errorf("%w: %d (supported %d)", ErrNewerVersion, cfg.Version, CurrentVersion)
	}
	return cfg, nil
}

// Marshal encodes cfg in the on-disk format.
func Marshal(cfg Config) ([]byte, error) {
	if cfg.IgnorePatterns == nil {
		cfg.IgnorePatterns = []string{}
	}
	if cfg.Worktrees == nil {
		cfg.Worktrees = []WorktreeEntry{}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return append(data, '\n'), nil
}
