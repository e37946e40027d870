// pattern: Functional Core

package config

import (
	"encoding/json"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// CurrentVersion is the schema version written by Save.
const CurrentVersion = 2

// FileName is the name of the per-repository config file.
const FileName = ".gwa-config.json"

// MinPollInterval is the floor applied to the configured poll interval.
const MinPollInterval = time.Second

// Themes lists the accepted values of Config.Theme.
var Themes = []string{"latte", "frappe", "macchiato", "mocha"}

type Config struct {
	Version             int             `json:"version" yaml:"version"`
	PollIntervalSecs    uint            `json:"poll_interval_secs" yaml:"poll_interval_secs"`
	PostCreateCommand   *string         `json:"post_create_command,omitempty" yaml:"post_create_command,omitempty"`
	CommandWorkingDir   *string         `json:"command_working_dir,omitempty" yaml:"command_working_dir,omitempty"`
	IgnorePatterns      []string        `json:"ignore_patterns" yaml:"ignore_patterns"`
	TrackedBranches     BranchSet       `json:"tracked_branches" yaml:"tracked_branches"`
	UntrackedBranches   BranchSet       `json:"untracked_branches" yaml:"untracked_branches"`
	AutoCreateWorktrees bool            `json:"auto_create_worktrees" yaml:"auto_create_worktrees"`
	WorktreeBaseDir     string          `json:"worktree_base_dir" yaml:"worktree_base_dir"`
	RemoteName          string          `json:"remote_name" yaml:"remote_name"`
	BaseBranch          *string         `json:"base_branch,omitempty" yaml:"base_branch,omitempty"`
	Theme               string          `json:"theme,omitempty" yaml:"theme,omitempty"`
	Worktrees           []WorktreeEntry `json:"worktrees" yaml:"worktrees"`
	LastFetch           *time.Time      `json:"last_fetch,omitempty" yaml:"last_fetch,omitempty"`
}

type WorktreeEntry struct {
	Branch    string     `json:"branch" yaml:"branch"`
	Path      string     `json:"path" yaml:"path"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	Hook      HookStatus `json:"hook_status" yaml:"hook_status"`
}

// TrackState is the explicit user decision recorded for a branch.
type TrackState int

const (
	Undecided TrackState = iota
	Tracked
	Untracked
)

func (s TrackState) String() string {
	switch s {
	case Tracked:
		return "tracked"
	case Untracked:
		return "untracked"
	default:
		return "undecided"
	}
}

func DefaultConfig() Config {
	return Config{
		Version:           CurrentVersion,
		PollIntervalSecs:  10,
		IgnorePatterns:    []string{"dependabot/*", "renovate/*"},
		TrackedBranches:   BranchSet{},
		UntrackedBranches: BranchSet{},
		WorktreeBaseDir:   "..",
		RemoteName:        "origin",
		Theme:             "mocha",
	}
}

// Clone returns a deep copy so transitions never alias the caller's value.
func (c Config) Clone() Config {
	out := c
	out.PostCreateCommand = clonePtr(c.PostCreateCommand)
	out.CommandWorkingDir = clonePtr(c.CommandWorkingDir)
	out.BaseBranch = clonePtr(c.BaseBranch)
	out.LastFetch = clonePtr(c.LastFetch)
	out.IgnorePatterns = slices.Clone(c.IgnorePatterns)
	out.TrackedBranches = c.TrackedBranches.Clone()
	out.UntrackedBranches = c.UntrackedBranches.Clone()
	out.Worktrees = slices.Clone(c.Worktrees)
	return out
}

// PollInterval returns the configured interval with the floor applied.
func (c Config) PollInterval() time.Duration {
	d := time.Duration(c.PollIntervalSecs) * time.Second
	if d < MinPollInterval {
		return MinPollInterval
	}
	return d
}

// Command returns the post-create command, or "" when none is configured.
func (c Config) Command() string {
	if c.PostCreateCommand == nil {
		return ""
	}
	return *c.PostCreateCommand
}

// TrackState reports the recorded decision for branch.
func (c Config) TrackState(branch string) TrackState {
	switch {
	case c.UntrackedBranches.Has(branch):
		return Untracked
	case c.TrackedBranches.Has(branch):
		return Tracked
	default:
		return Undecided
	}
}

// WithTrackState returns a copy with branch moved into the set for state,
// keeping the tracked and untracked sets disjoint.
func (c Config) WithTrackState(branch string, state TrackState) Config {
	out := c.Clone()
	out.TrackedBranches.Remove(branch)
	out.UntrackedBranches.Remove(branch)
	switch state {
	case Tracked:
		out.TrackedBranches.Add(branch)
	case Untracked:
		out.UntrackedBranches.Add(branch)
	}
	return out
}

// NeedsFirstRun reports whether no worktrees and no track decisions exist yet.
func (c Config) NeedsFirstRun() bool {
	return len(c.Worktrees) == 0 && len(c.TrackedBranches) == 0 && len(c.UntrackedBranches) == 0
}

// Worktree looks up the cached entry for branch.
func (c Config) Worktree(branch string) (WorktreeEntry, bool) {
	for _, wt := range c.Worktrees {
		if wt.Branch == branch {
			return wt, true
		}
	}
	return WorktreeEntry{}, false
}

// WorktreeAt looks up the cached entry whose path is path.
func (c Config) WorktreeAt(path string) (WorktreeEntry, bool) {
	clean := filepath.Clean(path)
	for _, wt := range c.Worktrees {
		if filepath.Clean(wt.Path) == clean {
			return wt, true
		}
	}
	return WorktreeEntry{}, false
}

// WithWorktree returns a copy with entry added, replacing any entry for the
// same branch in place.
func (c Config) WithWorktree(entry WorktreeEntry) Config {
	out := c.Clone()
	for i, wt := range out.Worktrees {
		if wt.Branch == entry.Branch {
			out.Worktrees[i] = entry
			return out
		}
	}
	out.Worktrees = append(out.Worktrees, entry)
	return out
}

// WithoutWorktree returns a copy with the entry for branch removed.
func (c Config) WithoutWorktree(branch string) Config {
	out := c.Clone()
	out.Worktrees = slices.DeleteFunc(out.Worktrees, func(wt WorktreeEntry) bool {
		return wt.Branch == branch
	})
	return out
}

// WithHookStatus returns a copy with the hook status of branch's entry
// replaced. The second result is false when no such entry exists.
func (c Config) WithHookStatus(branch string, status HookStatus) (Config, bool) {
	for i, wt := range c.Worktrees {
		if wt.Branch == branch {
			out := c.Clone()
			out.Worktrees[i].Hook = status
			return out, true
		}
	}
	return c, false
}

// WorktreeBranches returns the set of branches with a cached worktree entry.
func (c Config) WorktreeBranches() BranchSet {
	set := make(BranchSet, len(c.Worktrees))
	for _, wt := range c.Worktrees {
		set.Add(wt.Branch)
	}
	return set
}

// WorktreePath computes where a worktree for branch lives.
func (c Config) WorktreePath(repoRoot, branch string) string {
	base := c.WorktreeBaseDir
	if base == "" {
		base = ".."
	}
	if !filepath.IsAbs(base) {
		base = filepath.Join(repoRoot, base)
	}
	return filepath.Join(base, Sanitize(branch))
}

// HookWorkDir returns the directory a hook runs in for the given worktree.
func (c Config) HookWorkDir(worktreePath string) string {
	if c.CommandWorkingDir == nil || *c.CommandWorkingDir == "" {
		return worktreePath
	}
	return filepath.Join(worktreePath, *c.CommandWorkingDir)
}

// MergeSettings returns c with the user-editable settings taken from other.
// Track decisions, worktrees and fetch state stay with c.
func (c Config) MergeSettings(other Config) Config {
	out := c.Clone()
	out.PollIntervalSecs = other.PollIntervalSecs
	out.PostCreateCommand = clonePtr(other.PostCreateCommand)
	out.CommandWorkingDir = clonePtr(other.CommandWorkingDir)
	out.IgnorePatterns = slices.Clone(other.IgnorePatterns)
	out.AutoCreateWorktrees = other.AutoCreateWorktrees
	out.WorktreeBaseDir = other.WorktreeBaseDir
	out.RemoteName = other.RemoteName
	out.BaseBranch = clonePtr(other.BaseBranch)
	out.Theme = other.Theme
	return out
}

// normalize fills fields missing from older files and repairs overlapping
// track sets. Untracked wins an overlap.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.TrackedBranches == nil {
		c.TrackedBranches = BranchSet{}
	}
	if c.UntrackedBranches == nil {
		c.UntrackedBranches = BranchSet{}
	}
	if c.WorktreeBaseDir == "" {
		c.WorktreeBaseDir = def.WorktreeBaseDir
	}
	if c.RemoteName == "" {
		c.RemoteName = def.RemoteName
	}
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	for b := range c.UntrackedBranches {
		c.TrackedBranches.Remove(b)
	}
}

// Sanitize turns a branch name into a flat directory name by replacing
// path-hostile characters with '-'. Names that differ only in replaced
// characters (feature/x and feature-x) collide.
func Sanitize(branch string) string {
	return sanitizer.Replace(branch)
}

var sanitizer = strings.NewReplacer(
	"/", "-", `\`, "-", ":", "-", "*", "-", "?", "-",
	`"`, "-", "<", "-", ">", "-", "|", "-",
)

// BranchSet is a set of branch names, encoded as a sorted JSON array.
type BranchSet map[string]struct{}

func NewBranchSet(names ...string) BranchSet {
	s := make(BranchSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s BranchSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s BranchSet) Add(name string)    { s[name] = struct{}{} }
func (s BranchSet) Remove(name string) { delete(s, name) }

func (s BranchSet) Clone() BranchSet {
	out := make(BranchSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s BranchSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s BranchSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *BranchSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewBranchSet(names...)
	return nil
}

// MarshalYAML renders the set as a sorted sequence for --show-config.
func (s BranchSet) MarshalYAML() (interface{}, error) {
	return s.Sorted(), nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
