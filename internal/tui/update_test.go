package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gwa/internal/config"
	"gwa/internal/events"
	"gwa/internal/executor"
	"gwa/internal/logging"
)

// createdFor drives a tracked discovery through worktree creation and
// returns the run ID of the hook that was started.
func createdFor(t *testing.T, m Model, td *testDeps, branch string) (Model, string) {
	t.Helper()
	m, cmd := m.applyEvent(events.BranchDiscovered{
		Branch:         branch,
		Classification: events.Classification{Kind: events.Tracked},
	})
	if cmd == nil {
		t.Fatalf("expected a create command for %s", branch)
	}
	m = runCmd(t, m, cmd)
	if len(td.hooks.requests) == 0 {
		t.Fatal("no hook was started")
	}
	return m, td.hooks.requests[len(td.hooks.requests)-1].RunID
}

func TestDiscovery_TrackedBranchCreatesWorktreeAndRunsHook(t *testing.T) {
	cfg := trackedConfig("feature/x")
	cfg.AutoCreateWorktrees = true
	m, td := newTestModel(t, cfg)

	m, runID := createdFor(t, m, td, "feature/x")

	entry, ok := m.cfg.Worktree("feature/x")
	if !ok {
		t.Fatal("worktree entry not recorded")
	}
	if entry.Path != "/work/feature-x" {
		t.Errorf("path = %q, want /work/feature-x", entry.Path)
	}
	if entry.Hook.State != config.HookPending {
		t.Errorf("hook = %q, want pending", entry.Hook.State)
	}
	if _, ok := td.store.last(t).Worktree("feature/x"); !ok {
		t.Error("entry should be persisted before the hook runs")
	}

	req := td.hooks.requests[0]
	if req.Command != "make setup" || req.WorktreePath != "/work/feature-x" || req.Branch != "feature/x" {
		t.Errorf("hook request = %+v", req)
	}

	m = apply(m, events.HookStarted{RunID: runID, Branch: "feature/x", Command: "make setup"})
	if wt, _ := m.cfg.Worktree("feature/x"); wt.Hook.State != config.HookRunning {
		t.Errorf("after start: %q, want running", wt.Hook.State)
	}

	m = apply(m, events.HookFinished{RunID: runID, Branch: "feature/x", Outcome: events.Outcome{Kind: events.Succeeded}})
	if wt, _ := m.cfg.Worktree("feature/x"); wt.Hook.State != config.HookSucceeded {
		t.Errorf("after finish: %q, want succeeded", wt.Hook.State)
	}
	if wt, _ := td.store.last(t).Worktree("feature/x"); wt.Hook.State != config.HookSucceeded {
		t.Errorf("persisted hook = %q, want succeeded", wt.Hook.State)
	}
	if len(m.runs) != 0 || len(m.activeRun) != 0 {
		t.Error("finished run should be forgotten")
	}
}

func TestHookFailure_RecordsExitCodeAndSystemLine(t *testing.T) {
	cfg := trackedConfig("feature/y")
	cfg.AutoCreateWorktrees = true
	m, td := newTestModel(t, cfg)
	m, runID := createdFor(t, m, td, "feature/y")

	m = apply(m,
		events.HookStarted{RunID: runID, Branch: "feature/y"},
		events.HookOutput{RunID: runID, Branch: "feature/y", Stream: events.Stderr, Line: "\x1b[31mboom\x1b[0m"},
		events.HookFinished{RunID: runID, Branch: "feature/y", Outcome: events.Outcome{Kind: events.Failed, ExitCode: 1}},
	)

	wt, _ := m.cfg.Worktree("feature/y")
	if wt.Hook.State != config.HookFailed || wt.Hook.ExitCode != 1 {
		t.Errorf("hook = %+v, want failed(1)", wt.Hook)
	}
	if m.statusLevel != StatusError {
		t.Errorf("status level = %v, want error", m.statusLevel)
	}

	lines := m.Ring().For("feature/y")
	var sawOutput, sawExit bool
	for _, e := range lines {
		if e.Stream == events.Stderr && e.Line == "boom" {
			sawOutput = true
		}
		if e.Stream == events.System && strings.Contains(e.Line, "exited with code 1") {
			sawExit = true
		}
	}
	if !sawOutput {
		t.Errorf("stderr line with escapes stripped missing: %+v", lines)
	}
	if !sawExit {
		t.Errorf("system line with exit code missing: %+v", lines)
	}
}

func TestHookFinished_SpawnErrorAndInterrupted(t *testing.T) {
	tests := []struct {
		name    string
		outcome events.Outcome
		want    config.HookStatus
	}{
		{"spawn error", events.Outcome{Kind: events.SpawnError, Reason: "no such dir"}, config.Failed(-1, "no such dir")},
		{"interrupted", events.Outcome{Kind: events.Failed, ExitCode: -1, Reason: executor.InterruptedReason}, config.Interrupted(executor.InterruptedReason)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := trackedConfig("b")
			cfg.AutoCreateWorktrees = true
			m, td := newTestModel(t, cfg)
			m, runID := createdFor(t, m, td, "b")

			m = apply(m, events.HookFinished{RunID: runID, Branch: "b", Outcome: tt.outcome})
			if wt, _ := m.cfg.Worktree("b"); wt.Hook != tt.want {
				t.Errorf("hook = %+v, want %+v", wt.Hook, tt.want)
			}
		})
	}
}

func TestHookFinished_UnknownRunIsIgnored(t *testing.T) {
	cfg := trackedConfig("b")
	cfg = cfg.WithWorktree(config.WorktreeEntry{Branch: "b", Path: "/work/b", Hook: config.Running()})
	m, td := newTestModel(t, cfg)

	m = apply(m,
		events.HookOutput{RunID: "nope", Branch: "b", Line: "x"},
		events.HookFinished{RunID: "nope", Branch: "b", Outcome: events.Outcome{Kind: events.Succeeded}},
	)

	if wt, _ := m.cfg.Worktree("b"); wt.Hook.State != config.HookRunning {
		t.Errorf("hook changed to %q by an unknown run", wt.Hook.State)
	}
	if len(td.store.saved) != 0 {
		t.Error("an unknown run must not trigger a save")
	}
	if m.Ring().Len() != 0 {
		t.Error("output of an unknown run must not be captured")
	}
}

func TestHookFinished_AfterDeleteIsDiscarded(t *testing.T) {
	cfg := trackedConfig("feature/x")
	cfg.AutoCreateWorktrees = true
	m, td := newTestModel(t, cfg)
	m, runID := createdFor(t, m, td, "feature/x")
	m = selectBranch(t, m, "feature/x")

	m, _ = press(t, m, "d")
	m = typeText(t, m, "yes")
	m, cmd := press(t, m, "enter")
	m = runCmd(t, m, cmd)

	if _, ok := m.cfg.Worktree("feature/x"); ok {
		t.Fatal("worktree should be removed")
	}
	saves := len(td.store.saved)

	m = apply(m, events.HookFinished{RunID: runID, Branch: "feature/x", Outcome: events.Outcome{Kind: events.Succeeded}})
	if _, ok := m.cfg.Worktree("feature/x"); ok {
		t.Error("a late completion must not bring the entry back")
	}
	if len(td.store.saved) != saves {
		t.Error("a late completion must not save")
	}
}

func TestDelete_RequiresTypedYes(t *testing.T) {
	tests := []struct {
		typed       string
		wantDeleted bool
	}{
		{"yes", true},
		{"YES", true},
		{"y", false},
		{"no", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run("typed "+tt.typed, func(t *testing.T) {
			cfg := trackedConfig("feature/x").WithWorktree(config.WorktreeEntry{Branch: "feature/x", Path: "/work/feature-x", Hook: config.Succeeded(0)})
			m, td := newTestModel(t, cfg)
			m = selectBranch(t, m, "feature/x")

			m, _ = press(t, m, "d")
			if !m.confirm.open {
				t.Fatal("confirm dialog should open")
			}
			m = typeText(t, m, tt.typed)
			m, cmd := press(t, m, "enter")
			m = runCmd(t, m, cmd)

			if m.confirm.open {
				t.Error("dialog should close on enter")
			}
			_, exists := m.cfg.Worktree("feature/x")
			if exists == tt.wantDeleted {
				t.Errorf("entry exists = %v, want deleted = %v", exists, tt.wantDeleted)
			}
			if tt.wantDeleted {
				if len(td.worktrees.deleted) != 1 {
					t.Errorf("deleted = %v", td.worktrees.deleted)
				}
				if m.cfg.TrackState("feature/x") != config.Untracked {
					t.Error("deleting should untrack the branch")
				}
			} else if len(td.worktrees.deleted) != 0 {
				t.Error("nothing should be deleted")
			}
		})
	}
}

func TestDelete_EscCancels(t *testing.T) {
	cfg := trackedConfig("b").WithWorktree(config.WorktreeEntry{Branch: "b", Path: "/work/b"})
	m, td := newTestModel(t, cfg)
	m = selectBranch(t, m, "b")

	m, _ = press(t, m, "d")
	m, _ = press(t, m, "esc")
	if m.confirm.open {
		t.Error("esc should close the dialog")
	}
	if len(td.worktrees.deleted) != 0 {
		t.Error("esc should not delete")
	}
	if m.quitting {
		t.Error("esc in the dialog must not quit")
	}
}

func TestDelete_Failure(t *testing.T) {
	cfg := trackedConfig("b").WithWorktree(config.WorktreeEntry{Branch: "b", Path: "/work/b"})
	m, td := newTestModel(t, cfg)
	td.worktrees.deleteErr = errors.New("contains modified files")
	m = selectBranch(t, m, "b")

	m, _ = press(t, m, "d")
	m = typeText(t, m, "yes")
	m, cmd := press(t, m, "enter")
	m = runCmd(t, m, cmd)

	if _, ok := m.cfg.Worktree("b"); !ok {
		t.Error("entry should stay after a failed delete")
	}
	if m.statusLevel != StatusError {
		t.Errorf("status = %v, want error", m.statusLevel)
	}
}

func TestDelete_NoWorktree(t *testing.T) {
	m, _ := newTestModel(t, trackedConfig())
	m = apply(m, polled("feature/x"))
	m = selectBranch(t, m, "feature/x")

	m, _ = press(t, m, "d")
	if m.confirm.open {
		t.Error("no dialog for a branch without a worktree")
	}
}

func TestCreateKey_TracksAndCreates(t *testing.T) {
	m, td := newTestModel(t, trackedConfig())
	m = apply(m, polled("feature/x"))
	m = selectBranch(t, m, "feature/x")

	m, cmd := press(t, m, "enter")
	if m.cfg.TrackState("feature/x") != config.Tracked {
		t.Error("enter should mark the branch tracked")
	}
	if !m.creating["feature/x"] {
		t.Error("branch should be marked as creating")
	}
	m = runCmd(t, m, cmd)

	if _, ok := m.cfg.Worktree("feature/x"); !ok {
		t.Error("worktree not recorded")
	}
	if len(td.worktrees.created) != 1 {
		t.Errorf("created = %v", td.worktrees.created)
	}
	if m.creating["feature/x"] {
		t.Error("creating flag should clear")
	}
}

func TestCreate_FailureShowsError(t *testing.T) {
	m, td := newTestModel(t, trackedConfig())
	td.worktrees.createErr = errors.New("path already exists")
	m = apply(m, polled("feature/x"))
	m = selectBranch(t, m, "feature/x")

	m, cmd := press(t, m, "enter")
	m = runCmd(t, m, cmd)

	if m.statusLevel != StatusError || !strings.Contains(m.statusMessage, "path already exists") {
		t.Errorf("status = %v %q", m.statusLevel, m.statusMessage)
	}
	if len(td.hooks.requests) != 0 {
		t.Error("no hook should run after a failed create")
	}
}

func TestTrackKeys(t *testing.T) {
	m, td := newTestModel(t, trackedConfig())
	m = apply(m, polled("feature/x"))
	m = selectBranch(t, m, "feature/x")

	m, _ = press(t, m, "t")
	if m.cfg.TrackState("feature/x") != config.Tracked {
		t.Errorf("t: %v, want tracked", m.cfg.TrackState("feature/x"))
	}
	m, _ = press(t, m, "t")
	if m.cfg.TrackState("feature/x") != config.Untracked {
		t.Errorf("t again: %v, want untracked", m.cfg.TrackState("feature/x"))
	}
	m, _ = press(t, m, "i")
	if m.cfg.TrackState("feature/x") != config.Undecided {
		t.Errorf("i: %v, want undecided", m.cfg.TrackState("feature/x"))
	}
	m, _ = press(t, m, "u")
	if m.cfg.TrackState("feature/x") != config.Untracked {
		t.Errorf("u: %v, want untracked", m.cfg.TrackState("feature/x"))
	}

	if len(td.store.saved) != 4 {
		t.Errorf("saves = %d, want one per change", len(td.store.saved))
	}
	if len(td.poller.policies) != 4 {
		t.Fatalf("policies = %d, want one per change", len(td.poller.policies))
	}
	if !td.poller.policies[3].Untracked.Has("feature/x") {
		t.Error("watcher should receive the latest decisions")
	}
}

func TestPollAndAutoCreateKeys(t *testing.T) {
	m, td := newTestModel(t, trackedConfig())

	m, _ = press(t, m, "r")
	if td.poller.forced != 1 {
		t.Errorf("forced polls = %d", td.poller.forced)
	}
	if m.statusLevel != StatusLoading {
		t.Errorf("status = %v, want loading", m.statusLevel)
	}

	m, _ = press(t, m, "a")
	if !m.cfg.AutoCreateWorktrees || !td.store.last(t).AutoCreateWorktrees {
		t.Error("a should turn auto-create on and persist it")
	}
}

func TestNavigation(t *testing.T) {
	m, _ := newTestModel(t, trackedConfig())
	m = apply(m, polled("a", "b", "c"))

	m, _ = press(t, m, "down")
	m, _ = press(t, m, "j")
	if m.selected != 2 {
		t.Errorf("selected = %d, want 2", m.selected)
	}
	m, _ = press(t, m, "down")
	if m.selected != 2 {
		t.Error("selection should stop at the last row")
	}
	m, _ = press(t, m, "k")
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}
}

func TestModes_HelpAndLogs(t *testing.T) {
	m, _ := newTestModel(t, trackedConfig())

	m, _ = press(t, m, "?")
	if m.Mode() != ModeHelp {
		t.Fatalf("mode = %v, want help", m.Mode())
	}
	m, _ = press(t, m, "q")
	if m.Mode() != ModeNormal || m.quitting {
		t.Error("q in help should close help, not quit")
	}

	m, _ = press(t, m, "l")
	if m.Mode() != ModeLogs {
		t.Fatalf("mode = %v, want logs", m.Mode())
	}
	m, _ = press(t, m, "f")
	if !m.logFilter {
		t.Error("f should filter to the selected branch")
	}
	m, _ = press(t, m, "esc")
	if m.Mode() != ModeNormal {
		t.Error("esc should leave the log view")
	}
}

func TestQuit_InterruptsRunningHooks(t *testing.T) {
	cfg := trackedConfig("b")
	cfg.AutoCreateWorktrees = true
	m, td := newTestModel(t, cfg)
	m, runID := createdFor(t, m, td, "b")
	m = apply(m, events.HookStarted{RunID: runID, Branch: "b"})

	m, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if len(td.hooks.cancelled) != 1 || td.hooks.cancelled[0] != runID {
		t.Errorf("cancelled = %v", td.hooks.cancelled)
	}
	if wt, _ := td.store.last(t).Worktree("b"); wt.Hook.State != config.HookInterrupted {
		t.Errorf("persisted hook = %q, want interrupted", wt.Hook.State)
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestAutoCreateEligible(t *testing.T) {
	tests := []struct {
		name     string
		auto     bool
		kind     events.ClassificationKind
		baseline bool
		want     bool
	}{
		{"off", false, events.Tracked, false, false},
		{"tracked", true, events.Tracked, false, true},
		{"tracked at baseline", true, events.Tracked, true, true},
		{"undecided new", true, events.Undecided, false, true},
		{"undecided at baseline", true, events.Undecided, true, false},
		{"untracked", true, events.Untracked, false, false},
		{"ignored", true, events.Ignored, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.AutoCreateWorktrees = tt.auto
			ev := events.BranchDiscovered{Branch: "x", Classification: events.Classification{Kind: tt.kind}, Baseline: tt.baseline}
			if got := autoCreateEligible(cfg, ev); got != tt.want {
				t.Errorf("autoCreateEligible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscovery_BranchPushedWhileAwayIsAutoCreated(t *testing.T) {
	cfg := trackedConfig()
	cfg.AutoCreateWorktrees = true
	m, td := newTestModel(t, cfg)

	m, cmd := m.applyEvent(events.BranchDiscovered{
		Branch:         "feature/pushed-offline",
		Classification: events.Classification{Kind: events.Undecided},
	})
	if cmd == nil {
		t.Fatal("expected a create command for a branch the first fetch brought in")
	}
	m = runCmd(t, m, cmd)

	if _, ok := m.cfg.Worktree("feature/pushed-offline"); !ok {
		t.Error("worktree entry not recorded")
	}
	if len(td.worktrees.created) != 1 {
		t.Errorf("created = %v", td.worktrees.created)
	}

	m, cmd = m.applyEvent(events.BranchDiscovered{
		Branch:         "main",
		Classification: events.Classification{Kind: events.Undecided},
		Baseline:       true,
	})
	if cmd != nil {
		t.Error("a branch known before the first fetch should wait for a decision")
	}
}

func TestDiscovery_UndecidedWithoutAutoCreate(t *testing.T) {
	m, td := newTestModel(t, trackedConfig())
	m, cmd := m.applyEvent(events.BranchDiscovered{Branch: "new", Classification: events.Classification{Kind: events.Undecided}})
	if cmd != nil {
		t.Error("no create without auto-create")
	}
	if len(td.worktrees.created) != 0 {
		t.Error("nothing should be created")
	}
	if !strings.Contains(m.statusMessage, "new") {
		t.Errorf("status = %q, should announce the branch", m.statusMessage)
	}
}

func TestFetchFailed(t *testing.T) {
	m, _ := newTestModel(t, trackedConfig())
	m = apply(m,
		events.PollStarted{At: time.Now()},
		events.FetchFailed{Remote: "origin", Reason: "could not resolve host"},
		events.PollCompleted{Err: "could not resolve host"},
	)

	if m.statusLevel != StatusError || !strings.Contains(m.statusMessage, "could not resolve host") {
		t.Errorf("status = %v %q", m.statusLevel, m.statusMessage)
	}
	if m.polling {
		t.Error("polling should end with PollCompleted")
	}
	lines := m.Ring().For("watcher")
	if len(lines) != 1 || lines[0].Stream != events.System {
		t.Errorf("watcher lines = %+v", lines)
	}
	if m.cfg.LastFetch != nil {
		t.Error("a failed poll must not set LastFetch")
	}
}

func TestPollCompleted_UpdatesRowsAndLastFetch(t *testing.T) {
	m, _ := newTestModel(t, trackedConfig())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := polled("main", "feature/x")
	ev.At = at
	ev.Branches[0].Classification = events.Classification{Kind: events.AlreadyWorktree}

	m = apply(m, ev)
	if len(m.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.rows))
	}
	if m.cfg.LastFetch == nil || !m.cfg.LastFetch.Equal(at) {
		t.Errorf("LastFetch = %v", m.cfg.LastFetch)
	}
	if !m.external.Has("main") {
		t.Error("a live worktree this tool did not create should be external")
	}
}

func TestFirstRun_ApplySelection(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AutoCreateWorktrees = true
	m, td := newTestModel(t, cfg)

	m = apply(m,
		events.BranchDiscovered{Branch: "feature/a", Classification: events.Classification{Kind: events.Undecided}, Baseline: true},
		events.BranchDiscovered{Branch: "feature/b", Classification: events.Classification{Kind: events.Undecided}, Baseline: true},
	)
	if len(m.candidates) != 2 {
		t.Fatalf("candidates = %v", m.candidates)
	}
	if len(td.worktrees.created) != 0 {
		t.Error("nothing is created before the selection is applied")
	}

	m, _ = press(t, m, " ")
	m, cmd := press(t, m, "enter")
	m = runCmd(t, m, cmd)

	if m.Mode() != ModeNormal {
		t.Errorf("mode = %v, want normal", m.Mode())
	}
	if m.cfg.TrackState("feature/a") != config.Tracked || m.cfg.TrackState("feature/b") != config.Untracked {
		t.Errorf("decisions: a=%v b=%v", m.cfg.TrackState("feature/a"), m.cfg.TrackState("feature/b"))
	}
	if len(td.worktrees.created) != 1 || td.worktrees.created[0] != "feature/a" {
		t.Errorf("created = %v, want [feature/a]", td.worktrees.created)
	}
}

func TestFirstRun_Skip(t *testing.T) {
	m, td := newTestModel(t, config.DefaultConfig())
	m = apply(m, events.BranchDiscovered{Branch: "a", Baseline: true})

	m, _ = press(t, m, "esc")
	if m.Mode() != ModeNormal {
		t.Errorf("mode = %v, want normal", m.Mode())
	}
	if m.cfg.TrackState("a") != config.Undecided {
		t.Error("skip should leave branches undecided")
	}
	if len(td.store.saved) != 0 {
		t.Error("skip should not save")
	}
}

func TestFirstRun_QuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m, _ := newTestModel(t, config.DefaultConfig())
			m = apply(m, events.BranchDiscovered{Branch: "a", Baseline: true})
			if m.Mode() != ModeFirstRun {
				t.Fatalf("mode = %v, want first run", m.Mode())
			}

			m, cmd := press(t, m, k)
			if cmd == nil {
				t.Fatalf("%s should return a quit command", k)
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
			if !m.quitting {
				t.Error("model should be quitting")
			}
		})
	}
}

func TestPersist_SaveFailureKeepsMemoryState(t *testing.T) {
	m, td := newTestModel(t, trackedConfig())
	td.store.saveErr = errors.New("read-only file system")
	m = apply(m, polled("feature/x"))
	m = selectBranch(t, m, "feature/x")

	m, _ = press(t, m, "t")
	if m.cfg.TrackState("feature/x") != config.Tracked {
		t.Error("in-memory decision should stand")
	}
	if m.statusLevel != StatusError || !strings.Contains(m.statusMessage, "read-only") {
		t.Errorf("status = %v %q", m.statusLevel, m.statusMessage)
	}
}

func TestConfigChanged_MergesSettings(t *testing.T) {
	m, td := newTestModel(t, trackedConfig("keep"))

	edited := config.DefaultConfig()
	edited.PollIntervalSecs = 30
	edited.Theme = "latte"
	edited.IgnorePatterns = []string{"wip/*"}
	td.store.loaded = edited
	td.store.changed = true

	updated, _ := m.Update(configChangedMsg{})
	m = updated.(Model)

	if m.cfg.PollIntervalSecs != 30 || m.cfg.Theme != "latte" {
		t.Errorf("settings not merged: %+v", m.cfg)
	}
	if !m.cfg.TrackedBranches.Has("keep") {
		t.Error("track decisions should stay with the running session")
	}
	if _, ok := m.ignore.Match("wip/x"); !ok {
		t.Error("ignore patterns should be recompiled")
	}
	if len(td.poller.policies) == 0 || td.poller.policies[len(td.poller.policies)-1].Interval != 30*time.Second {
		t.Error("watcher should get the new interval")
	}
}

func TestConfigChanged_InvalidPatternKeepsOld(t *testing.T) {
	m, td := newTestModel(t, trackedConfig())
	bad := config.DefaultConfig()
	bad.IgnorePatterns = []string{"[unclosed"}
	td.store.loaded = bad
	td.store.changed = true

	updated, _ := m.Update(configChangedMsg{})
	m = updated.(Model)

	if m.statusLevel != StatusError {
		t.Errorf("status = %v, want error", m.statusLevel)
	}
	if len(m.cfg.IgnorePatterns) != len(config.DefaultConfig().IgnorePatterns) {
		t.Error("config should not change when the new patterns are invalid")
	}
}

func TestLogEntries_WarningsBecomeSystemLines(t *testing.T) {
	m, _ := newTestModel(t, trackedConfig())
	updated, _ := m.Update(logEntriesMsg{entries: []logging.LogEntry{
		{Level: "INFO", Scope: "watcher", Message: "poll completed"},
		{Level: "WARN", Scope: "watcher", Message: "listing worktrees failed"},
		{Level: "ERROR", Scope: "app", Message: "config save failed"},
	}})
	m = updated.(Model)

	entries := m.Ring().Entries()
	if len(entries) != 2 {
		t.Fatalf("ring has %d entries, want 2", len(entries))
	}
	if entries[0].Source != "watcher" || entries[0].Stream != events.System {
		t.Errorf("first entry = %+v", entries[0])
	}
}

func TestWindowSize(t *testing.T) {
	m, _ := newTestModel(t, trackedConfig())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d", m.width, m.height)
	}
	if m.logView.Width != 120 {
		t.Errorf("log viewport width = %d", m.logView.Width)
	}
}

func TestHookFinished_SupersededRunDoesNotTouchNewEntry(t *testing.T) {
	cfg := trackedConfig("b")
	cfg.AutoCreateWorktrees = true
	m, td := newTestModel(t, cfg)
	m, oldRun := createdFor(t, m, td, "b")

	updated, _ := m.Update(worktreeDeletedMsg{branch: "b"})
	m = updated.(Model)
	m, newRun := createdFor(t, m, td, "b")
	if newRun == oldRun {
		t.Fatal("run IDs should differ")
	}

	m = apply(m, events.HookFinished{RunID: oldRun, Branch: "b", Outcome: events.Outcome{Kind: events.Failed, ExitCode: 2}})
	if wt, _ := m.cfg.Worktree("b"); wt.Hook.State != config.HookPending {
		t.Errorf("new entry hook = %q, want pending", wt.Hook.State)
	}

	m = apply(m, events.HookFinished{RunID: newRun, Branch: "b", Outcome: events.Outcome{Kind: events.Succeeded}})
	if wt, _ := m.cfg.Worktree("b"); wt.Hook.State != config.HookSucceeded {
		t.Errorf("new entry hook = %q, want succeeded", wt.Hook.State)
	}
}
