// pattern: Imperative Shell

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"gwa/internal/config"
	"gwa/internal/events"
	"gwa/internal/executor"
	"gwa/internal/logging"
	"gwa/internal/watcher"
)

// eventMsg carries one event from the inbox.
type eventMsg struct {
	ev events.Event
}

// inboxClosedMsg is sent once the inbox channel is closed.
type inboxClosedMsg struct{}

// configChangedMsg is sent when the config file changed on disk.
type configChangedMsg struct{}

// logEntriesMsg delivers log entries from the logging channel.
type logEntriesMsg struct {
	entries []logging.LogEntry
}

type worktreeCreatedMsg struct {
	branch string
	entry  config.WorktreeEntry
	err    error
}

type worktreeDeletedMsg struct {
	branch string
	err    error
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLogView()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		next, cmd := m.applyEvent(msg.ev)
		return next, tea.Batch(cmd, next.waitForEvent())

	case inboxClosedMsg:
		m.logger.Debug("event inbox closed")
		return m, nil

	case configChangedMsg:
		m.reloadConfig()
		return m, m.waitForConfigChange()

	case logEntriesMsg:
		for _, entry := range msg.entries {
			if entry.AtLeast("WARN") {
				m.systemLine(entry.Scope, entry.Summary())
			}
		}
		return m, m.consumeLogEntries()

	case worktreeCreatedMsg:
		m.handleCreated(msg)
		return m, nil

	case worktreeDeletedMsg:
		m.handleDeleted(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.confirm.open {
		var cmd tea.Cmd
		m.confirm.input, cmd = m.confirm.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyEvent folds one watcher or executor event into the model. The
// returned command never re-arms the inbox.
func (m Model) applyEvent(ev events.Event) (Model, tea.Cmd) {
	switch ev := ev.(type) {
	case events.PollStarted:
		m.polling = true
		if ev.Forced {
			m.setLoading("fetching " + m.cfg.RemoteName)
		}

	case events.FetchFailed:
		m.pollErr = ev.Reason
		m.setError(fmt.Sprintf("fetch from %s failed", ev.Remote), errors.New(ev.Reason))
		m.systemLine("watcher", fmt.Sprintf("fetch from %s failed: %s", ev.Remote, ev.Reason))

	case events.BranchDiscovered:
		return m.handleDiscovered(ev)

	case events.PollCompleted:
		m.polling = false
		if ev.Err != "" {
			m.pollErr = ev.Err
			return m, nil
		}
		m.pollErr = ""
		m.lastPoll = ev.At
		at := ev.At.UTC()
		m.cfg.LastFetch = &at
		m.remote = ev.Branches

		known := m.cfg.WorktreeBranches()
		external := config.BranchSet{}
		for _, b := range ev.Branches {
			if b.Classification.Kind == events.AlreadyWorktree && !known.Has(b.Name) {
				external.Add(b.Name)
			}
		}
		m.external = external
		if m.statusLevel == StatusLoading && len(m.creating) == 0 {
			m.setSuccess(fmt.Sprintf("fetched %d branches", ev.BranchCount))
		}
		m.refreshRows()

	case events.HookStarted:
		branch, ok := m.runs[ev.RunID]
		if !ok || m.activeRun[branch] != ev.RunID {
			m.logger.Debug("ignoring start of stale hook run", "run", ev.RunID)
			return m, nil
		}
		if next, found := m.cfg.WithHookStatus(branch, config.Running()); found {
			m.cfg = next
			m.persist()
		}
		m.systemLine(branch, "running: "+ev.Command)
		m.refreshRows()

	case events.HookOutput:
		if _, ok := m.runs[ev.RunID]; !ok {
			return m, nil
		}
		m.ring.Append(executor.LogEntry{
			Timestamp: ev.At,
			Source:    ev.Branch,
			Stream:    ev.Stream,
			Line:      ansi.Strip(ev.Line),
		})
		m.syncLogView()

	case events.HookFinished:
		m.handleFinished(ev)
	}
	return m, nil
}

func (m Model) handleDiscovered(ev events.BranchDiscovered) (Model, tea.Cmd) {
	if m.mode == ModeFirstRun || (m.mode == ModeHelp && m.prevMode == ModeFirstRun) {
		if _, ok := m.chosen[ev.Branch]; !ok {
			m.candidates = append(m.candidates, ev.Branch)
			m.chosen[ev.Branch] = false
		}
		return m, nil
	}

	if !ev.Baseline {
		m.systemLine("watcher", "new branch "+ev.Branch)
	}
	if autoCreateEligible(m.cfg, ev) {
		return m.startCreate(ev.Branch)
	}
	if !ev.Baseline {
		m.setInfo("new branch: " + ev.Branch)
	}
	return m, nil
}

func (m *Model) handleFinished(ev events.HookFinished) {
	branch, ok := m.runs[ev.RunID]
	if !ok {
		m.logger.Debug("ignoring completion of unknown hook run", "run", ev.RunID)
		return
	}
	delete(m.runs, ev.RunID)
	if m.activeRun[branch] != ev.RunID {
		m.logger.Debug("ignoring completion of a superseded hook run", "branch", branch, "run", ev.RunID)
		return
	}
	delete(m.activeRun, branch)

	status := hookStatusFor(ev.Outcome)
	next, found := m.cfg.WithHookStatus(branch, status)
	if !found {
		m.logger.Debug("hook finished for a removed worktree", "branch", branch)
		return
	}
	m.cfg = next
	saved := m.persist()

	switch status.State {
	case config.HookSucceeded:
		m.systemLine(branch, "command finished")
		if saved {
			m.setSuccess("hook finished for " + branch)
		}
	case config.HookInterrupted:
		m.systemLine(branch, "command interrupted")
		if saved {
			m.setInfo("hook interrupted for " + branch)
		}
	default:
		if ev.Outcome.Kind == events.SpawnError {
			m.systemLine(branch, "command failed to start: "+ev.Outcome.Reason)
		} else {
			m.systemLine(branch, fmt.Sprintf("command exited with code %d", ev.Outcome.ExitCode))
		}
		m.setError(fmt.Sprintf("hook failed for %s", branch), errors.New(status.String()))
	}
	m.refreshRows()
}

// startCreate begins creating a worktree for branch in the background.
func (m Model) startCreate(branch string) (Model, tea.Cmd) {
	if m.creating[branch] {
		return m, nil
	}
	if _, ok := m.cfg.Worktree(branch); ok {
		return m, nil
	}
	if m.deps.Worktrees == nil {
		return m, nil
	}

	m.creating[branch] = true
	m.setLoading("creating worktree for " + branch)
	m.refreshRows()

	ops := m.deps.Worktrees
	ctx := m.ctx
	cfg := m.cfg.Clone()
	return m, func() tea.Msg {
		entry, err := ops.CreateWorktree(ctx, cfg, branch)
		return worktreeCreatedMsg{branch: branch, entry: entry, err: err}
	}
}

func (m *Model) handleCreated(msg worktreeCreatedMsg) {
	delete(m.creating, msg.branch)
	defer m.refreshRows()

	if msg.err != nil {
		m.setError("failed to create worktree for "+msg.branch, msg.err)
		m.systemLine(msg.branch, "worktree creation failed: "+msg.err.Error())
		return
	}
	if _, known := m.cfg.Worktree(msg.branch); known {
		return
	}

	m.cfg = m.cfg.WithWorktree(msg.entry)
	m.systemLine(msg.branch, "worktree created at "+msg.entry.Path)
	if m.persist() {
		m.setSuccess("created worktree for " + msg.branch)
	}
	m.startHook(msg.entry)
}

// startHook runs the post-create command for entry. Hook events arrive
// through the inbox tagged with a fresh run ID.
func (m *Model) startHook(entry config.WorktreeEntry) {
	if m.deps.Hooks == nil {
		return
	}
	workDir := ""
	if m.cfg.CommandWorkingDir != nil {
		workDir = *m.cfg.CommandWorkingDir
	}
	runID := executor.NewRunID()
	m.runs[runID] = entry.Branch
	m.activeRun[entry.Branch] = runID
	m.deps.Hooks.RunHook(m.ctx, executor.HookRequest{
		RunID:        runID,
		Branch:       entry.Branch,
		Command:      m.cfg.Command(),
		WorktreePath: entry.Path,
		WorkingDir:   workDir,
	})
}

func (m Model) startDelete(branch string) (Model, tea.Cmd) {
	entry, ok := m.cfg.Worktree(branch)
	if !ok || m.deps.Worktrees == nil || m.deleting[branch] {
		return m, nil
	}
	m.deleting[branch] = true
	m.setLoading("deleting worktree for " + branch)
	m.refreshRows()

	ops := m.deps.Worktrees
	ctx := m.ctx
	return m, func() tea.Msg {
		return worktreeDeletedMsg{branch: branch, err: ops.DeleteWorktree(ctx, entry)}
	}
}

func (m *Model) handleDeleted(msg worktreeDeletedMsg) {
	delete(m.deleting, msg.branch)
	defer m.refreshRows()

	if msg.err != nil {
		m.setError("failed to delete worktree for "+msg.branch, msg.err)
		m.systemLine(msg.branch, "worktree deletion failed: "+msg.err.Error())
		return
	}
	// A hook still running for the old worktree must not touch a new one.
	delete(m.activeRun, msg.branch)
	m.cfg = m.cfg.WithoutWorktree(msg.branch).WithTrackState(msg.branch, config.Untracked)
	m.systemLine(msg.branch, "worktree deleted")
	if m.persist() {
		m.setSuccess("deleted worktree for " + msg.branch)
	}
}

// persist saves the config and hands the watcher a fresh policy. A failed
// save leaves the in-memory config in place and reports false.
func (m *Model) persist() bool {
	if m.deps.Poller != nil {
		m.deps.Poller.SetPolicy(watcher.PolicyFrom(m.cfg, m.ignore))
	}
	if m.deps.Store == nil {
		return true
	}
	if err := m.deps.Store.Save(m.cfg); err != nil {
		m.logger.Error("config save failed", "error", err)
		m.setError("config save failed", err)
		return false
	}
	return true
}

// reloadConfig merges settings edited outside the TUI.
func (m *Model) reloadConfig() {
	if m.deps.Store == nil {
		return
	}
	loaded, changed, err := m.deps.Store.LoadIfChanged()
	if err != nil {
		m.setError("config reload failed", err)
		return
	}
	if !changed {
		return
	}
	ignore, err := config.CompilePatterns(loaded.IgnorePatterns)
	if err != nil {
		m.setError("config reload failed", err)
		return
	}
	m.cfg = m.cfg.MergeSettings(loaded)
	m.ignore = ignore
	m.styles = NewStyles(m.cfg.Theme)
	m.spinner.Style = m.styles.SpinnerStyle()
	if m.deps.Poller != nil {
		m.deps.Poller.SetPolicy(watcher.PolicyFrom(m.cfg, m.ignore))
	}
	m.refreshRows()
	m.setInfo("config reloaded")
}

func (m *Model) setTrackState(branch string, state config.TrackState) {
	m.cfg = m.cfg.WithTrackState(branch, state)
	m.refreshRows()
	if m.persist() {
		m.setInfo(fmt.Sprintf("%s is now %s", branch, state))
	}
}

func (m *Model) refreshRows() {
	m.rows = buildRows(m.cfg, m.ignore, m.remote, m.external, m.creating, m.deleting)
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.clampOffset()
}

func (m *Model) clampOffset() {
	visible := ComputeLayout(m.width, m.height).ListRows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) selectedRow() (branchRow, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return branchRow{}, false
	}
	return m.rows[m.selected], true
}

// shutdown cancels running hooks and records them as interrupted.
func (m *Model) shutdown() {
	changed := false
	for branch, runID := range m.activeRun {
		if m.deps.Hooks != nil {
			m.deps.Hooks.Cancel(runID)
		}
		if next, ok := m.cfg.WithHookStatus(branch, config.Interrupted("quit before the hook finished")); ok {
			m.cfg = next
			changed = true
		}
		delete(m.runs, runID)
		delete(m.activeRun, branch)
	}
	if changed {
		m.persist()
	}
	m.quitting = true
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm.open {
		return m.handleConfirmKey(msg)
	}
	switch m.mode {
	case ModeHelp:
		return m.handleHelpKey(msg)
	case ModeLogs:
		return m.handleLogsKey(msg)
	case ModeFirstRun:
		return m.handleFirstRunKey(msg)
	}
	return m.handleNormalKey(msg)
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), msg.Type == tea.KeyEsc:
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.prevMode = m.mode
		m.mode = ModeHelp
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		m.mode = ModeLogs
		m.logsFollow = true
		m.syncLogView()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
			m.clampOffset()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.rows)-1 {
			m.selected++
			m.clampOffset()
		}
		return m, nil

	case key.Matches(msg, m.keys.Poll):
		if m.deps.Poller != nil {
			m.deps.Poller.ForcePoll()
		}
		m.setLoading("fetching " + m.cfg.RemoteName)
		return m, nil

	case key.Matches(msg, m.keys.AutoCreate):
		m.cfg.AutoCreateWorktrees = !m.cfg.AutoCreateWorktrees
		if !m.persist() {
			return m, nil
		}
		if m.cfg.AutoCreateWorktrees {
			m.setInfo("auto-create on")
		} else {
			m.setInfo("auto-create off")
		}
		return m, nil
	}

	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Create):
		if row.HasWorktree {
			m.setInfo(row.Name + " already has a worktree at " + row.Entry.Path)
			return m, nil
		}
		if row.Class.Kind == events.AlreadyWorktree {
			m.setInfo(row.Name + " is checked out in a worktree this tool does not manage")
			return m, nil
		}
		if m.cfg.TrackState(row.Name) != config.Tracked {
			m.cfg = m.cfg.WithTrackState(row.Name, config.Tracked)
			m.persist()
		}
		return m.startCreate(row.Name)

	case key.Matches(msg, m.keys.Delete):
		if !row.HasWorktree {
			m.setInfo(row.Name + " has no worktree")
			return m, nil
		}
		if m.deps.RepoRoot != "" && row.Entry.Path == m.deps.RepoRoot {
			m.setError("cannot delete the main worktree", nil)
			return m, nil
		}
		m.openConfirm(row.Name)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Toggle):
		if m.cfg.TrackState(row.Name) == config.Tracked {
			m.setTrackState(row.Name, config.Untracked)
		} else {
			m.setTrackState(row.Name, config.Tracked)
		}
		return m, nil

	case key.Matches(msg, m.keys.Untrack):
		m.setTrackState(row.Name, config.Untracked)
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		m.setTrackState(row.Name, config.Undecided)
		return m, nil
	}
	return m, nil
}

func (m *Model) openConfirm(branch string) {
	in := textinput.New()
	in.Placeholder = "yes"
	in.CharLimit = 8
	in.Width = 10
	in.Focus()
	m.confirm = deleteConfirm{open: true, branch: branch, input: in}
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.confirm = deleteConfirm{}
		m.setInfo("delete cancelled")
		return m, nil
	case tea.KeyEnter:
		branch := m.confirm.branch
		answer := strings.TrimSpace(m.confirm.input.Value())
		m.confirm = deleteConfirm{}
		if !strings.EqualFold(answer, "yes") {
			m.setInfo("delete cancelled")
			return m, nil
		}
		return m.startDelete(branch)
	}
	var cmd tea.Cmd
	m.confirm.input, cmd = m.confirm.input.Update(msg)
	return m, cmd
}

func (m Model) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.mode = m.prevMode
	case "ctrl+c":
		m.shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeNormal
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		m.logFilter = !m.logFilter
		m.logsFollow = true
		m.syncLogView()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logView.GotoTop()
		m.logsFollow = false
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logView.GotoBottom()
		m.logsFollow = true
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.logView.ScrollUp(1)
		m.logsFollow = false
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.logView.ScrollDown(1)
		m.logsFollow = m.logView.AtBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	m.logsFollow = m.logView.AtBottom()
	return m, cmd
}

func (m Model) handleFirstRunKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.prevMode = m.mode
		m.mode = ModeHelp
	case key.Matches(msg, m.keys.Up):
		if m.firstIdx > 0 {
			m.firstIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.firstIdx < len(m.candidates)-1 {
			m.firstIdx++
		}
	case key.Matches(msg, m.keys.Select):
		if m.firstIdx < len(m.candidates) {
			name := m.candidates[m.firstIdx]
			m.chosen[name] = !m.chosen[name]
		}
	case key.Matches(msg, m.keys.Apply):
		return m.applyFirstRun()
	case key.Matches(msg, m.keys.Skip):
		m.mode = ModeNormal
		m.setInfo("selection skipped")
	}
	return m, nil
}

// applyFirstRun records a decision for every candidate and, with
// auto-create on, creates worktrees for the chosen ones.
func (m Model) applyFirstRun() (Model, tea.Cmd) {
	var picked []string
	for _, name := range m.candidates {
		if m.chosen[name] {
			m.cfg = m.cfg.WithTrackState(name, config.Tracked)
			picked = append(picked, name)
		} else {
			m.cfg = m.cfg.WithTrackState(name, config.Untracked)
		}
	}
	m.mode = ModeNormal
	m.refreshRows()
	if m.persist() {
		m.setSuccess(fmt.Sprintf("tracking %d of %d branches", len(picked), len(m.candidates)))
	}

	if !m.cfg.AutoCreateWorktrees {
		return m, nil
	}
	var cmds []tea.Cmd
	for _, name := range picked {
		var cmd tea.Cmd
		m, cmd = m.startCreate(name)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// waitForEvent blocks on the inbox for the next event.
func (m Model) waitForEvent() tea.Cmd {
	ch := m.deps.Inbox
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return inboxClosedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

func (m Model) waitForConfigChange() tea.Cmd {
	ch := m.deps.ConfigChanges
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}

// consumeLogEntries reads one entry, then whatever else is already buffered.
func (m Model) consumeLogEntries() tea.Cmd {
	ch := m.deps.LogEntries
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		entries := []logging.LogEntry{entry}
		for {
			select {
			case e, ok := <-ch:
				if !ok {
					return logEntriesMsg{entries: entries}
				}
				entries = append(entries, e)
			default:
				return logEntriesMsg{entries: entries}
			}
		}
	}
}
