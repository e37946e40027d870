// pattern: Functional Core

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gwa/internal/config"
	"gwa/internal/events"
	"gwa/internal/executor"
)

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.confirm.open {
		return m.renderConfirmDialog()
	}

	layout := ComputeLayout(m.width, m.height)
	header := m.renderHeader(layout)

	var content string
	switch m.mode {
	case ModeHelp:
		content = m.renderHelp(layout)
	case ModeLogs:
		content = m.renderLogView(layout)
	case ModeFirstRun:
		content = m.renderFirstRun(layout)
	default:
		content = m.renderList(layout)
		if layout.DetailOpen() {
			content = lipgloss.JoinHorizontal(lipgloss.Top, content, m.renderDetailPanel(layout))
		}
	}

	statusBar := lipgloss.NewStyle().Width(layout.StatusBar.Width).Render(m.renderStatusBar(layout.StatusBar.Width))
	return lipgloss.JoinVertical(lipgloss.Left, header, content, "", statusBar)
}

func (m Model) renderHeader(layout Layout) string {
	title := m.styles.TitleStyle().Render("git worktree agent")
	if m.deps.Version != "" {
		title += m.styles.MutedStyle().Render(" " + m.deps.Version)
	}

	auto := "off"
	if m.cfg.AutoCreateWorktrees {
		auto = "on"
	}
	fetched := "never fetched"
	if !m.lastPoll.IsZero() {
		fetched = "fetched " + m.lastPoll.Local().Format("15:04:05")
	}
	if m.polling {
		fetched = "fetching…"
	}
	sub := fmt.Sprintf("%s · %s every %s · auto-create %s · %s",
		m.deps.RepoRoot, m.cfg.RemoteName, m.cfg.PollInterval(), auto, fetched)
	counts := hookSummary(m.cfg)
	if n := counts[config.HookPending] + counts[config.HookRunning]; n > 0 {
		sub += fmt.Sprintf(" · %d hooks running", n)
	}
	if n := counts[config.HookFailed]; n > 0 {
		sub += fmt.Sprintf(" · %d failed", n)
	}
	subtitle := m.styles.SubtitleStyle().Render(ansi.Truncate(sub, layout.Header.Width, "…"))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

func (m Model) renderList(layout Layout) string {
	header := m.styles.PanelHeaderFocusedStyle().Width(layout.List.Width).Render(fmt.Sprintf(" Branches (%d)", len(m.rows)))

	if len(m.rows) == 0 {
		msg := "Waiting for the first fetch…"
		if m.pollErr != "" {
			msg = "No branches yet. Last fetch failed."
		}
		body := lipgloss.NewStyle().
			Width(layout.List.Width).
			Height(layout.List.Height - 1).
			Padding(1).
			Render(m.styles.InfoStyle().Render(msg))
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}

	visible := layout.ListRows()
	end := m.offset + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}
	lines := make([]string, 0, visible)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.selected, layout.List.Width))
	}

	body := lipgloss.NewStyle().
		Width(layout.List.Width).
		Height(layout.List.Height - 1).
		MaxHeight(layout.List.Height - 1).
		Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// rowBadge is the short state shown in front of a branch name.
func rowBadge(r branchRow) string {
	switch {
	case r.Deleting:
		return "deleting"
	case r.Creating:
		return "creating"
	case r.HasWorktree:
		return string(r.Entry.Hook.State)
	}
	return r.Class.Kind.String()
}

func (m Model) renderRow(r branchRow, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}

	marker := " "
	switch {
	case r.Creating || r.Deleting:
		marker = m.spinner.View()
	case r.HasWorktree:
		marker = m.styles.HookStyle(r.Entry.Hook.State).Render("●")
	case r.Class.Kind == events.AlreadyWorktree:
		marker = m.styles.ClassificationStyle(r.Class.Kind).Render("○")
	}

	name := r.Name
	if r.Base {
		name += " (base)"
	}
	if !r.OnRemote && r.HasWorktree {
		name += " (gone from remote)"
	}

	badgeStyle := m.styles.ClassificationStyle(r.Class.Kind)
	if r.HasWorktree {
		badgeStyle = m.styles.HookStyle(r.Entry.Hook.State)
	}
	badge := badgeStyle.Render("[" + rowBadge(r) + "]")

	line := cursor + marker + " " + name + " " + badge
	line = ansi.Truncate(line, width, "…")
	if selected {
		return m.styles.SelectedRowStyle().Width(width).Render(line)
	}
	return line
}

func (m Model) renderDetailPanel(layout Layout) string {
	row, ok := m.selectedRow()
	title := " Details"
	if ok {
		title = " " + row.Name
	}
	header := m.styles.PanelHeaderUnfocusedStyle().Width(layout.Detail.Width).Render(ansi.Truncate(title, layout.Detail.Width, "…"))

	bodyHeight := layout.Detail.Height - 1
	panelStyle := lipgloss.NewStyle().
		Width(layout.Detail.Width-2).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		PaddingLeft(1).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color(m.styles.flavor.Surface1().Hex))

	var content string
	if ok {
		content = m.renderDetailContent(row, layout.Detail.Width-3, bodyHeight)
	} else {
		content = m.styles.MutedStyle().Render("Nothing selected")
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, panelStyle.Render(content))
}

func (m Model) renderDetailContent(r branchRow, width, height int) string {
	label := m.styles.MutedStyle()
	lines := []string{
		label.Render("state    ") + m.styles.ClassificationStyle(r.Class.Kind).Render(r.Class.Kind.String()),
	}
	if r.Class.Kind == events.Ignored {
		lines = append(lines, label.Render("pattern  ")+r.Class.Pattern)
	}
	if r.Revision != "" {
		rev := r.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		lines = append(lines, label.Render("revision ")+rev)
	}
	if r.HasWorktree {
		lines = append(lines,
			label.Render("path     ")+ansi.Truncate(r.Entry.Path, width-9, "…"),
			label.Render("hook     ")+m.styles.HookStyle(r.Entry.Hook.State).Render(r.Entry.Hook.String()),
		)
		if cmd := m.cfg.Command(); cmd != "" {
			lines = append(lines,
				label.Render("command  ")+ansi.Truncate(cmd, width-9, "…"),
				label.Render("runs in  ")+ansi.Truncate(m.cfg.HookWorkDir(r.Entry.Path), width-9, "…"),
			)
		}
		if !r.Entry.CreatedAt.IsZero() {
			lines = append(lines, label.Render("created  ")+r.Entry.CreatedAt.Local().Format(time.DateTime))
		}
	}
	lines = append(lines, "")

	room := height - len(lines)
	entries := m.ring.For(r.Name)
	if len(entries) == 0 {
		lines = append(lines, label.Render("No output"))
	} else if room > 0 {
		if len(entries) > room {
			entries = entries[len(entries)-room:]
		}
		for _, e := range entries {
			lines = append(lines, ansi.Truncate(m.renderRingEntry(e, false), width, "…"))
		}
	}
	return strings.Join(lines, "\n")
}

// renderRingEntry formats one captured line. The source is shown when lines
// from several branches are interleaved.
func (m Model) renderRingEntry(e executor.LogEntry, withSource bool) string {
	ts := m.styles.LogTimestampStyle().Render(e.Timestamp.Local().Format("15:04:05"))
	text := m.styles.StreamStyle(e.Stream).Render(e.Line)
	if !withSource {
		return ts + " " + text
	}
	src := m.styles.LogSourceStyle().Render("[" + e.Source + "]")
	return ts + " " + src + " " + text
}

func (m Model) renderLogView(layout Layout) string {
	scope := "all"
	if m.logFilter {
		if row, ok := m.selectedRow(); ok {
			scope = row.Name
		}
	}
	header := m.styles.PanelHeaderFocusedStyle().Width(layout.Body.Width).
		Render(fmt.Sprintf(" Logs (%s) %d/%d", scope, m.ring.Len(), m.ring.Cap()))

	if m.logView.Width == 0 {
		entries := m.logEntries()
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, m.renderRingEntry(e, true))
		}
		if len(lines) == 0 {
			lines = append(lines, m.styles.MutedStyle().Render("No output yet"))
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.logView.View())
}

func (m Model) renderFirstRun(layout Layout) string {
	header := m.styles.PanelHeaderFocusedStyle().Width(layout.Body.Width).Render(" Choose branches to track")

	lines := []string{
		m.styles.InfoStyle().Render("Checked branches are tracked and get worktrees; the rest are left alone."),
		"",
	}
	if len(m.candidates) == 0 {
		lines = append(lines, m.styles.MutedStyle().Render("Waiting for the first fetch…"))
	}
	for i, name := range m.candidates {
		box := "[ ]"
		if m.chosen[name] {
			box = m.styles.SuccessStyle().Render("[x]")
		}
		line := "  " + box + " " + name
		if i == m.firstIdx {
			line = m.styles.SelectedRowStyle().Render("> " + box + " " + name)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n"))
}

func (m Model) renderHelp(layout Layout) string {
	bindings := m.keys.normalHelp()
	lines := []string{m.styles.TitleStyle().Render("Keys"), ""}
	for _, b := range bindings {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("  %s  %s", m.styles.AccentStyle().Render(fmt.Sprintf("%-7s", h.Key)), h.Desc))
	}
	lines = append(lines,
		"",
		m.styles.TitleStyle().Render("Branch states"),
		"",
		"  tracked     worktree created automatically",
		"  untracked   never created automatically",
		"  undecided   new; created automatically only if auto-create is on",
		"  ignored     matches an ignore pattern",
		"",
		m.styles.HelpStyle().Render("config: "+m.configPath()),
	)
	box := m.styles.BoxStyle().Render(strings.Join(lines, "\n"))
	if layout.Body.Width > 0 {
		return lipgloss.Place(layout.Body.Width, layout.Body.Height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (m Model) configPath() string {
	if m.deps.Store == nil {
		return "(not saved)"
	}
	return m.deps.Store.Path()
}

func (m Model) renderConfirmDialog() string {
	title := m.styles.ErrorStyle().Render("Delete worktree")
	entry, _ := m.cfg.Worktree(m.confirm.branch)
	message := m.styles.InfoStyle().Render(fmt.Sprintf("Remove the worktree for %s at\n%s?", m.confirm.branch, entry.Path))
	prompt := m.styles.InfoStyle().Render("Type yes to confirm: ") + m.confirm.input.View()
	help := m.styles.HelpStyle().Render("Enter: confirm • Esc: cancel")

	view := lipgloss.JoinVertical(lipgloss.Left, title, "", message, "", prompt, "", help)
	boxed := m.styles.DangerBoxStyle().Render(view)

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxed)
	}
	return boxed
}

// renderStatusBar renders the status bar with operation feedback and help.
func (m Model) renderStatusBar(width int) string {
	var statusIcon string
	var messageStyle lipgloss.Style

	switch m.statusLevel {
	case StatusLoading:
		statusIcon = m.spinner.View()
		messageStyle = m.styles.InfoStatusStyle()
	case StatusSuccess:
		statusIcon = m.styles.SuccessStyle().Render("✓")
		messageStyle = m.styles.SuccessStyle()
	case StatusError:
		statusIcon = m.styles.ErrorStyle().Render("✗")
		messageStyle = m.styles.ErrorStyle()
	default:
		messageStyle = m.styles.InfoStatusStyle()
	}

	help := m.renderContextualHelp()
	room := width - lipgloss.Width(help) - 4
	if room < 10 {
		room = 10
	}

	var statusText string
	msg := ansi.Truncate(m.statusMessage, room, "…")
	if statusIcon != "" {
		statusText = statusIcon + " " + messageStyle.Render(msg)
	} else if msg != "" {
		statusText = messageStyle.Render(msg)
	}

	spacerWidth := width - lipgloss.Width(statusText) - lipgloss.Width(help) - 2
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, statusText, strings.Repeat(" ", spacerWidth), help)
}

// renderContextualHelp returns help text for the current mode.
func (m Model) renderContextualHelp() string {
	var help string
	switch m.mode {
	case ModeHelp:
		help = "esc/?: close"
	case ModeLogs:
		help = "↑/↓: scroll • g/G: top/bottom • f: filter • esc: back"
	case ModeFirstRun:
		help = "↑/↓: move • space: select • enter: apply • esc: skip"
	default:
		row, ok := m.selectedRow()
		switch {
		case !ok:
			help = "r: fetch • a: auto-create • ?: help • q: quit"
		case row.HasWorktree:
			help = "d: delete • t/u/i: track • l: logs • ?: help • q: quit"
		default:
			help = "enter: create • t/u/i: track • r: fetch • l: logs • ?: help • q: quit"
		}
	}
	return m.styles.HelpStyle().Render(help)
}

// hookSummary counts worktrees per hook state.
func hookSummary(cfg config.Config) map[config.HookState]int {
	out := make(map[config.HookState]int)
	for _, wt := range cfg.Worktrees {
		out[wt.Hook.State]++
	}
	return out
}
