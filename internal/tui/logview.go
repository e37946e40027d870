package tui

import (
	"strings"

	"gwa/internal/executor"
)

// logEntries returns the lines shown in the log view: everything, or only
// the selected branch when the filter is on.
func (m Model) logEntries() []executor.LogEntry {
	if m.logFilter {
		if row, ok := m.selectedRow(); ok {
			return m.ring.For(row.Name)
		}
	}
	return m.ring.Entries()
}

func (m *Model) resizeLogView() {
	layout := ComputeLayout(m.width, m.height)
	m.logView.Width = layout.Body.Width
	m.logView.Height = layout.Body.Height - 1
	m.syncLogView()
	m.clampOffset()
}

// syncLogView refreshes the viewport content and keeps it pinned to the
// bottom while following.
func (m *Model) syncLogView() {
	if m.logView.Width == 0 {
		return
	}
	entries := m.logEntries()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, m.renderRingEntry(e, true))
	}
	if len(lines) == 0 {
		lines = append(lines, m.styles.MutedStyle().Render("No output yet"))
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
	if m.logsFollow {
		m.logView.GotoBottom()
	}
}
