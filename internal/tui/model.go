package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"gwa/internal/config"
	"gwa/internal/events"
	"gwa/internal/executor"
	"gwa/internal/logging"
)

// Mode selects which screen handles keys and rendering.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFirstRun
	ModeHelp
	ModeLogs
)

// StatusLevel controls the icon and color of the status bar message.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusError
	StatusLoading
)

func (s StatusLevel) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusLoading:
		return "loading"
	default:
		return "info"
	}
}

// deleteConfirm is the open delete dialog. The user has to type "yes".
type deleteConfirm struct {
	open   bool
	branch string
	input  textinput.Model
}

// Model is the single owner of the configuration while the TUI runs. Every
// watcher and hook event is applied here, in arrival order.
type Model struct {
	ctx    context.Context
	deps   Deps
	logger *logging.ScopedLogger

	cfg      config.Config
	ignore   *config.Matcher
	external config.BranchSet

	mode     Mode
	prevMode Mode
	confirm  deleteConfirm
	keys     keyMap

	remote   []events.ClassifiedBranch
	rows     []branchRow
	selected int
	offset   int

	// first-run selection
	candidates []string
	chosen     map[string]bool
	firstIdx   int

	polling  bool
	lastPoll time.Time
	pollErr  string

	creating  map[string]bool
	deleting  map[string]bool
	runs      map[string]string // runID -> branch
	activeRun map[string]string // branch -> runID

	ring       *executor.LogRing
	logView    viewport.Model
	logFilter  bool
	logsFollow bool

	statusLevel   StatusLevel
	statusMessage string
	err           error
	spinner       spinner.Model

	width    int
	height   int
	styles   *Styles
	quitting bool
}

// NewModel builds the model from its dependencies.
func NewModel(deps Deps) Model {
	ctx := deps.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	ignore := deps.Ignore
	if ignore == nil {
		ignore, _ = config.CompilePatterns(nil)
	}

	styles := NewStyles(deps.Config.Theme)
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.SpinnerStyle()

	m := Model{
		ctx:        ctx,
		deps:       deps,
		logger:     logger,
		cfg:        deps.Config.Clone(),
		ignore:     ignore,
		external:   config.NewBranchSet(deps.External...),
		keys:       defaultKeyMap(),
		chosen:     make(map[string]bool),
		creating:   make(map[string]bool),
		deleting:   make(map[string]bool),
		runs:       make(map[string]string),
		activeRun:  make(map[string]string),
		ring:       executor.NewLogRing(deps.RingCapacity),
		logView:    viewport.New(0, 0),
		logsFollow: true,
		spinner:    sp,
		styles:     styles,
	}
	if m.cfg.NeedsFirstRun() {
		m.mode = ModeFirstRun
	}
	if m.cfg.LastFetch != nil {
		m.lastPoll = *m.cfg.LastFetch
	}
	m.refreshRows()
	return m
}

// Init starts reading every event source and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForEvent(),
		m.waitForConfigChange(),
		m.consumeLogEntries(),
		m.spinner.Tick,
	)
}

// Config returns the model's current configuration.
func (m Model) Config() config.Config {
	return m.cfg.Clone()
}

// Mode returns the active screen.
func (m Model) Mode() Mode {
	return m.mode
}

// Ring exposes the captured log lines.
func (m Model) Ring() *executor.LogRing {
	return m.ring
}

func (m *Model) setError(msg string, err error) {
	m.statusLevel = StatusError
	m.statusMessage = msg
	m.err = err
	if err != nil {
		m.statusMessage = msg + ": " + err.Error()
	}
}

func (m *Model) setSuccess(msg string) {
	m.statusLevel = StatusSuccess
	m.statusMessage = msg
	m.err = nil
}

func (m *Model) setInfo(msg string) {
	m.statusLevel = StatusInfo
	m.statusMessage = msg
	m.err = nil
}

func (m *Model) setLoading(msg string) {
	m.statusLevel = StatusLoading
	m.statusMessage = msg
	m.err = nil
}

func (m *Model) clearStatus() {
	m.statusLevel = StatusInfo
	m.statusMessage = ""
	m.err = nil
}

// systemLine adds a line of the tool's own output to the log ring.
func (m *Model) systemLine(source, line string) {
	m.ring.Append(executor.LogEntry{
		Timestamp: time.Now(),
		Source:    source,
		Stream:    events.System,
		Line:      line,
	})
	m.syncLogView()
}
