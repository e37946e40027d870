// pattern: Imperative Shell

// Package executor runs post-create hooks in their worktree and reports
// their progress as events. Each run lives in its own goroutine; nothing
// here blocks the caller.
package executor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gwa/internal/events"
	"gwa/internal/logging"
)

// maxLineSize bounds a single output line. Longer lines are split by the
// scanner's error path and reported as a system line.
const maxLineSize = 1024 * 1024

// InterruptedReason is the outcome reason of a run cancelled before it
// finished.
const InterruptedReason = "interrupted"

// HookRequest describes one hook run.
type HookRequest struct {
	RunID        string
	Branch       string
	Command      string
	WorktreePath string
	WorkingDir   string
}

// Dir returns the directory the hook runs in.
func (r HookRequest) Dir() string {
	if r.WorkingDir == "" {
		return r.WorktreePath
	}
	return filepath.Join(r.WorktreePath, r.WorkingDir)
}

// Handle refers to a run started by RunHook.
type Handle struct {
	RunID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the run. The run still ends with a HookFinished event.
func (h Handle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// Done is closed after the run's HookFinished event has been sent.
func (h Handle) Done() <-chan struct{} {
	return h.done
}

// Executor starts hook runs and tracks the ones still in flight.
type Executor struct {
	sink   events.Sender
	logger *logging.ScopedLogger
	now    func() time.Time

	mu      sync.Mutex
	running map[string]Handle
	wg      sync.WaitGroup
}

func New(sink events.Sender, logger *logging.ScopedLogger) *Executor {
	return &Executor{
		sink:    sink,
		logger:  logger,
		now:     time.Now,
		running: make(map[string]Handle),
	}
}

// NewRunID returns a fresh identifier for a hook run.
func NewRunID() string {
	return uuid.NewString()
}

// RunHook starts req in the background and returns immediately. Events are
// sent with ctx; the process itself is bound to a child of ctx so it can be
// cancelled through the handle.
func (e *Executor) RunHook(ctx context.Context, req HookRequest) Handle {
	if req.RunID == "" {
		req.RunID = NewRunID()
	}
	runCtx, cancel := context.WithCancel(ctx)
	h := Handle{RunID: req.RunID, cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	e.running[req.RunID] = h
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(h.done)
		defer cancel()
		defer func() {
			e.mu.Lock()
			delete(e.running, req.RunID)
			e.mu.Unlock()
		}()

		outcome := e.run(ctx, runCtx, req)
		e.sink.Send(ctx, events.HookFinished{
			RunID:   req.RunID,
			Branch:  req.Branch,
			Outcome: outcome,
			At:      e.now(),
		})
	}()
	return h
}

// Cancel stops the run with the given ID, if it is still running.
func (e *Executor) Cancel(runID string) bool {
	e.mu.Lock()
	h, ok := e.running[runID]
	e.mu.Unlock()
	if ok {
		h.Cancel()
	}
	return ok
}

// Running returns the IDs of runs that have not finished.
func (e *Executor) Running() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.running))
	for id := range e.running {
		ids = append(ids, id)
	}
	return ids
}

// Wait blocks until every run has finished.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// Shutdown cancels every run and waits up to timeout for them to exit. It
// reports whether all runs finished in time.
func (e *Executor) Shutdown(timeout time.Duration) bool {
	e.mu.Lock()
	for _, h := range e.running {
		h.Cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		e.logger.Warn("hooks still running at shutdown", "count", len(e.Running()))
		return false
	}
}

func (e *Executor) run(ctx, runCtx context.Context, req HookRequest) events.Outcome {
	command := strings.TrimSpace(req.Command)
	if command == "" {
		return events.Outcome{Kind: events.Succeeded}
	}

	dir := req.Dir()
	if _, err := os.Stat(dir); err != nil {
		e.logger.Warn("hook directory unavailable", "branch", req.Branch, "dir", dir, "error", err)
		return events.Outcome{Kind: events.SpawnError, ExitCode: -1, Reason: err.Error()}
	}

	name, args := shellCommand(command)
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	configureProcess(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return events.Outcome{Kind: events.SpawnError, ExitCode: -1, Reason: err.Error()}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return events.Outcome{Kind: events.SpawnError, ExitCode: -1, Reason: err.Error()}
	}

	e.logger.Info("starting hook", "branch", req.Branch, "run_id", req.RunID, "dir", dir)
	if err := cmd.Start(); err != nil {
		e.logger.Warn("hook failed to start", "branch", req.Branch, "error", err)
		return events.Outcome{Kind: events.SpawnError, ExitCode: -1, Reason: err.Error()}
	}

	e.sink.Send(ctx, events.HookStarted{
		RunID:   req.RunID,
		Branch:  req.Branch,
		Command: command,
		Dir:     dir,
		At:      e.now(),
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.stream(ctx, req, events.Stdout, stdout)
	}()
	go func() {
		defer wg.Done()
		e.stream(ctx, req, events.Stderr, stderr)
	}()

	wg.Wait()
	err = cmd.Wait()

	if runCtx.Err() != nil {
		e.logger.Info("hook interrupted", "branch", req.Branch, "run_id", req.RunID)
		return events.Outcome{Kind: events.Failed, ExitCode: -1, Reason: InterruptedReason}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			e.logger.Info("hook exited", "branch", req.Branch, "exit_code", code)
			return events.Outcome{Kind: events.Failed, ExitCode: code}
		}
		return events.Outcome{Kind: events.SpawnError, ExitCode: -1, Reason: err.Error()}
	}

	e.logger.Info("hook finished", "branch", req.Branch, "run_id", req.RunID)
	return events.Outcome{Kind: events.Succeeded}
}

func (e *Executor) stream(ctx context.Context, req HookRequest, s events.Stream, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		e.sink.Send(ctx, events.HookOutput{
			RunID:  req.RunID,
			Branch: req.Branch,
			Stream: s,
			Line:   scanner.Text(),
			At:     e.now(),
		})
	}
	if err := scanner.Err(); err != nil {
		e.sink.Send(ctx, events.HookOutput{
			RunID:  req.RunID,
			Branch: req.Branch,
			Stream: events.System,
			Line:   "output truncated: " + err.Error(),
			At:     e.now(),
		})
		_, _ = io.Copy(io.Discard, r)
	}
}

func shellCommand(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}
