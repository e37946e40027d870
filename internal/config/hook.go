// pattern: Functional Core

package config

import (
	"encoding/json"
	"fmt"
)

// HookState is the lifecycle position of a worktree's post-create hook.
type HookState string

const (
	HookPending     HookState = "pending"
	HookRunning     HookState = "running"
	HookSucceeded   HookState = "succeeded"
	HookFailed      HookState = "failed"
	HookInterrupted HookState = "interrupted"
)

// HookStatus records the outcome of the hook for one worktree. ExitCode is
// meaningful for succeeded and failed; Reason for failed and interrupted.
type HookStatus struct {
	State    HookState `json:"state" yaml:"state"`
	ExitCode int       `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	Reason   string    `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func Pending() HookStatus { return HookStatus{State: HookPending} }
func Running() HookStatus { return HookStatus{State: HookRunning} }

func Succeeded(code int) HookStatus {
	return HookStatus{State: HookSucceeded, ExitCode: code}
}

func Failed(code int, reason string) HookStatus {
	return HookStatus{State: HookFailed, ExitCode: code, Reason: reason}
}

func Interrupted(reason string) HookStatus {
	return HookStatus{State: HookInterrupted, Reason: reason}
}

// Active reports whether the hook has not reached a terminal state.
func (h HookStatus) Active() bool {
	return h.State == HookPending || h.State == HookRunning
}

func (h HookStatus) String() string {
	switch h.State {
	case HookSucceeded:
		return fmt.Sprintf("succeeded (%d)", h.ExitCode)
	case HookFailed:
		if h.Reason != "" {
			return fmt.Sprintf("failed (%d): %s", h.ExitCode, h.Reason)
		}
		return fmt.Sprintf("failed (%d)", h.ExitCode)
	case HookInterrupted:
		return "interrupted"
	case "":
		return string(HookPending)
	default:
		return string(h.State)
	}
}

// UnmarshalJSON accepts the current object form and the version 1 forms:
// "None", "Running", "Success", "Skipped" and {"Failed": "message"}.
func (h *HookStatus) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		switch legacy {
		case "None":
			*h = Pending()
		case "Running":
			*h = Interrupted("session ended while hook was running")
		case "Success", "Skipped":
			*h = Succeeded(0)
		default:
			return fmt.Errorf("unknown hook status %q", legacy)
		}
		return nil
	}

	var failed struct {
		Failed *string `json:"Failed"`
	}
	if err := json.Unmarshal(data, &failed); err == nil && failed.Failed != nil {
		*h = Failed(1, *failed.Failed)
		return nil
	}

	type plain HookStatus
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.State == "" {
		p.State = HookPending
	}
	*h = HookStatus(p)
	return nil
}
