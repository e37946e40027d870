// pattern: Functional Core

package tui

import (
	"sort"

	"gwa/internal/config"
	"gwa/internal/events"
	"gwa/internal/executor"
	"gwa/internal/watcher"
)

// branchRow is one line of the branch list.
type branchRow struct {
	Name        string
	Revision    string
	Class       events.Classification
	Entry       config.WorktreeEntry
	HasWorktree bool
	OnRemote    bool
	Creating    bool
	Deleting    bool
	Base        bool
}

// buildRows merges the last poll with the worktrees in cfg. Classification
// is recomputed from cfg so track decisions show without waiting for a poll.
// Rows with a worktree come first, then everything else by name.
func buildRows(cfg config.Config, ignore *config.Matcher, remote []events.ClassifiedBranch, external config.BranchSet, creating, deleting map[string]bool) []branchRow {
	policy := watcher.PolicyFrom(cfg, ignore)
	base := ""
	if cfg.BaseBranch != nil {
		base = *cfg.BaseBranch
	}

	seen := make(config.BranchSet, len(remote)+len(cfg.Worktrees))
	rows := make([]branchRow, 0, len(remote)+len(cfg.Worktrees))
	for _, b := range remote {
		if seen.Has(b.Name) {
			continue
		}
		seen.Add(b.Name)
		rows = append(rows, branchRow{Name: b.Name, Revision: b.Revision, OnRemote: true})
	}
	for _, wt := range cfg.Worktrees {
		if seen.Has(wt.Branch) {
			continue
		}
		seen.Add(wt.Branch)
		rows = append(rows, branchRow{Name: wt.Branch})
	}

	for i := range rows {
		r := &rows[i]
		r.Class = watcher.Classify(policy, external, r.Name)
		r.Entry, r.HasWorktree = cfg.Worktree(r.Name)
		r.Creating = creating[r.Name]
		r.Deleting = deleting[r.Name]
		r.Base = r.Name == base
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].HasWorktree != rows[j].HasWorktree {
			return rows[i].HasWorktree
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// autoCreateEligible decides whether a discovery should get a worktree
// without asking. Tracked branches always qualify; undecided ones only when
// they were not known locally before the first fetch.
func autoCreateEligible(cfg config.Config, ev events.BranchDiscovered) bool {
	if !cfg.AutoCreateWorktrees {
		return false
	}
	switch ev.Classification.Kind {
	case events.Tracked:
		return true
	case events.Undecided:
		return !ev.Baseline
	default:
		return false
	}
}

// hookStatusFor maps a run outcome onto the status stored in the config.
func hookStatusFor(out events.Outcome) config.HookStatus {
	switch out.Kind {
	case events.Succeeded:
		return config.Succeeded(out.ExitCode)
	case events.SpawnError:
		return config.Failed(-1, out.Reason)
	default:
		if out.Reason == executor.InterruptedReason {
			return config.Interrupted(out.Reason)
		}
		return config.Failed(out.ExitCode, out.Reason)
	}
}
