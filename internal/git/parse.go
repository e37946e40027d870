// pattern: Functional Core

package git

import (
	"bufio"
	"strings"
)

// parseWorktreeList parses `git worktree list --porcelain` output.
// Records are separated by blank lines.
func parseWorktreeList(out string) []Worktree {
	var (
		list    []Worktree
		current *Worktree
	)
	flush := func() {
		if current != nil && current.Path != "" {
			list = append(list, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			flush()
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		if key == "worktree" {
			flush()
			current = &Worktree{Path: value}
			continue
		}
		if current == nil {
			continue
		}

		switch key {
		case "HEAD":
			current.Head = value
		case "branch":
			current.Branch = strings.TrimPrefix(value, "refs/heads/")
		case "bare":
			current.Bare = true
		case "detached":
			current.Detached = true
		case "locked":
			current.Locked = true
		case "prunable":
			current.Prunable = true
		}
	}
	flush()
	return list
}

// parseForEachRef parses "<refname:short> <objectname:short>" lines for the
// given remote, skipping the remote's symbolic HEAD.
func parseForEachRef(out, remote string) []BranchRef {
	prefix := remote + "/"
	var refs []BranchRef
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		if name == remote || strings.HasSuffix(name, "/HEAD") {
			continue
		}
		refs = append(refs, BranchRef{
			Name:     strings.TrimPrefix(name, prefix),
			Revision: fields[1],
		})
	}
	return refs
}

// parseLocalBranches parses "<refname:short>" lines of refs/heads.
func parseLocalBranches(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// fetchOnlyWarnings reports whether a failing fetch's stderr contains only
// advisory lines, in which case the fetch is treated as successful.
func fetchOnlyWarnings(stderr string) bool {
	sawLine := false
	for _, line := range strings.Split(stderr, "\n") {
		l := strings.ToLower(strings.TrimSpace(line))
		if l == "" {
			continue
		}
		sawLine = true
		switch {
		case strings.HasPrefix(l, "warning"),
			strings.HasPrefix(l, "hint:"),
			strings.HasPrefix(l, "from "),
			strings.Contains(l, "post-quantum"):
			continue
		default:
			return false
		}
	}
	return sawLine
}
