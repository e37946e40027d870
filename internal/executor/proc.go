package executor

import "strconv"

// treeKillCommand returns the command that force-kills pid and every
// process it started on Windows, where there are no process groups to
// signal.
func treeKillCommand(pid int) (string, []string) {
	return "taskkill", []string{"/T", "/F", "/PID", strconv.Itoa(pid)}
}
