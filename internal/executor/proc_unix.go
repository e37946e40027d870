//go:build !windows

package executor

import (
	"os/exec"
	"syscall"
	"time"
)

// configureProcess puts the hook in its own process group so cancelling
// also stops anything the shell started.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second
}
