//go:build windows

package executor

import (
	"os/exec"
	"time"
)

// configureProcess makes cancelling kill the whole tree under `cmd /C`, so
// programs the hook started do not outlive it. Process.Kill is the fallback
// when taskkill is unavailable.
func configureProcess(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		name, args := treeKillCommand(cmd.Process.Pid)
		if err := exec.Command(name, args...).Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = 5 * time.Second
}
