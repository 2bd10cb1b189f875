//go:build !windows

package process

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"syscall"
)

// RealOS implements OS with os/exec and kill(2).
type RealOS struct{}

func (RealOS) Run(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) (int, error) {
	// #nosec G204 -- binary and args come from validated configuration
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), err
	}
	return -1, err
}

func (RealOS) Signal(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}

func (RealOS) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
