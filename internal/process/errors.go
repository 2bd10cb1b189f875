package process

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by Handle operations. Callers branch with errors.Is.
var (
	// ErrSpawn indicates the launcher binary could not be started or
	// reported a non-zero exit status.
	ErrSpawn = errors.New("procshim: spawn failed")

	// ErrNoSuchProcess indicates a stop was requested but the PID file is
	// absent or names a process that is no longer alive.
	ErrNoSuchProcess = errors.New("procshim: no such process")

	// ErrSignal indicates the OS rejected the termination signal.
	ErrSignal = errors.New("procshim: signal failed")

	// ErrTimeout indicates the process did not exit within the stop wait bound.
	ErrTimeout = errors.New("procshim: timeout waiting for process exit")
)

// SpawnError wraps ErrSpawn and carries the launcher's own exit code, which
// the CLI propagates as the overall process exit code.
type SpawnError struct {
	ExitCode int
	Err      error
}

func (e *SpawnError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("launcher failed (exit %d): %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("launcher failed (exit %d)", e.ExitCode)
}

func (e *SpawnError) Unwrap() error { return ErrSpawn }

// LauncherExitCode extracts the launcher exit code from err when err wraps a
// SpawnError. ok is false otherwise.
func LauncherExitCode(err error) (code int, ok bool) {
	var se *SpawnError
	if errors.As(err, &se) {
		return se.ExitCode, true
	}
	return 0, false
}
