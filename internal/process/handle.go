//go:build !windows

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// DefaultStopWait bounds how long SignalByPIDFile polls for process death.
const DefaultStopWait = 5 * time.Second

const pollInterval = 50 * time.Millisecond

// OS is the capability set Handle needs from the operating system:
// run a launcher, signal a PID, probe liveness. Tests substitute a fake.
type OS interface {
	// Run executes binary synchronously and returns its exit code.
	Run(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) (int, error)
	Signal(pid int, sig syscall.Signal) error
	Alive(pid int) bool
}

// Handle wraps process spawn and signal primitives for a single managed
// binary. The managed daemon detaches itself; Spawn only waits for the
// launcher's own exit status.
type Handle struct {
	os OS
}

func New(o OS) *Handle {
	if o == nil {
		o = RealOS{}
	}
	return &Handle{os: o}
}

// Spawn launches binary with args and waits for the launcher to report.
// A missing or non-executable binary, or a non-zero launcher exit, yields
// an error wrapping ErrSpawn.
func (h *Handle) Spawn(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) error {
	code, err := h.os.Run(ctx, binary, args, stdout, stderr)
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return &SpawnError{ExitCode: 127, Err: err}
	}
	return &SpawnError{ExitCode: code, Err: err}
}

// SignalByPIDFile reads a decimal PID from pidFile, sends SIGTERM, and polls
// for process death until wait elapses. The PID file itself is left in place;
// removing it on success is the caller's responsibility.
func (h *Handle) SignalByPIDFile(ctx context.Context, pidFile string, wait time.Duration) error {
	pid, err := readPID(pidFile)
	if err != nil {
		return err
	}
	if !h.os.Alive(pid) {
		return fmt.Errorf("pid %d from %s is not running: %w", pid, pidFile, ErrNoSuchProcess)
	}
	if err := h.os.Signal(pid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("pid %d vanished: %w", pid, ErrNoSuchProcess)
		}
		return fmt.Errorf("signal pid %d: %v: %w", pid, err, ErrSignal)
	}
	if wait <= 0 {
		wait = DefaultStopWait
	}
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if !h.os.Alive(pid) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return fmt.Errorf("pid %d still alive after %s: %w", pid, wait, ErrTimeout)
}

// AliveByPIDFile reports liveness of the PID recorded in pidFile. A missing
// file means not running. Returns the PID when alive.
func (h *Handle) AliveByPIDFile(pidFile string) (bool, int) {
	pid, err := readPID(pidFile)
	if err != nil {
		return false, 0
	}
	return h.os.Alive(pid), pid
}

func readPID(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("pidfile %s: %w", pidFile, ErrNoSuchProcess)
		}
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pidfile %s holds no valid pid: %w", pidFile, ErrNoSuchProcess)
	}
	return pid, nil
}
