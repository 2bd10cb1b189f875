//go:build !windows

package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

// fakeOS implements OS entirely in-process so tests never touch real PIDs.
type fakeOS struct {
	runCode   int
	runErr    error
	alive     map[int]bool
	signalErr error
	signaled  []int
	// when true, a successful SIGTERM marks the pid dead
	dieOnTerm bool
}

func (f *fakeOS) Run(_ context.Context, _ string, _ []string, _, _ io.Writer) (int, error) {
	return f.runCode, f.runErr
}

func (f *fakeOS) Signal(pid int, sig syscall.Signal) error {
	f.signaled = append(f.signaled, pid)
	if f.signalErr != nil {
		return f.signalErr
	}
	if sig == syscall.SIGTERM && f.dieOnTerm {
		f.alive[pid] = false
	}
	return nil
}

func (f *fakeOS) Alive(pid int) bool { return f.alive[pid] }

func writePIDFile(t *testing.T, pid string) string {
	t.Helper()
	pf := filepath.Join(t.TempDir(), "managed.pid")
	if err := os.WriteFile(pf, []byte(pid), 0o600); err != nil {
		t.Fatal(err)
	}
	return pf
}

func TestSignalByPIDFileMissing(t *testing.T) {
	h := New(&fakeOS{alive: map[int]bool{}})
	pf := filepath.Join(t.TempDir(), "absent.pid")
	err := h.SignalByPIDFile(context.Background(), pf, time.Second)
	if !errors.Is(err, ErrNoSuchProcess) {
		t.Fatalf("expected ErrNoSuchProcess, got %v", err)
	}
}

func TestSignalByPIDFileStalePID(t *testing.T) {
	fo := &fakeOS{alive: map[int]bool{}}
	h := New(fo)
	pf := writePIDFile(t, "12345")
	err := h.SignalByPIDFile(context.Background(), pf, time.Second)
	if !errors.Is(err, ErrNoSuchProcess) {
		t.Fatalf("expected ErrNoSuchProcess for dead pid, got %v", err)
	}
	if len(fo.signaled) != 0 {
		t.Fatalf("no signal must be sent for a dead pid, got %v", fo.signaled)
	}
	// The PID file must be left untouched on failure.
	if _, err := os.Stat(pf); err != nil {
		t.Fatalf("pidfile should remain: %v", err)
	}
}

func TestSignalByPIDFileInvalidContent(t *testing.T) {
	h := New(&fakeOS{alive: map[int]bool{}})
	pf := writePIDFile(t, "garbage")
	if err := h.SignalByPIDFile(context.Background(), pf, time.Second); !errors.Is(err, ErrNoSuchProcess) {
		t.Fatalf("expected ErrNoSuchProcess for invalid pid, got %v", err)
	}
}

func TestSignalByPIDFilePermissionDenied(t *testing.T) {
	fo := &fakeOS{alive: map[int]bool{4242: true}, signalErr: syscall.EPERM}
	h := New(fo)
	pf := writePIDFile(t, "4242")
	err := h.SignalByPIDFile(context.Background(), pf, time.Second)
	if !errors.Is(err, ErrSignal) {
		t.Fatalf("expected ErrSignal, got %v", err)
	}
}

func TestSignalByPIDFileSuccess(t *testing.T) {
	fo := &fakeOS{alive: map[int]bool{4242: true}, dieOnTerm: true}
	h := New(fo)
	pf := writePIDFile(t, "4242")
	if err := h.SignalByPIDFile(context.Background(), pf, time.Second); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if len(fo.signaled) != 1 || fo.signaled[0] != 4242 {
		t.Fatalf("expected one SIGTERM to 4242, got %v", fo.signaled)
	}
}

func TestSignalByPIDFileTimeout(t *testing.T) {
	fo := &fakeOS{alive: map[int]bool{4242: true}} // never dies
	h := New(fo)
	pf := writePIDFile(t, "4242")
	err := h.SignalByPIDFile(context.Background(), pf, 120*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestSpawnRealLauncherSuccess(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not found in PATH")
	}
	h := New(RealOS{})
	if err := h.Spawn(context.Background(), "true", nil, nil, nil); err != nil {
		t.Fatalf("true should spawn cleanly, got %v", err)
	}
}

func TestSpawnRealLauncherMissingBinary(t *testing.T) {
	h := New(RealOS{})
	err := h.Spawn(context.Background(), "/definitely/not/here", nil, nil, nil)
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
	if code, ok := LauncherExitCode(err); !ok || code != 127 {
		t.Fatalf("expected exit code 127 for missing binary, got %d ok=%v", code, ok)
	}
}

func TestSpawnRealLauncherNonZeroExit(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not found in PATH")
	}
	h := New(RealOS{})
	err := h.Spawn(context.Background(), "false", nil, nil, nil)
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
	if code, ok := LauncherExitCode(err); !ok || code != 1 {
		t.Fatalf("expected launcher exit code 1, got %d ok=%v", code, ok)
	}
}

func TestAliveByPIDFile(t *testing.T) {
	fo := &fakeOS{alive: map[int]bool{77: true}}
	h := New(fo)

	pf := writePIDFile(t, "77")
	alive, pid := h.AliveByPIDFile(pf)
	if !alive || pid != 77 {
		t.Fatalf("expected alive pid 77, got %v %d", alive, pid)
	}

	if alive, _ := h.AliveByPIDFile(filepath.Join(t.TempDir(), "none.pid")); alive {
		t.Fatalf("missing pidfile must report not alive")
	}
}
