package status

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/loykin/procshim/internal/process"
	"github.com/loykin/procshim/internal/supervisor"
)

func TestActionOK(t *testing.T) {
	var out, errW bytes.Buffer
	r := NewReporter(&out, &errW)
	r.Action("Starting", "blackbird", nil)
	if !strings.Contains(out.String(), "Starting blackbird:") || !strings.Contains(out.String(), "[  OK  ]") {
		t.Fatalf("unexpected OK line: %q", out.String())
	}
	if errW.Len() != 0 {
		t.Fatalf("no error output expected, got %q", errW.String())
	}
}

func TestActionFailed(t *testing.T) {
	var out, errW bytes.Buffer
	r := NewReporter(&out, &errW)
	r.Action("Stopping", "blackbird", process.ErrNoSuchProcess)
	if !strings.Contains(out.String(), "[FAILED]") {
		t.Fatalf("expected FAILED marker: %q", out.String())
	}
	if !strings.Contains(errW.String(), "no such process") {
		t.Fatalf("error detail missing: %q", errW.String())
	}
}

func TestStatusRenderings(t *testing.T) {
	cases := []struct {
		st   supervisor.Status
		want string
	}{
		{supervisor.Status{Name: "blackbird", Running: true, PID: 4242}, "blackbird (pid 4242) is running..."},
		{supervisor.Status{Name: "blackbird", Running: true}, "blackbird is running..."},
		{supervisor.Status{Name: "blackbird", PID: 4242}, "blackbird is dead but pid file exists"},
		{supervisor.Status{Name: "blackbird", LockHeld: true}, "blackbird is dead but subsys locked"},
		{supervisor.Status{Name: "blackbird"}, "blackbird is stopped"},
	}
	for _, c := range cases {
		var out bytes.Buffer
		NewReporter(&out, &out).Status(c.st)
		if strings.TrimSpace(out.String()) != c.want {
			t.Errorf("status %+v: got %q want %q", c.st, out.String(), c.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatalf("nil error must map to 0")
	}
	if ExitCode(errors.New("x")) != 1 {
		t.Fatalf("generic error must map to 1")
	}
	spawn := fmt.Errorf("start: %w", &process.SpawnError{ExitCode: 127})
	if ExitCode(spawn) != 127 {
		t.Fatalf("launcher exit code must propagate, got %d", ExitCode(spawn))
	}
}

func TestStatusExitCode(t *testing.T) {
	if c := StatusExitCode(supervisor.Status{Running: true}); c != 0 {
		t.Fatalf("running => 0, got %d", c)
	}
	if c := StatusExitCode(supervisor.Status{PID: 1}); c != 1 {
		t.Fatalf("dead with pidfile => 1, got %d", c)
	}
	if c := StatusExitCode(supervisor.Status{LockHeld: true}); c != 2 {
		t.Fatalf("dead with lock => 2, got %d", c)
	}
	if c := StatusExitCode(supervisor.Status{}); c != 3 {
		t.Fatalf("stopped => 3, got %d", c)
	}
}

func TestRestartExitCode(t *testing.T) {
	if c := RestartExitCode(process.ErrNoSuchProcess, nil); c != 0 {
		t.Fatalf("stop failure must not gate restart success, got %d", c)
	}
	if c := RestartExitCode(nil, process.ErrSpawn); c != 1 {
		t.Fatalf("start failure must fail restart, got %d", c)
	}
}

func TestDescribe(t *testing.T) {
	cases := map[string]error{
		"ok":              nil,
		"no-such-process": process.ErrNoSuchProcess,
		"spawn-error":     process.ErrSpawn,
		"signal-error":    process.ErrSignal,
		"timeout":         process.ErrTimeout,
		"error":           errors.New("other"),
	}
	for want, err := range cases {
		if got := Describe(err); got != want {
			t.Errorf("Describe(%v) = %q, want %q", err, got, want)
		}
	}
}
