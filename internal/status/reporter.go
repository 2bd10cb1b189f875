package status

import (
	"errors"
	"fmt"
	"io"

	"github.com/loykin/procshim/internal/process"
	"github.com/loykin/procshim/internal/supervisor"
)

// Reporter renders operation outcomes as init-script style status lines and
// maps errors to process exit codes.
type Reporter struct {
	out io.Writer
	err io.Writer
}

func NewReporter(out, errW io.Writer) *Reporter {
	return &Reporter{out: out, err: errW}
}

// Action prints a "Starting name:  [  OK  ]" line for the given verb, with
// error detail on the error stream when the operation failed.
func (r *Reporter) Action(verb, name string, opErr error) {
	label := fmt.Sprintf("%s %s:", verb, name)
	if opErr == nil {
		_, _ = fmt.Fprintf(r.out, "%-50s[  OK  ]\n", label)
		return
	}
	_, _ = fmt.Fprintf(r.out, "%-50s[FAILED]\n", label)
	_, _ = fmt.Fprintf(r.err, "%s: %v\n", name, opErr)
}

// Status prints the LSB-style one-liner for a status snapshot.
func (r *Reporter) Status(st supervisor.Status) {
	switch {
	case st.Running && st.PID > 0:
		_, _ = fmt.Fprintf(r.out, "%s (pid %d) is running...\n", st.Name, st.PID)
	case st.Running:
		_, _ = fmt.Fprintf(r.out, "%s is running...\n", st.Name)
	case st.PID > 0:
		_, _ = fmt.Fprintf(r.out, "%s is dead but pid file exists\n", st.Name)
	case st.LockHeld:
		_, _ = fmt.Fprintf(r.out, "%s is dead but subsys locked\n", st.Name)
	default:
		_, _ = fmt.Fprintf(r.out, "%s is stopped\n", st.Name)
	}
}

// ExitCode maps an operation error to the overall process exit code.
// Launcher failures propagate the launcher's own exit status; everything
// else collapses to 1. Usage errors are handled by the CLI layer.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := process.LauncherExitCode(err); ok && code > 0 {
		return code
	}
	return 1
}

// StatusExitCode maps a status snapshot to the LSB convention:
// 0 running, 1 dead with pid file, 2 dead with lock marker, 3 stopped.
func StatusExitCode(st supervisor.Status) int {
	switch {
	case st.Running:
		return 0
	case st.PID > 0:
		return 1
	case st.LockHeld:
		return 2
	default:
		return 3
	}
}

// RestartExitCode follows the unconditional-restart contract: the overall
// outcome is the start leg's outcome; the stop leg only affects reporting.
func RestartExitCode(stopErr, startErr error) int {
	if startErr != nil {
		return ExitCode(startErr)
	}
	_ = stopErr
	return 0
}

// Describe renders an error kind as a short machine-readable token. The HTTP
// API attaches it to error responses so clients can branch without parsing
// the message text.
func Describe(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, process.ErrNoSuchProcess):
		return "no-such-process"
	case errors.Is(err, process.ErrSpawn):
		return "spawn-error"
	case errors.Is(err, process.ErrSignal):
		return "signal-error"
	case errors.Is(err, process.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
