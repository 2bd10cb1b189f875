package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/procshim/internal/config"
	"github.com/loykin/procshim/internal/detector"
	"github.com/loykin/procshim/internal/history"
	"github.com/loykin/procshim/internal/lockstate"
	"github.com/loykin/procshim/internal/logger"
	"github.com/loykin/procshim/internal/metrics"
	"github.com/loykin/procshim/internal/process"
)

// State is the managed process lifecycle as observed by this supervisor
// invocation, not by the OS. The lock marker on disk is a projection of this
// state, not the state itself.
type State string

const (
	StateUnknown State = "unknown"
	StateStarted State = "started"
	StateStopped State = "stopped"
)

// How long Start polls for the daemon's pidfile to surface after the
// launcher reports success. The daemon writes it itself once detached.
const pidfileWait = 2 * time.Second

// Status is the externally visible snapshot of the managed process.
type Status struct {
	Name     string `json:"name"`
	Running  bool   `json:"running"`
	PID      int    `json:"pid,omitempty"`
	LockHeld bool   `json:"lock_held"`
	Detector string `json:"detector,omitempty"`
	State    State  `json:"state"`
}

// Supervisor orchestrates the process handle and the lock state store for a
// single managed binary. All collaborators are injected; nothing is read
// ambiently. Safe for concurrent use: the HTTP API drives it from multiple
// goroutines, so mu serializes lifecycle operations and guards state.
type Supervisor struct {
	cfg    config.Managed
	logCfg logger.Config
	handle *process.Handle
	store  *lockstate.Store

	mu    sync.RWMutex
	det   detector.Detector
	sinks []history.Sink
	log   *slog.Logger
	state State
}

func New(cfg config.Managed, logCfg logger.Config, h *process.Handle, st *lockstate.Store) *Supervisor {
	if h == nil {
		h = process.New(nil)
	}
	if st == nil {
		st = lockstate.New(cfg.LockFile, cfg.PIDFile)
	}
	return &Supervisor{
		cfg:    cfg,
		logCfg: logCfg,
		handle: h,
		store:  st,
		det:    detector.PIDFileDetector{PIDFile: cfg.PIDFile},
		log:    slog.Default(),
		state:  StateUnknown,
	}
}

// SetLogger replaces the logger used for operational messages.
func (s *Supervisor) SetLogger(l *slog.Logger) {
	if l != nil {
		s.mu.Lock()
		s.log = l
		s.mu.Unlock()
	}
}

// SetDetector replaces the liveness strategy (tests inject a fake).
func (s *Supervisor) SetDetector(d detector.Detector) {
	if d != nil {
		s.mu.Lock()
		s.det = d
		s.mu.Unlock()
	}
}

// SetHistorySinks configures external history sinks. Passing none clears the list.
func (s *Supervisor) SetHistorySinks(sinks ...history.Sink) {
	s.mu.Lock()
	s.sinks = append([]history.Sink(nil), sinks...)
	s.mu.Unlock()
}

func (s *Supervisor) Name() string { return s.cfg.Name }

// State returns the lifecycle state observed so far by this invocation.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start spawns the managed binary and, on launcher success, acquires the
// lock marker. A process already detected as running is treated as success
// and only re-asserts the marker.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start(ctx)
}

func (s *Supervisor) start(ctx context.Context) error {
	if alive, err := s.det.Alive(); err == nil && alive {
		s.log.Info("process already running", "name", s.cfg.Name, "detector", s.det.Describe())
		if err := s.store.AcquireLock(); err != nil {
			return err
		}
		s.transition(StateStarted)
		metrics.IncOperation("start", true)
		return nil
	}

	outW, errW, err := s.logCfg.Writers(s.cfg.Name)
	if err != nil {
		return err
	}
	defer func() {
		if outW != nil {
			_ = outW.Close()
		}
		if errW != nil {
			_ = errW.Close()
		}
	}()

	err = s.handle.Spawn(ctx, s.cfg.Binary, s.cfg.LauncherArgs(), outW, errW)
	if err != nil {
		s.log.Error("launcher failed", "name", s.cfg.Name, "err", err)
		metrics.IncOperation("start", false)
		s.emit(ctx, history.EventStart, 0, false, err.Error())
		return err
	}

	pid := s.awaitPIDFile(ctx)
	if pid > 0 {
		// Re-record the PID through the store so the file content is
		// normalized and its mtime postdates the daemon's start.
		if werr := s.store.WritePID(pid); werr != nil {
			s.log.Warn("pidfile rewrite failed", "name", s.cfg.Name, "err", werr)
		}
	} else {
		s.log.Warn("pidfile did not appear after launcher success",
			"name", s.cfg.Name, "pidfile", s.store.PIDPath())
	}

	if err := s.store.AcquireLock(); err != nil {
		return err
	}
	s.transition(StateStarted)
	s.log.Info("process started", "name", s.cfg.Name, "pid", pid)
	metrics.IncOperation("start", true)
	metrics.SetManagedUp(s.cfg.Name, true)
	s.emit(ctx, history.EventStart, pid, true, "")
	return nil
}

// Stop signals the process recorded in the PID file and waits for it to die.
// On success the PID file and the lock marker are removed; on failure both
// are left untouched.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop(ctx)
}

func (s *Supervisor) stop(ctx context.Context) error {
	pid, _ := s.store.ReadPID()
	err := s.handle.SignalByPIDFile(ctx, s.store.PIDPath(), s.cfg.StopWait)
	if err != nil {
		s.log.Error("stop failed", "name", s.cfg.Name, "err", err)
		metrics.IncOperation("stop", false)
		s.emit(ctx, history.EventStop, pid, false, err.Error())
		return err
	}
	if err := s.store.RemovePID(); err != nil {
		return err
	}
	if err := s.store.ReleaseLock(); err != nil {
		return err
	}
	s.transition(StateStopped)
	s.log.Info("process stopped", "name", s.cfg.Name, "pid", pid)
	metrics.IncOperation("stop", true)
	metrics.SetManagedUp(s.cfg.Name, false)
	s.emit(ctx, history.EventStop, pid, true, "")
	return nil
}

// Restart is an unconditional stop-then-start: a stop failure is reported to
// the caller but never gates the start attempt. This preserves the source
// behavior of the wrapped init script.
func (s *Supervisor) Restart(ctx context.Context) (stopErr, startErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopErr = s.stop(ctx)
	if stopErr != nil {
		s.log.Warn("restart: stop failed, starting anyway", "name", s.cfg.Name, "err", stopErr)
	}
	startErr = s.start(ctx)
	return stopErr, startErr
}

// Status reports the current liveness, PID, and lock marker as observed on
// disk and by the detector.
func (s *Supervisor) Status(_ context.Context) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alive, err := s.det.Alive()
	if err != nil {
		return Status{}, err
	}
	st := Status{
		Name:     s.cfg.Name,
		Running:  alive,
		LockHeld: s.store.LockHeld(),
		Detector: s.det.Describe(),
		State:    s.state,
	}
	if pid, err := s.store.ReadPID(); err == nil {
		st.PID = pid
	}
	metrics.SetManagedUp(s.cfg.Name, alive)
	metrics.SetLockHeld(s.cfg.Name, st.LockHeld)
	return st, nil
}

func (s *Supervisor) transition(to State) {
	if s.state != to {
		metrics.RecordStateTransition(s.cfg.Name, string(s.state), string(to))
		s.state = to
	}
}

func (s *Supervisor) awaitPIDFile(ctx context.Context) int {
	deadline := time.Now().Add(pidfileWait)
	for {
		if pid, err := s.store.ReadPID(); err == nil && pid > 0 {
			return pid
		}
		if time.Now().After(deadline) {
			return 0
		}
		select {
		case <-ctx.Done():
			return 0
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (s *Supervisor) emit(ctx context.Context, t history.EventType, pid int, ok bool, detail string) {
	if len(s.sinks) == 0 {
		return
	}
	e := history.Event{
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Name:       s.cfg.Name,
		PID:        pid,
		OK:         ok,
		Detail:     detail,
	}
	for _, sink := range s.sinks {
		if err := sink.Send(ctx, e); err != nil {
			s.log.Warn("history sink send failed", "name", s.cfg.Name, "err", err)
		}
	}
}
