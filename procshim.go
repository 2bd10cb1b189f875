// Package procshim supervises a single self-daemonizing external binary:
// start, stop, restart, and status over a PID file and a lock marker.
package procshim

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/procshim/internal/config"
	"github.com/loykin/procshim/internal/history"
	"github.com/loykin/procshim/internal/history/factory"
	"github.com/loykin/procshim/internal/lockstate"
	"github.com/loykin/procshim/internal/metrics"
	"github.com/loykin/procshim/internal/process"
	"github.com/loykin/procshim/internal/server"
	"github.com/loykin/procshim/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type Managed = cfg.Managed

type Status = supervisor.Status

type State = supervisor.State

const (
	StateUnknown = supervisor.StateUnknown
	StateStarted = supervisor.StateStarted
	StateStopped = supervisor.StateStopped
)

type HistorySink = history.Sink

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.
type Supervisor struct{ inner *supervisor.Supervisor }

// New wires a Supervisor from explicit configuration: real OS process
// primitives and an on-disk lock state store at the configured paths.
func New(c *Config) *Supervisor {
	st := lockstate.New(c.Managed.LockFile, c.Managed.PIDFile)
	return &Supervisor{inner: supervisor.New(c.Managed, c.Log, process.New(nil), st)}
}

func (s *Supervisor) Start(ctx context.Context) error { return s.inner.Start(ctx) }

func (s *Supervisor) Stop(ctx context.Context) error { return s.inner.Stop(ctx) }

func (s *Supervisor) Restart(ctx context.Context) (stopErr, startErr error) {
	return s.inner.Restart(ctx)
}

func (s *Supervisor) Status(ctx context.Context) (Status, error) { return s.inner.Status(ctx) }

func (s *Supervisor) Name() string { return s.inner.Name() }

func (s *Supervisor) State() State { return s.inner.State() }

func (s *Supervisor) SetLogger(l *slog.Logger) { s.inner.SetLogger(l) }

func (s *Supervisor) SetHistorySinks(sinks ...HistorySink) { s.inner.SetHistorySinks(sinks...) }

func (s *Supervisor) internal() *supervisor.Supervisor { return s.inner }

// LoadConfig reads and validates the TOML configuration at path, applying the
// PROCSHIM_PIDFILE environment override.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// NewHistorySink builds a history sink from a DSN (sqlite or postgres).
func NewHistorySink(dsn string) (HistorySink, error) { return factory.NewSinkFromDSN(dsn) }

// NewHTTPServer starts an HTTP server exposing the supervisor API on addr.
func NewHTTPServer(addr, basePath string, withMetrics bool, s *Supervisor) *http.Server {
	return server.NewServer(addr, server.NewRouter(s.internal(), basePath, withMetrics))
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
