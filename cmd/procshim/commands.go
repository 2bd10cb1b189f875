package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/loykin/procshim"
	"github.com/loykin/procshim/internal/logger"
	"github.com/loykin/procshim/internal/status"
)

// exitError carries a specific process exit code through cobra's RunE chain.
// The message is never printed; reporting happens before it is returned.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// command binds subcommand handlers to shared flags and output streams.
type command struct {
	flags *GlobalFlags
	out   io.Writer
	errW  io.Writer
}

// supervisor loads the config and wires a ready-to-use supervisor from it,
// including history sinks when a DSN is configured.
func (c command) supervisor() (*procshim.Supervisor, *procshim.Config, error) {
	cfg, err := procshim.LoadConfig(c.flags.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	sup := procshim.New(cfg)
	sup.SetLogger(logger.NewCLI(c.flags.Debug))
	if cfg.History.DSN != "" {
		sink, err := procshim.NewHistorySink(cfg.History.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("history sink: %w", err)
		}
		sup.SetHistorySinks(sink)
	}
	return sup, cfg, nil
}

func (c command) fail(err error) error {
	_, _ = fmt.Fprintln(c.errW, err)
	return &exitError{code: 1}
}

func (c command) Start(ctx context.Context) error {
	sup, _, err := c.supervisor()
	if err != nil {
		return c.fail(err)
	}
	r := status.NewReporter(c.out, c.errW)
	err = sup.Start(ctx)
	r.Action("Starting", sup.Name(), err)
	if err != nil {
		return &exitError{code: status.ExitCode(err)}
	}
	return nil
}

func (c command) Stop(ctx context.Context) error {
	sup, _, err := c.supervisor()
	if err != nil {
		return c.fail(err)
	}
	r := status.NewReporter(c.out, c.errW)
	err = sup.Stop(ctx)
	r.Action("Stopping", sup.Name(), err)
	if err != nil {
		return &exitError{code: status.ExitCode(err)}
	}
	return nil
}

// Restart reports both legs but its exit code follows the start leg only; a
// failed stop never gates the start attempt.
func (c command) Restart(ctx context.Context) error {
	sup, _, err := c.supervisor()
	if err != nil {
		return c.fail(err)
	}
	r := status.NewReporter(c.out, c.errW)
	stopErr, startErr := sup.Restart(ctx)
	r.Action("Stopping", sup.Name(), stopErr)
	r.Action("Starting", sup.Name(), startErr)
	if code := status.RestartExitCode(stopErr, startErr); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func (c command) Status(ctx context.Context, f StatusFlags) error {
	sup, _, err := c.supervisor()
	if err != nil {
		return c.fail(err)
	}
	st, err := sup.Status(ctx)
	if err != nil {
		return c.fail(err)
	}
	if f.JSON {
		printJSON(c.out, st)
	} else {
		status.NewReporter(c.out, c.errW).Status(st)
	}
	if code := status.StatusExitCode(st); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// Serve runs the HTTP status/control API until SIGINT or SIGTERM.
func (c command) Serve(ctx context.Context, f ServeFlags) error {
	sup, cfg, err := c.supervisor()
	if err != nil {
		return c.fail(err)
	}
	listen := cfg.Server.Listen
	if f.Listen != "" {
		listen = f.Listen
	}
	basePath := cfg.Server.BasePath
	if f.BasePath != "" {
		basePath = f.BasePath
	}
	withMetrics := cfg.Server.Metrics || f.Metrics
	if listen == "" {
		return c.fail(fmt.Errorf("serve: no listen address (set [server].listen or --listen)"))
	}
	if withMetrics {
		if err := procshim.RegisterMetricsDefault(); err != nil {
			_, _ = fmt.Fprintf(c.errW, "warning: metrics registration failed: %v\n", err)
		}
	}

	srv := procshim.NewHTTPServer(listen, basePath, withMetrics, sup)
	_, _ = fmt.Fprintf(c.out, "procshim API for %s listening on %s%s\n", sup.Name(), listen, basePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	_, _ = fmt.Fprintln(c.out, "shutting down")
	return srv.Close()
}
