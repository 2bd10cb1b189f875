package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with explicit streams so tests can drive it directly.
// Unrecognized arguments print usage on stdout and yield exit code 1 without
// touching the pidfile or the lock marker.
func run(args []string, out, errW io.Writer) int {
	root := buildRoot(out, errW)
	root.SetOut(out)
	root.SetErr(errW)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		_, _ = fmt.Fprintln(errW, err)
		_, _ = fmt.Fprint(out, root.UsageString())
		return 1
	}
	return 0
}

// buildRoot creates the root command and all subcommands.
func buildRoot(out, errW io.Writer) *cobra.Command {
	globalFlags := &GlobalFlags{}
	statusFlags := &StatusFlags{}
	serveFlags := &ServeFlags{}

	c := command{flags: globalFlags, out: out, errW: errW}

	root := createRootCommand(globalFlags, out)
	root.AddCommand(
		createStartCommand(c),
		createStopCommand(c),
		createRestartCommand(c),
		createStatusCommand(c, statusFlags),
		createServeCommand(c, serveFlags),
		createVersionCommand(out),
	)
	return root
}

func createRootCommand(flags *GlobalFlags, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "procshim {start|stop|restart|status}",
		Short: "Supervisor shim for a single self-daemonizing binary",
		Long: `Procshim starts, stops, restarts, and reports the status of one external
self-daemonizing binary, tracking it through a PID file and a lock marker.

Examples:
  procshim start --config=/etc/procshim.toml
  procshim status --config=/etc/procshim.toml
  procshim serve --config=/etc/procshim.toml --listen=:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprint(out, cmd.UsageString())
			return &exitError{code: 1}
		},
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file")
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "enable debug logging")
	return root
}

func createStartCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the managed process",
		Long: `Spawn the managed binary and record the lock marker once the launcher
reports success. A process already running is treated as success.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Start(cmd.Context())
		},
	}
}

func createStopCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the managed process",
		Long: `Signal the process recorded in the PID file and wait for it to exit.
On success the PID file and the lock marker are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Stop(cmd.Context())
		},
	}
}

func createRestartCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the managed process",
		Long: `Stop then start the managed process. The start is attempted even when
the stop fails; the exit code reflects the start outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Restart(cmd.Context())
		},
	}
}

func createStatusCommand(c command, flags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show managed process status",
		Long: `Report whether the managed process is running. Exit codes follow the
LSB convention: 0 running, 1 dead with pid file, 2 dead with lock marker,
3 stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Status(cmd.Context(), *flags)
		},
	}
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "print status as JSON")
	return cmd
}

func createServeCommand(c command, flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP status/control API",
		Long: `Expose start/stop/restart/status over HTTP until interrupted.

Examples:
  procshim serve --config=/etc/procshim.toml
  procshim serve --config=/etc/procshim.toml --listen=:8080 --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Serve(cmd.Context(), *flags)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "listen address (overrides [server].listen)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "API base path (overrides [server].base_path)")
	cmd.Flags().BoolVar(&flags.Metrics, "metrics", false, "expose Prometheus metrics on /metrics")
	return cmd
}

func createVersionCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(out, "procshim "+version)
		},
	}
}
