package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockapp/pkg/config"
	"github.com/getmockd/mockapp/pkg/controller"
	"github.com/getmockd/mockapp/pkg/logging"
	"github.com/getmockd/mockapp/pkg/server"
)

type serveFlags struct {
	host      string
	port      int
	routes    []string
	readyFile string
	logLevel  string
	logFormat string
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a mock server in the foreground",
		Long: `Run a mock server that answers POST requests on the paths listed in the
routes files. The server stops on SIGINT or SIGTERM.

Exits with status 3 when host:port cannot be bound.`,
		Example: `  # Serve routes from a single file
  mockapp serve --port 5050 --routes routes.yaml

  # Serve every routes file below mocks/
  mockapp serve --routes 'mocks/**/*.yaml'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.host, "host", "127.0.0.1", "Host to bind")
	cmd.Flags().IntVarP(&f.port, "port", "p", 5050, "Port to bind")
	cmd.Flags().StringArrayVarP(&f.routes, "routes", "r", nil, "Routes file path or glob (repeatable)")
	cmd.Flags().StringVar(&f.readyFile, "ready-file", "", "Write the bound address to this file once listening")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $MOCKAPP_LOG_LEVEL or info)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: text, json (default $MOCKAPP_LOG_FORMAT or text)")
	return cmd
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	settings, err := config.FromEnv()
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		settings.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		settings.LogFormat = f.logFormat
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(settings.LogLevel)
	logCfg.Format = logging.ParseFormat(settings.LogFormat)
	logCfg.Output = cmd.ErrOrStderr()
	log := logging.New(logCfg)
	if config.IsChild() {
		log = log.With("pid", os.Getpid())
	}

	// readyCtx is only canceled with a cause when the ready file cannot be written.
	readyCtx, cancel := context.WithCancelCause(cmd.Context())
	defer cancel(nil)
	ctx, stop := signal.NotifyContext(readyCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(f.host, f.port,
		server.WithLogger(log),
		server.OnBound(func(addr net.Addr) {
			if f.readyFile != "" {
				if err := writeReadyFile(f.readyFile, addr.String()); err != nil {
					cancel(err)
					return
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mock server listening on http://%s\n", addr)
		}),
	)

	if len(f.routes) > 0 {
		entries, err := config.LoadRoutes(f.routes...)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := srv.Register(e.Path, e.Response); err != nil {
				return err
			}
		}
	}

	if err := srv.Serve(ctx); err != nil {
		if errors.Is(err, server.ErrBind) {
			return &exitCodeError{code: controller.ExitCodeBind, err: err}
		}
		return err
	}
	if cause := context.Cause(readyCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// writeReadyFile writes atomically so a reader never sees a partial address.
func writeReadyFile(path, addr string) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(addr+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write ready file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename ready file: %w", err)
	}
	return nil
}
