package cli

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockapp/pkg/config"
	"github.com/getmockd/mockapp/pkg/controller"
)

type probeFlags struct {
	host        string
	port        int
	attempts    int
	interval    time.Duration
	dialTimeout time.Duration
}

func newProbeCmd() *cobra.Command {
	f := &probeFlags{}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Wait until a mock server accepts connections",
		Long: `Repeatedly connect to host:port until a connection succeeds or the attempt
budget is exhausted. Defaults come from MOCKAPP_PROBE_ATTEMPTS,
MOCKAPP_PROBE_INTERVAL and MOCKAPP_DIAL_TIMEOUT.`,
		Example: `  mockapp probe --port 5050
  mockapp probe --port 5050 --attempts 10 --interval 100ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := net.JoinHostPort(f.host, strconv.Itoa(f.port))
			if err := controller.WaitReachable(cmd.Context(), addr, f.interval, f.attempts, f.dialTimeout); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is accepting connections\n", addr)
			return nil
		},
	}

	// Flag defaults fall back to the built-ins when the environment is invalid;
	// the error resurfaces in PreRunE.
	settings, envErr := config.FromEnv()
	cmd.PreRunE = func(*cobra.Command, []string) error { return envErr }

	cmd.Flags().StringVar(&f.host, "host", "127.0.0.1", "Host to probe")
	cmd.Flags().IntVarP(&f.port, "port", "p", 5050, "Port to probe")
	cmd.Flags().IntVar(&f.attempts, "attempts", settings.ProbeAttempts, "Maximum connection attempts")
	cmd.Flags().DurationVar(&f.interval, "interval", settings.ProbeInterval, "Delay between attempts")
	cmd.Flags().DurationVar(&f.dialTimeout, "dial-timeout", settings.DialTimeout, "Timeout of each connection attempt")
	return cmd
}
