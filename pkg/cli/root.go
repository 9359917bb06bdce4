package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	json bool
}

// exitCodeError carries a specific process exit status.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

// NewRootCommand builds the mockapp command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "mockapp",
		Short: "mockapp serves canned JSON responses for tests",
		Long: `mockapp runs a mock HTTP server that answers POST requests on registered
paths with fixed JSON bodies. Go tests usually drive it through the controller
package; the CLI serves the same mocks from routes files for other tooling.`,
		SilenceUsage:  true,
		SilenceErrors: true, // Main prints errors
	}
	root.PersistentFlags().BoolVar(&g.json, "json", false, "Output command results in JSON format")

	root.AddCommand(
		newServeCmd(),
		newProbeCmd(),
		newValidateCmd(g),
		newVersionCmd(g),
	)
	return root
}

// Main runs the command line with args and returns the process exit status.
func Main(args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "Error:", err)

	var ec *exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	return 1
}
