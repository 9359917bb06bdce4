package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockapp/pkg/cli/internal/output"
	"github.com/getmockd/mockapp/pkg/config"
	"github.com/getmockd/mockapp/pkg/route"
)

// ValidationOutput is the JSON form of a validate run.
type ValidationOutput struct {
	Valid  bool             `json:"valid"`
	Routes int              `json:"routes"`
	Files  []FileValidation `json:"files"`
}

// FileValidation is the result for one routes file.
type FileValidation struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Routes int      `json:"routes"`
	Errors []string `json:"errors,omitempty"`
}

var errValidationFailed = errors.New("validation failed")

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path|glob>...",
		Short: "Validate routes files without starting a server",
		Long: `Check routes files against the routes schema and report paths registered
more than once across all given files.`,
		Example: `  mockapp validate routes.yaml
  mockapp validate 'mocks/**/*.yaml' --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := config.ExpandRoutesPatterns(args...)
			if err != nil {
				return err
			}

			result := validateFiles(files)
			if g.json {
				if err := output.JSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				printValidation(cmd, result)
			}
			if !result.Valid {
				return errValidationFailed
			}
			return nil
		},
	}
}

// validateFiles checks every file and then registers all routes into one
// table, the way serve would, to catch duplicates across files.
func validateFiles(files []string) ValidationOutput {
	result := ValidationOutput{Valid: true}
	table := route.NewTable()

	for _, f := range files {
		fv := FileValidation{File: f, Valid: true}

		entries, err := config.LoadRoutesFile(f)
		if err != nil {
			fv.Valid = false
			var verr *config.ValidationError
			if errors.As(err, &verr) {
				fv.Errors = verr.Errors
			} else {
				fv.Errors = []string{err.Error()}
			}
		}
		for _, e := range entries {
			if err := table.Register(e.Path, e.Response); err != nil {
				fv.Valid = false
				fv.Errors = append(fv.Errors, err.Error())
				continue
			}
			fv.Routes++
		}

		result.Routes += fv.Routes
		result.Valid = result.Valid && fv.Valid
		result.Files = append(result.Files, fv)
	}
	return result
}

func printValidation(cmd *cobra.Command, result ValidationOutput) {
	w := cmd.OutOrStdout()
	tw := output.Table(w)
	for _, fv := range result.Files {
		status := "ok"
		if !fv.Valid {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d routes\n", status, fv.File, fv.Routes)
	}
	_ = tw.Flush()

	for _, fv := range result.Files {
		for _, e := range fv.Errors {
			output.Warn(cmd.ErrOrStderr(), "%s: %s", fv.File, e)
		}
	}
	if result.Valid {
		fmt.Fprintf(w, "\n%d files valid, %d routes\n", len(result.Files), result.Routes)
	}
}
