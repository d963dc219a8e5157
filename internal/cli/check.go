package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seqforge/seqforge/internal/store"
)

// CheckResult holds timing check results.
type CheckResult struct {
	ID         string   `json:"id"`
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <sequence-id>",
		Short: "Run the timing check on an archived sequence",
		Long: `Load a sequence from the archive and validate every block against the
system limits: cached against implied durations, RF dead-time and ringdown
margins, ADC dead-time margins, and final gradient ramp-down.

All violations are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, cmd *cobra.Command, id string) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, func(st *store.Store) error {
		sq, err := loadSequence(cmd, st, id)
		if err != nil {
			formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return err
		}
		formatter.VerboseLog("Loaded sequence %s (%d blocks)", sq.ID(), sq.NumBlocks())

		ok, report := sq.CheckTiming()
		result := CheckResult{ID: id, Valid: ok, Violations: report}

		if opts.Format == "json" {
			if err := formatter.Success(result); err != nil {
				return err
			}
		} else if ok {
			formatter.Success(fmt.Sprintf("sequence %s passes all timing checks", id))
		} else {
			formatter.Error(ErrCodeTiming,
				fmt.Sprintf("%d timing violation(s)", len(report)),
				strings.Join(report, "\n"))
			for _, line := range report {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", line)
			}
		}

		if !ok {
			return NewExitError(ExitFailure, "timing check failed")
		}
		return nil
	})
}
