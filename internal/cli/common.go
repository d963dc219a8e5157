package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/seqforge/seqforge/internal/seq"
	"github.com/seqforge/seqforge/internal/store"
)

// Error codes reported in JSON output.
const (
	ErrCodeGeneric  = "E001" // unclassified failure
	ErrCodeArchive  = "E002" // archive open/read/write failure
	ErrCodeNotFound = "E003" // unknown sequence ID
	ErrCodeLimits   = "E004" // system limits load/validation failure
	ErrCodeTiming   = "E005" // timing check violations
)

// newFormatter builds the output formatter for a command invocation.
// Verbose logs go to stderr so JSON output stays parseable.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// withStore opens the archive, runs fn, and closes it again.
func withStore(opts *RootOptions, fn func(*store.Store) error) error {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open archive", err)
	}
	defer st.Close()
	return fn(st)
}

// loadSequence fetches one sequence from the archive, mapping a missing ID
// to a command error.
func loadSequence(cmd *cobra.Command, st *store.Store, id string) (*seq.Sequence, error) {
	sq, err := st.Load(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewExitError(ExitCommandError, "sequence "+id+" is not in the archive")
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load sequence", err)
	}
	return sq, nil
}
