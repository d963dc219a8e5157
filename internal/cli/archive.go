package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqforge/seqforge/internal/store"
)

// ArchiveEntry is one row of the archive listing.
type ArchiveEntry struct {
	ID          string  `json:"id"`
	ContentHash string  `json:"content_hash"`
	NumBlocks   int     `json:"num_blocks"`
	Duration    float64 `json:"duration_s"`
	CreatedAt   string  `json:"created_at"`
}

// NewArchiveCommand creates the archive command group.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage the sequence archive",
	}

	cmd.AddCommand(newArchiveListCommand(rootOpts))
	cmd.AddCommand(newArchiveDeleteCommand(rootOpts))

	return cmd
}

func newArchiveListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List archived sequences",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveList(rootOpts, cmd)
		},
	}
}

func newArchiveDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <sequence-id>",
		Short:         "Delete a sequence from the archive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveDelete(rootOpts, cmd, args[0])
		},
	}
}

func runArchiveList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, func(st *store.Store) error {
		metas, err := st.List(cmd.Context())
		if err != nil {
			formatter.Error(ErrCodeArchive, err.Error(), nil)
			return WrapExitError(ExitCommandError, "list archive", err)
		}

		entries := make([]ArchiveEntry, len(metas))
		for i, m := range metas {
			entries[i] = ArchiveEntry{
				ID:          m.ID,
				ContentHash: m.ContentHash,
				NumBlocks:   m.NumBlocks,
				Duration:    m.Duration,
				CreatedAt:   m.CreatedAt,
			}
		}

		if opts.Format == "json" {
			return formatter.Success(entries)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "archive is empty")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  blocks=%d  duration=%.3fms  %s\n",
				e.ID, e.NumBlocks, e.Duration*1e3, e.CreatedAt)
		}
		return nil
	})
}

func runArchiveDelete(opts *RootOptions, cmd *cobra.Command, id string) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, func(st *store.Store) error {
		err := st.Delete(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			formatter.Error(ErrCodeNotFound, "sequence "+id+" is not in the archive", nil)
			return NewExitError(ExitCommandError, "sequence not found")
		}
		if err != nil {
			formatter.Error(ErrCodeArchive, err.Error(), nil)
			return WrapExitError(ExitCommandError, "delete sequence", err)
		}
		return formatter.Success("deleted " + id)
	})
}
