package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/seqforge/seqforge/internal/store"
)

// InfoResult holds the summary of one archived sequence.
type InfoResult struct {
	ID          string         `json:"id"`
	NumBlocks   int            `json:"num_blocks"`
	Duration    float64        `json:"duration_s"`
	EventCounts EventCounts    `json:"event_counts"`
	Definitions map[string]any `json:"definitions,omitempty"`
}

// EventCounts reports how many blocks reference each event slot.
type EventCounts struct {
	Delay int `json:"delay"`
	RF    int `json:"rf"`
	Gx    int `json:"gx"`
	Gy    int `json:"gy"`
	Gz    int `json:"gz"`
	ADC   int `json:"adc"`
	Ext   int `json:"ext"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "info <sequence-id>",
		Short:         "Summarize an archived sequence",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runInfo(opts *RootOptions, cmd *cobra.Command, id string) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, func(st *store.Store) error {
		sq, err := loadSequence(cmd, st, id)
		if err != nil {
			formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return err
		}

		total, numBlocks, counts := sq.Duration()
		result := InfoResult{
			ID:        sq.ID().String(),
			NumBlocks: numBlocks,
			Duration:  total,
			EventCounts: EventCounts{
				Delay: counts[0], RF: counts[1],
				Gx: counts[2], Gy: counts[3], Gz: counts[4],
				ADC: counts[5], Ext: counts[6],
			},
			Definitions: sq.Definitions(),
		}

		if opts.Format == "json" {
			return formatter.Success(result)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sequence   %s\n", result.ID)
		fmt.Fprintf(out, "blocks     %d\n", result.NumBlocks)
		fmt.Fprintf(out, "duration   %.3f ms\n", result.Duration*1e3)
		fmt.Fprintf(out, "events     delay=%d rf=%d gx=%d gy=%d gz=%d adc=%d ext=%d\n",
			result.EventCounts.Delay, result.EventCounts.RF,
			result.EventCounts.Gx, result.EventCounts.Gy, result.EventCounts.Gz,
			result.EventCounts.ADC, result.EventCounts.Ext)

		keys := make([]string, 0, len(result.Definitions))
		for k := range result.Definitions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "def        %s = %v\n", k, result.Definitions[k])
		}
		return nil
	})
}
