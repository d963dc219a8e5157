package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqforge/seqforge/internal/event"
	"github.com/seqforge/seqforge/internal/store"
)

// WaveformsResult holds the rastered gradient waveforms of a sequence.
type WaveformsResult struct {
	ID         string    `json:"id"`
	RasterTime float64   `json:"raster_time_s"`
	Gx         []float64 `json:"gx"`
	Gy         []float64 `json:"gy"`
	Gz         []float64 `json:"gz"`
}

// NewWaveformsCommand creates the waveforms command.
func NewWaveformsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waveforms <sequence-id>",
		Short: "Dump the rastered gradient waveforms of an archived sequence",
		Long: `Reconstruct the dense gradient waveforms of a sequence on the gradient
raster and print them, one sample row per raster interval.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWaveforms(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runWaveforms(opts *RootOptions, cmd *cobra.Command, id string) error {
	formatter := newFormatter(opts, cmd)

	return withStore(opts, func(st *store.Store) error {
		sq, err := loadSequence(cmd, st, id)
		if err != nil {
			formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return err
		}

		gw, err := sq.GradientWaveforms()
		if err != nil {
			formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, "reconstruct waveforms", err)
		}
		raster := sq.System().GradRasterTime

		if opts.Format == "json" {
			return formatter.Success(WaveformsResult{
				ID:         id,
				RasterTime: raster,
				Gx:         gw[event.ChannelX],
				Gy:         gw[event.ChannelY],
				Gz:         gw[event.ChannelZ],
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# t[s]\tgx\tgy\tgz\n")
		for i := range gw[event.ChannelX] {
			fmt.Fprintf(out, "%g\t%g\t%g\t%g\n",
				float64(i)*raster,
				gw[event.ChannelX][i], gw[event.ChannelY][i], gw[event.ChannelZ][i])
		}
		return nil
	})
}
