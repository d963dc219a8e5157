package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqforge/seqforge/internal/event"
	"github.com/seqforge/seqforge/internal/limits"
	"github.com/seqforge/seqforge/internal/seq"
	"github.com/seqforge/seqforge/internal/store"
)

// DemoResult is the JSON payload of the demo command.
type DemoResult struct {
	ID          string  `json:"id"`
	ContentHash string  `json:"content_hash"`
	NumBlocks   int     `json:"num_blocks"`
	Duration    float64 `json:"duration_s"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		limitsPath string
		lines      int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a demo gradient-echo sequence and archive it",
		Long: `Build a small gradient-echo sequence in process and save it to the archive.

The sequence is assembled from hard-coded event parameters; it exists to
exercise the full pipeline (assembly, dedup, timing check, archival), not
to be scanned.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(rootOpts, cmd, limitsPath, lines)
		},
	}

	cmd.Flags().StringVar(&limitsPath, "limits", "", "system limits file (.cue or .yaml; defaults apply when empty)")
	cmd.Flags().IntVar(&lines, "lines", 8, "number of phase-encode lines")

	return cmd
}

func runDemo(opts *RootOptions, cmd *cobra.Command, limitsPath string, lines int) error {
	formatter := newFormatter(opts, cmd)

	sys := limits.Default()
	if limitsPath != "" {
		loaded, err := limits.Load(limitsPath)
		if err != nil {
			formatter.Error(ErrCodeLimits, err.Error(), nil)
			return WrapExitError(ExitCommandError, "load limits", err)
		}
		sys = loaded
		formatter.VerboseLog("Loaded system limits from %s", limitsPath)
	}

	sq, err := buildDemoSequence(sys, lines)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "build demo sequence", err)
	}

	if ok, report := sq.CheckTiming(); !ok {
		formatter.Error(ErrCodeTiming, "demo sequence fails its own timing check", report)
		return NewExitError(ExitFailure, "timing check failed")
	}

	return withStore(opts, func(st *store.Store) error {
		hash, err := st.Save(cmd.Context(), sq)
		if err != nil {
			formatter.Error(ErrCodeArchive, err.Error(), nil)
			return WrapExitError(ExitCommandError, "save sequence", err)
		}

		total, numBlocks, _ := sq.Duration()
		result := DemoResult{
			ID:          sq.ID().String(),
			ContentHash: hash,
			NumBlocks:   numBlocks,
			Duration:    total,
		}
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		return formatter.Success(fmt.Sprintf("archived %s (%d blocks, %.3f ms)",
			result.ID, result.NumBlocks, result.Duration*1e3))
	})
}

// buildDemoSequence assembles a minimal 2D gradient-echo loop: slice-select
// excitation, phase encode with readout prephaser, readout with ADC, and a
// spoiler, once per phase-encode line. Event parameters are fixed; only the
// phase-encode amplitude varies per line.
func buildDemoSequence(sys limits.Limits, lines int) (*seq.Sequence, error) {
	if lines < 1 {
		return nil, fmt.Errorf("demo needs at least 1 phase-encode line, got %d", lines)
	}
	sq, err := seq.New(sys)
	if err != nil {
		return nil, err
	}
	sq.SetDefinition("Name", "gre-demo")
	sq.SetDefinition("FOV", []float64{0.25, 0.25, 0.005})

	rf := &event.RF{
		Amplitude: 500,
		Mag:       make([]float64, 100),
		Phase:     make([]float64, 100),
		Time:      make([]float64, 100),
		Delay:     10e-6,
		Use:       event.UseExcitation,
	}
	for i := range rf.Mag {
		rf.Mag[i] = 1
		rf.Time[i] = (float64(i) + 0.5) * sys.RFRasterTime
	}
	sliceSelect := &event.Trap{
		Chan: event.ChannelZ, Amplitude: 400,
		RiseTime: 10e-6, FlatTime: 100e-6, FallTime: 10e-6,
	}
	sliceRefocus := &event.Trap{
		Chan: event.ChannelZ, Amplitude: -400,
		RiseTime: 10e-6, FlatTime: 40e-6, FallTime: 10e-6,
	}
	readPrephase := &event.Trap{
		Chan: event.ChannelX, Amplitude: -1000,
		RiseTime: 50e-6, FlatTime: 400e-6, FallTime: 50e-6,
	}
	readout := &event.Trap{
		Chan: event.ChannelX, Amplitude: 1000,
		RiseTime: 100e-6, FlatTime: 800e-6, FallTime: 100e-6,
	}
	adc := &event.ADC{NumSamples: 80, Dwell: 10e-6, Delay: 100e-6}
	spoiler := &event.Trap{
		Chan: event.ChannelZ, Amplitude: 800,
		RiseTime: 100e-6, FlatTime: 300e-6, FallTime: 100e-6,
	}

	for line := 0; line < lines; line++ {
		// Symmetric phase-encode table around zero.
		peScale := 2*float64(line)/float64(lines) - 1
		phaseEncode := &event.Trap{
			Chan: event.ChannelY, Amplitude: 600 * peScale,
			RiseTime: 50e-6, FlatTime: 400e-6, FallTime: 50e-6,
		}

		if err := sq.AddBlock(rf, sliceSelect); err != nil {
			return nil, err
		}
		if err := sq.AddBlock(phaseEncode, readPrephase, sliceRefocus); err != nil {
			return nil, err
		}
		if err := sq.AddBlock(readout, adc, &event.LabelInc{Label: event.LabelLIN, Value: 1}); err != nil {
			return nil, err
		}
		if err := sq.AddBlock(spoiler); err != nil {
			return nil, err
		}
	}
	return sq, nil
}
