package harness

import (
	"fmt"
	"strings"

	"github.com/seqforge/seqforge/internal/event"
	"github.com/seqforge/seqforge/internal/limits"
	"github.com/seqforge/seqforge/internal/seq"
)

// Build assembles the scenario's blocks into a sequence. When the scenario
// pins an ID, the sequence is rebuilt through its snapshot so the identity
// is deterministic.
func Build(sc *Scenario) (*seq.Sequence, error) {
	sys := limits.Default()
	if sc.Limits != nil {
		sys = *sc.Limits
	}
	sq, err := seq.New(sys)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	for i, spec := range sc.Blocks {
		events, err := blockEvents(sys, spec)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: block %d: %w", sc.Name, i+1, err)
		}
		if err := sq.AddBlock(events...); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}

	if sc.ID != "" {
		snap := sq.Snapshot()
		snap.ID = sc.ID
		sq, err = seq.FromSnapshot(snap)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: pin id: %w", sc.Name, err)
		}
	}
	return sq, nil
}

func blockEvents(sys limits.Limits, spec BlockSpec) ([]event.Event, error) {
	var events []event.Event

	if spec.RF != nil {
		rf, err := rfEvent(sys, spec.RF)
		if err != nil {
			return nil, err
		}
		events = append(events, rf)
	}
	for _, g := range spec.Grads {
		ev, err := gradEvent(sys, g)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if spec.ADC != nil {
		events = append(events, &event.ADC{
			NumSamples:  spec.ADC.Samples,
			Dwell:       spec.ADC.Dwell,
			Delay:       spec.ADC.Delay,
			FreqOffset:  spec.ADC.FreqOffset,
			PhaseOffset: spec.ADC.PhaseOffset,
		})
	}
	if spec.Delay != nil {
		events = append(events, &event.Delay{Dur: *spec.Delay})
	}
	for _, l := range spec.Labels {
		ev, err := event.NewLabel(event.Label(l.Label), strings.ToUpper(l.Op), l.Value)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	for _, tr := range spec.Triggers {
		ev, err := triggerEvent(tr)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func rfEvent(sys limits.Limits, spec *RFSpec) (*event.RF, error) {
	use, err := parseUse(spec.Use)
	if err != nil {
		return nil, err
	}
	if spec.Samples < 1 {
		return nil, fmt.Errorf("rf needs at least 1 sample, got %d", spec.Samples)
	}
	rf := &event.RF{
		Amplitude:   spec.Amplitude,
		Mag:         make([]float64, spec.Samples),
		Phase:       make([]float64, spec.Samples),
		Time:        make([]float64, spec.Samples),
		Delay:       spec.Delay,
		FreqOffset:  spec.FreqOffset,
		PhaseOffset: spec.PhaseOffset,
		Use:         use,
	}
	for i := range rf.Mag {
		rf.Mag[i] = 1
		rf.Time[i] = (float64(i) + 0.5) * sys.RFRasterTime
	}
	return rf, nil
}

func gradEvent(sys limits.Limits, spec GradSpec) (event.Event, error) {
	ch, err := event.ParseChannel(spec.Channel)
	if err != nil {
		return nil, err
	}
	switch spec.Type {
	case "trap":
		return &event.Trap{
			Chan:      ch,
			Amplitude: spec.Amplitude,
			RiseTime:  spec.Rise,
			FlatTime:  spec.Flat,
			FallTime:  spec.Fall,
			Delay:     spec.Delay,
		}, nil
	case "arb":
		if len(spec.Waveform) == 0 {
			return nil, fmt.Errorf("arb gradient on %s needs a waveform", spec.Channel)
		}
		return &event.Arb{
			Chan:       ch,
			Amplitude:  spec.Amplitude,
			Waveform:   spec.Waveform,
			Delay:      spec.Delay,
			First:      spec.First,
			Last:       spec.Last,
			RasterTime: sys.GradRasterTime,
		}, nil
	}
	return nil, fmt.Errorf("unknown gradient type %q: must be trap or arb", spec.Type)
}

func parseUse(s string) (event.Use, error) {
	switch use := event.Use(s); use {
	case event.UseExcitation, event.UseRefocusing, event.UseInversion,
		event.UseSaturation, event.UsePreparation, event.UseUndefined:
		return use, nil
	case "":
		return event.UseUndefined, nil
	}
	return "", fmt.Errorf("unknown rf use %q", s)
}

func triggerEvent(spec TriggerSpec) (*event.Trigger, error) {
	var typ event.TriggerType
	switch spec.Type {
	case "output":
		typ = event.TriggerOutput
	case "physio":
		typ = event.TriggerPhysio
	default:
		return nil, fmt.Errorf("unknown trigger type %q: must be output or physio", spec.Type)
	}
	return &event.Trigger{
		Type:    typ,
		Channel: spec.Channel,
		Delay:   spec.Delay,
		Dur:     spec.Duration,
	}, nil
}
