package seq

import (
	"fmt"
	"math"

	"github.com/seqforge/seqforge/internal/event"
	"github.com/seqforge/seqforge/internal/shape"
)

// Library data layouts. Each event kind stores a fixed-width numeric row;
// shapes referenced by index live in the shape library as
// [numSamples, encoded...].
//
//	rf        (tag = use): [amplitude, magShapeID, phaseShapeID, timeShapeID, delay, freqOffset, phaseOffset]
//	grad  "t"            : [amplitude, riseTime, flatTime, fallTime, delay]
//	grad  "g"            : [amplitude, shapeID, delay, first, last]
//	adc                  : [numSamples, dwell, delay, freqOffset, phaseOffset]
//	delay                : [duration]
//	trigger              : [type, channel, delay, duration]
//	labelset / labelinc  : [value, labelID]
//	extensions           : [typeID, refID, nextID]  (zero-terminated chain)
const (
	gradTagTrap = "t"
	gradTagArb  = "g"
)

// Block is a fully reconstructed sequence block: all library references
// resolved, shapes decompressed, derived fields recomputed.
type Block struct {
	Index    int
	RF       *event.RF
	Grads    [event.NumChannels]event.Gradient
	ADC      *event.ADC
	Delay    *event.Delay
	Labels   []event.Event // *event.LabelSet / *event.LabelInc, chain order
	Triggers []*event.Trigger
	Duration float64 // seconds, the cached block duration
}

// AddBlock appends a new block built from the given events.
// Equivalent to SetBlock(NumBlocks()+1, events...).
func (s *Sequence) AddBlock(events ...event.Event) error {
	return s.SetBlock(len(s.blocks)+1, events...)
}

// SetBlock validates the events, registers each into its library
// (deduplicating against existing content), and stores the resulting
// reference row at the 1-based index, replacing any prior content there.
//
// Validation happens before any registration, so a failed call leaves the
// block table untouched. Entries orphaned by a replace remain in the
// libraries as unreferenced garbage; they are never reclaimed.
func (s *Sequence) SetBlock(index int, events ...event.Event) error {
	if index < 1 || index > len(s.blocks)+1 {
		return newIndexError(index, len(s.blocks))
	}

	grouped, err := s.groupEvents(index, events)
	if err != nil {
		return err
	}
	if err := s.checkRasters(index, grouped); err != nil {
		return err
	}

	var row blockRow
	maxEnd := 0.0
	extend := func(end float64) {
		if end > maxEnd {
			maxEnd = end
		}
	}

	if rf := grouped.rf; rf != nil {
		row.RF = s.registerRF(rf)
		// The ringdown margin must fit inside the block.
		extend(rf.Duration() + s.sys.RFRingdownTime)
	}
	for c, g := range grouped.grads {
		if g == nil {
			continue
		}
		row.Grad[c] = s.registerGrad(g)
		extend(g.Duration())
	}
	if adc := grouped.adc; adc != nil {
		row.ADC = s.adcLib.Insert("", []float64{
			float64(adc.NumSamples), adc.Dwell, adc.Delay, adc.FreqOffset, adc.PhaseOffset,
		})
		// The post-window dead time must fit inside the block.
		extend(adc.Duration() + s.sys.ADCDeadTime)
	}
	if d := grouped.delay; d != nil {
		row.Delay = s.delayLib.Insert("", []float64{d.Dur})
		extend(d.Dur)
	}
	for _, t := range grouped.triggers {
		extend(t.Duration())
	}
	row.Ext = s.registerExtensions(grouped)

	row.durationUnits = s.durationUnitsFor(maxEnd)

	if index == len(s.blocks)+1 {
		s.blocks = append(s.blocks, row)
	} else {
		s.blocks[index-1] = row
	}
	return nil
}

// groupedEvents is the per-slot view of one block's raw event list.
type groupedEvents struct {
	rf       *event.RF
	grads    [event.NumChannels]event.Gradient
	adc      *event.ADC
	delay    *event.Delay
	labels   []event.Event
	triggers []*event.Trigger
}

func (s *Sequence) groupEvents(index int, events []event.Event) (*groupedEvents, error) {
	g := &groupedEvents{}
	for _, e := range events {
		switch ev := e.(type) {
		case *event.RF:
			if g.rf != nil {
				return nil, newDuplicateEventError(index, "RF pulse")
			}
			g.rf = ev
		case *event.Trap:
			if g.grads[ev.Chan] != nil {
				return nil, s.duplicateAxisError(index, ev.Chan)
			}
			g.grads[ev.Chan] = ev
		case *event.Arb:
			if g.grads[ev.Chan] != nil {
				return nil, s.duplicateAxisError(index, ev.Chan)
			}
			g.grads[ev.Chan] = ev
		case *event.ADC:
			if g.adc != nil {
				return nil, newDuplicateEventError(index, "ADC window")
			}
			g.adc = ev
		case *event.Delay:
			if g.delay != nil {
				return nil, newDuplicateEventError(index, "explicit delay")
			}
			g.delay = ev
		case *event.LabelSet:
			g.labels = append(g.labels, ev)
		case *event.LabelInc:
			if ev.Label.IsFlag() {
				return nil, &BuildError{
					Code:       ErrCodeUnsupportedEvent,
					Message:    fmt.Sprintf("label %s is a flag: increment is not allowed", ev.Label),
					BlockIndex: index,
				}
			}
			g.labels = append(g.labels, ev)
		case *event.Trigger:
			g.triggers = append(g.triggers, ev)
		default:
			return nil, &BuildError{
				Code:       ErrCodeUnsupportedEvent,
				Message:    fmt.Sprintf("unsupported event type %T", e),
				BlockIndex: index,
			}
		}
	}
	return g, nil
}

func (s *Sequence) duplicateAxisError(index int, ch event.Channel) *BuildError {
	return &BuildError{
		Code:       ErrCodeDuplicateEvent,
		Message:    fmt.Sprintf("block accepts at most one gradient on axis %s", ch),
		BlockIndex: index,
		Channel:    ch,
	}
}

// checkRasters verifies every event's timing against its governing raster.
func (s *Sequence) checkRasters(index int, g *groupedEvents) error {
	eps := s.sys.Eps
	if rf := g.rf; rf != nil {
		if !alignedTo(rf.Delay, s.sys.RFRasterTime, eps) {
			return newTimingError(index, "rf delay %g s not aligned to rf raster %g s", rf.Delay, s.sys.RFRasterTime)
		}
		raster := s.sys.RFRasterTime
		for i, t := range rf.Time {
			// Samples sit either on the raster grid or at interval
			// midpoints (the default envelope raster).
			if !alignedTo(t, raster, eps) && !alignedTo(t-raster/2, raster, eps) {
				return newTimingError(index, "rf sample %d at %g s not aligned to rf raster %g s", i, t, raster)
			}
		}
	}
	for _, gr := range g.grads {
		switch gr := gr.(type) {
		case *event.Trap:
			raster := s.sys.GradRasterTime
			for _, part := range []struct {
				name string
				v    float64
			}{
				{"delay", gr.Delay}, {"rise time", gr.RiseTime},
				{"flat time", gr.FlatTime}, {"fall time", gr.FallTime},
			} {
				if !alignedTo(part.v, raster, eps) {
					return newTimingError(index, "gradient %s %s %g s not aligned to gradient raster %g s",
						gr.Chan, part.name, part.v, raster)
				}
			}
		case *event.Arb:
			if !alignedTo(gr.Delay, s.sys.GradRasterTime, eps) {
				return newTimingError(index, "gradient %s delay %g s not aligned to gradient raster %g s",
					gr.Chan, gr.Delay, s.sys.GradRasterTime)
			}
			// Waveforms are stored without their raster; reconstruction
			// assumes the system gradient raster throughout.
			if math.Abs(gr.RasterTime-s.sys.GradRasterTime) > eps {
				return newTimingError(index, "gradient %s raster %g s does not match the system gradient raster %g s",
					gr.Chan, gr.RasterTime, s.sys.GradRasterTime)
			}
		}
	}
	if adc := g.adc; adc != nil {
		if !alignedTo(adc.Dwell, s.sys.ADCRasterTime, eps) {
			return newTimingError(index, "adc dwell %g s not aligned to adc raster %g s", adc.Dwell, s.sys.ADCRasterTime)
		}
		if !alignedTo(adc.Delay, s.sys.ADCRasterTime, eps) {
			return newTimingError(index, "adc delay %g s not aligned to adc raster %g s", adc.Delay, s.sys.ADCRasterTime)
		}
	}
	if d := g.delay; d != nil {
		if d.Dur < 0 {
			return newTimingError(index, "delay duration %g s is negative", d.Dur)
		}
		if !alignedTo(d.Dur, s.sys.BlockDurationRaster, eps) {
			return newTimingError(index, "delay %g s not aligned to block duration raster %g s",
				d.Dur, s.sys.BlockDurationRaster)
		}
	}
	return nil
}

// registerRF compresses the RF envelope shapes into the shape library and
// stores the pulse row, deduplicating against identical pulses.
func (s *Sequence) registerRF(rf *event.RF) int {
	magID := s.registerShape(rf.Mag)
	phaseID := s.registerShape(rf.Phase)

	// The time vector is stored only when it differs from the default
	// half-shifted envelope raster; a zero reference means "regular".
	timeID := 0
	if !s.rfTimeIsRegular(rf) {
		t := make([]float64, len(rf.Time))
		for i, v := range rf.Time {
			t[i] = v / s.sys.RFRasterTime
		}
		timeID = s.registerShape(t)
	}

	return s.rfLib.Insert(rf.Use.Tag(), []float64{
		rf.Amplitude, float64(magID), float64(phaseID), float64(timeID),
		rf.Delay, rf.FreqOffset, rf.PhaseOffset,
	})
}

func (s *Sequence) rfTimeIsRegular(rf *event.RF) bool {
	raster := s.sys.RFRasterTime
	for i, t := range rf.Time {
		if math.Abs(t-(float64(i)+0.5)*raster) > s.sys.Eps {
			return false
		}
	}
	return true
}

// registerGrad stores a gradient event. Arbitrary waveforms are expected
// unit-normalized by the caller, with Amplitude carrying the scale, so that
// identical shapes at different amplitudes share one shape-library entry.
func (s *Sequence) registerGrad(g event.Gradient) int {
	switch g := g.(type) {
	case *event.Trap:
		return s.gradLib.Insert(gradTagTrap, []float64{
			g.Amplitude, g.RiseTime, g.FlatTime, g.FallTime, g.Delay,
		})
	case *event.Arb:
		shapeID := s.registerShape(g.Waveform)
		return s.gradLib.Insert(gradTagArb, []float64{
			g.Amplitude, float64(shapeID), g.Delay, g.First, g.Last,
		})
	}
	panic(fmt.Sprintf("seq: unknown gradient type %T", g))
}

// registerShape compresses samples and deduplicates the encoded form.
func (s *Sequence) registerShape(samples []float64) int {
	c := shape.Compress(samples)
	data := make([]float64, 0, len(c.Data)+1)
	data = append(data, float64(c.NumSamples))
	data = append(data, c.Data...)
	return s.shapeLib.Insert("", data)
}

// registerExtensions chains the block's labels and triggers into the
// extension library as zero-terminated (typeID, refID, next) triples and
// returns the head entry ID, or 0 when the block carries no extensions.
//
// The chain is built back to front so a forward scan visits extensions in
// the order the caller supplied them.
func (s *Sequence) registerExtensions(g *groupedEvents) int {
	type pending struct {
		typeID int
		refID  int
	}
	var items []pending

	for _, l := range g.labels {
		switch l := l.(type) {
		case *event.LabelSet:
			labelID, _ := l.Label.ID()
			ref := s.labelSet.Insert("", []float64{float64(l.Value), float64(labelID)})
			items = append(items, pending{typeID: s.ExtensionTypeID(ExtLabelSet), refID: ref})
		case *event.LabelInc:
			labelID, _ := l.Label.ID()
			ref := s.labelInc.Insert("", []float64{float64(l.Value), float64(labelID)})
			items = append(items, pending{typeID: s.ExtensionTypeID(ExtLabelInc), refID: ref})
		}
	}
	for _, t := range g.triggers {
		ref := s.triggerLib.Insert("", []float64{
			float64(t.Type), float64(t.Channel), t.Delay, t.Dur,
		})
		items = append(items, pending{typeID: s.ExtensionTypeID(ExtTriggers), refID: ref})
	}

	next := 0
	for i := len(items) - 1; i >= 0; i-- {
		next = s.extLib.Insert("", []float64{
			float64(items[i].typeID), float64(items[i].refID), float64(next),
		})
	}
	return next
}

// GetBlock reconstructs the block at the 1-based index from its library
// references: shapes are decompressed and derived fields recomputed.
func (s *Sequence) GetBlock(index int) (Block, error) {
	if index < 1 || index > len(s.blocks) {
		return Block{}, newIndexError(index, len(s.blocks))
	}
	row := s.blocks[index-1]
	b := Block{
		Index:    index,
		Duration: float64(row.durationUnits) * s.sys.BlockDurationRaster,
	}

	if row.RF != 0 {
		rf, err := s.rfFromLib(row.RF)
		if err != nil {
			return Block{}, err
		}
		b.RF = rf
	}
	for c := 0; c < event.NumChannels; c++ {
		if row.Grad[c] == 0 {
			continue
		}
		g, err := s.gradFromLib(row.Grad[c], event.Channel(c))
		if err != nil {
			return Block{}, err
		}
		b.Grads[c] = g
	}
	if row.ADC != 0 {
		e, err := s.adcLib.Lookup(row.ADC)
		if err != nil {
			return Block{}, err
		}
		b.ADC = &event.ADC{
			NumSamples:  int(e.Data[0]),
			Dwell:       e.Data[1],
			Delay:       e.Data[2],
			FreqOffset:  e.Data[3],
			PhaseOffset: e.Data[4],
			DeadTime:    s.sys.ADCDeadTime,
		}
	}
	if row.Delay != 0 {
		e, err := s.delayLib.Lookup(row.Delay)
		if err != nil {
			return Block{}, err
		}
		b.Delay = &event.Delay{Dur: e.Data[0]}
	}
	if row.Ext != 0 {
		if err := s.extensionsFromLib(row.Ext, &b); err != nil {
			return Block{}, err
		}
	}
	return b, nil
}

func (s *Sequence) rfFromLib(id int) (*event.RF, error) {
	e, err := s.rfLib.Lookup(id)
	if err != nil {
		return nil, err
	}
	mag, err := s.shapeFromLib(int(e.Data[1]))
	if err != nil {
		return nil, err
	}
	phase, err := s.shapeFromLib(int(e.Data[2]))
	if err != nil {
		return nil, err
	}

	var t []float64
	if timeID := int(e.Data[3]); timeID != 0 {
		raw, err := s.shapeFromLib(timeID)
		if err != nil {
			return nil, err
		}
		t = make([]float64, len(raw))
		for i, v := range raw {
			t[i] = v * s.sys.RFRasterTime
		}
	} else {
		t = make([]float64, len(mag))
		for i := range t {
			t[i] = (float64(i) + 0.5) * s.sys.RFRasterTime
		}
	}

	return &event.RF{
		Amplitude:    e.Data[0],
		Mag:          mag,
		Phase:        phase,
		Time:         t,
		Delay:        e.Data[4],
		FreqOffset:   e.Data[5],
		PhaseOffset:  e.Data[6],
		DeadTime:     s.sys.RFDeadTime,
		RingdownTime: s.sys.RFRingdownTime,
		Use:          event.UseFromTag(e.Tag),
	}, nil
}

func (s *Sequence) gradFromLib(id int, ch event.Channel) (event.Gradient, error) {
	e, err := s.gradLib.Lookup(id)
	if err != nil {
		return nil, err
	}
	switch e.Tag {
	case gradTagTrap:
		return &event.Trap{
			Chan:      ch,
			Amplitude: e.Data[0],
			RiseTime:  e.Data[1],
			FlatTime:  e.Data[2],
			FallTime:  e.Data[3],
			Delay:     e.Data[4],
		}, nil
	case gradTagArb:
		wf, err := s.shapeFromLib(int(e.Data[1]))
		if err != nil {
			return nil, err
		}
		return &event.Arb{
			Chan:       ch,
			Amplitude:  e.Data[0],
			Waveform:   wf,
			Delay:      e.Data[2],
			First:      e.Data[3],
			Last:       e.Data[4],
			RasterTime: s.sys.GradRasterTime,
		}, nil
	}
	return nil, fmt.Errorf("seq: gradient entry %d has unknown tag %q", id, e.Tag)
}

func (s *Sequence) shapeFromLib(id int) ([]float64, error) {
	e, err := s.shapeLib.Lookup(id)
	if err != nil {
		return nil, err
	}
	c := shape.Compressed{NumSamples: int(e.Data[0]), Data: e.Data[1:]}
	return shape.Decompress(c)
}

// extensionsFromLib walks the zero-terminated extension chain rooted at
// head and attaches the reconstructed labels and triggers to b.
func (s *Sequence) extensionsFromLib(head int, b *Block) error {
	for id := head; id != 0; {
		e, err := s.extLib.Lookup(id)
		if err != nil {
			return err
		}
		typeID, refID, next := int(e.Data[0]), int(e.Data[1]), int(e.Data[2])
		name, err := s.ExtensionTypeString(typeID)
		if err != nil {
			return err
		}
		switch name {
		case ExtLabelSet:
			ref, err := s.labelSet.Lookup(refID)
			if err != nil {
				return err
			}
			label, err := event.LabelByID(int(ref.Data[1]))
			if err != nil {
				return err
			}
			b.Labels = append(b.Labels, &event.LabelSet{Label: label, Value: int(ref.Data[0])})
		case ExtLabelInc:
			ref, err := s.labelInc.Lookup(refID)
			if err != nil {
				return err
			}
			label, err := event.LabelByID(int(ref.Data[1]))
			if err != nil {
				return err
			}
			b.Labels = append(b.Labels, &event.LabelInc{Label: label, Value: int(ref.Data[0])})
		case ExtTriggers:
			ref, err := s.triggerLib.Lookup(refID)
			if err != nil {
				return err
			}
			b.Triggers = append(b.Triggers, &event.Trigger{
				Type:    event.TriggerType(ref.Data[0]),
				Channel: int(ref.Data[1]),
				Delay:   ref.Data[2],
				Dur:     ref.Data[3],
			})
		default:
			return fmt.Errorf("seq: extension type %q has no decoder", name)
		}
		id = next
	}
	return nil
}
