package seq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqforge/seqforge/internal/event"
	"github.com/seqforge/seqforge/internal/limits"
)

func newTestSequence(t *testing.T) *Sequence {
	t.Helper()
	s, err := New(limits.Default())
	require.NoError(t, err)
	return s
}

// hardPulse builds a constant-envelope RF pulse of the given length on the
// default RF raster.
func hardPulse(use event.Use, samples int) *event.RF {
	rf := &event.RF{
		Amplitude: 250,
		Mag:       make([]float64, samples),
		Phase:     make([]float64, samples),
		Time:      make([]float64, samples),
		Use:       use,
	}
	for i := range rf.Mag {
		rf.Mag[i] = 1
		rf.Time[i] = (float64(i) + 0.5) * 1e-6
	}
	return rf
}

func readoutTrap(ch event.Channel) *event.Trap {
	return &event.Trap{
		Chan:      ch,
		Amplitude: 1000,
		RiseTime:  100e-6,
		FlatTime:  800e-6,
		FallTime:  100e-6,
	}
}

func readoutADC() *event.ADC {
	return &event.ADC{NumSamples: 80, Dwell: 10e-6, Delay: 100e-6}
}

func TestAddBlock_RoundTrip(t *testing.T) {
	s := newTestSequence(t)

	rf := hardPulse(event.UseExcitation, 100)
	rf.Delay = 10e-6
	rf.FreqOffset = 120
	rf.PhaseOffset = 0.5
	gz := &event.Trap{Chan: event.ChannelZ, Amplitude: 400, RiseTime: 10e-6, FlatTime: 100e-6, FallTime: 10e-6}
	require.NoError(t, s.AddBlock(rf, gz))

	b, err := s.GetBlock(1)
	require.NoError(t, err)

	require.NotNil(t, b.RF)
	assert.InDelta(t, 250, b.RF.Amplitude, 1e-9)
	assert.InDelta(t, 10e-6, b.RF.Delay, 1e-12)
	assert.InDelta(t, 120, b.RF.FreqOffset, 1e-9)
	assert.InDelta(t, 0.5, b.RF.PhaseOffset, 1e-9)
	assert.Equal(t, event.UseExcitation, b.RF.Use)
	require.Len(t, b.RF.Mag, 100)
	for i := range b.RF.Mag {
		assert.InDelta(t, 1.0, b.RF.Mag[i], 1e-9)
		assert.InDelta(t, (float64(i)+0.5)*1e-6, b.RF.Time[i], 1e-12)
	}

	gotGz, ok := b.Grads[event.ChannelZ].(*event.Trap)
	require.True(t, ok)
	assert.InDelta(t, 400, gotGz.Amplitude, 1e-9)
	assert.InDelta(t, 10e-6, gotGz.RiseTime, 1e-12)
	assert.InDelta(t, 100e-6, gotGz.FlatTime, 1e-12)
	assert.InDelta(t, 10e-6, gotGz.FallTime, 1e-12)
	assert.Nil(t, b.Grads[event.ChannelX])
	assert.Nil(t, b.ADC)
}

func TestAddBlock_ArbGradientRoundTrip(t *testing.T) {
	s := newTestSequence(t)

	wf := make([]float64, 50)
	for i := range wf {
		wf[i] = float64(i) / float64(len(wf)-1)
	}
	g := &event.Arb{
		Chan:       event.ChannelX,
		Amplitude:  2000,
		Waveform:   wf,
		First:      0,
		Last:       2000,
		RasterTime: 10e-6,
	}
	require.NoError(t, s.AddBlock(g))

	b, err := s.GetBlock(1)
	require.NoError(t, err)
	got, ok := b.Grads[event.ChannelX].(*event.Arb)
	require.True(t, ok)
	assert.InDelta(t, 2000, got.Amplitude, 1e-9)
	assert.InDelta(t, 2000, got.Last, 1e-9)
	require.Len(t, got.Waveform, 50)
	for i := range wf {
		assert.InDelta(t, wf[i], got.Waveform[i], 1e-9)
	}
}

func TestAddBlock_ADCAndDelayRoundTrip(t *testing.T) {
	s := newTestSequence(t)
	adc := readoutADC()
	adc.FreqOffset = -300
	adc.PhaseOffset = 1.25
	require.NoError(t, s.AddBlock(adc, readoutTrap(event.ChannelX)))
	require.NoError(t, s.AddBlock(&event.Delay{Dur: 500e-6}))

	b1, err := s.GetBlock(1)
	require.NoError(t, err)
	require.NotNil(t, b1.ADC)
	assert.Equal(t, 80, b1.ADC.NumSamples)
	assert.InDelta(t, 10e-6, b1.ADC.Dwell, 1e-12)
	assert.InDelta(t, 100e-6, b1.ADC.Delay, 1e-12)
	assert.InDelta(t, -300, b1.ADC.FreqOffset, 1e-9)
	assert.InDelta(t, 1.25, b1.ADC.PhaseOffset, 1e-9)

	b2, err := s.GetBlock(2)
	require.NoError(t, err)
	require.NotNil(t, b2.Delay)
	assert.InDelta(t, 500e-6, b2.Delay.Dur, 1e-12)
	assert.InDelta(t, 500e-6, b2.Duration, 1e-12)
}

func TestAddBlock_DeduplicatesRepeatedEvents(t *testing.T) {
	s := newTestSequence(t)

	for i := 0; i < 100; i++ {
		require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX), readoutADC()))
	}
	assert.Equal(t, 100, s.NumBlocks())
	assert.Equal(t, 1, s.gradLib.Size(), "identical trapezoids share one library entry")
	assert.Equal(t, 1, s.adcLib.Size())
}

func TestAddBlock_SharedShapeAcrossAmplitudes(t *testing.T) {
	s := newTestSequence(t)

	wf := []float64{0, 0.5, 1, 0.5, 0}
	g1 := &event.Arb{Chan: event.ChannelX, Amplitude: 1000, Waveform: wf, RasterTime: 10e-6}
	g2 := &event.Arb{Chan: event.ChannelX, Amplitude: 2000, Waveform: wf, RasterTime: 10e-6}
	require.NoError(t, s.AddBlock(g1))
	require.NoError(t, s.AddBlock(g2))

	assert.Equal(t, 2, s.gradLib.Size(), "different amplitudes are distinct gradient events")
	assert.Equal(t, 1, s.shapeLib.Size(), "the normalized waveform is stored once")
}

func TestSetBlock_ReplaceSemantics(t *testing.T) {
	s := newTestSequence(t)
	require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX)))

	replacement := readoutTrap(event.ChannelY)
	replacement.Amplitude = 2000
	require.NoError(t, s.SetBlock(1, replacement))

	b, err := s.GetBlock(1)
	require.NoError(t, err)
	assert.Nil(t, b.Grads[event.ChannelX])
	require.NotNil(t, b.Grads[event.ChannelY])

	// The superseded entry stays behind as unreferenced garbage.
	assert.Equal(t, 2, s.gradLib.Size())
	assert.Equal(t, 1, s.NumBlocks())
}

func TestSetBlock_IndexOutOfRange(t *testing.T) {
	s := newTestSequence(t)

	err := s.SetBlock(0, readoutTrap(event.ChannelX))
	assert.True(t, IsIndexOutOfRangeError(err))

	err = s.SetBlock(2, readoutTrap(event.ChannelX))
	assert.True(t, IsIndexOutOfRangeError(err), "index past len+1 is rejected")

	require.NoError(t, s.SetBlock(1, readoutTrap(event.ChannelX)))
	require.NoError(t, s.SetBlock(2, readoutTrap(event.ChannelX)))
}

func TestGetBlock_IndexOutOfRange(t *testing.T) {
	s := newTestSequence(t)
	require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX)))

	_, err := s.GetBlock(2)
	assert.True(t, IsIndexOutOfRangeError(err))
	_, err = s.GetBlock(0)
	assert.True(t, IsIndexOutOfRangeError(err))
}

func TestSetBlock_DuplicateRF(t *testing.T) {
	s := newTestSequence(t)
	err := s.AddBlock(hardPulse(event.UseExcitation, 10), hardPulse(event.UseExcitation, 20))
	assert.True(t, IsDuplicateEventError(err))
}

func TestSetBlock_DuplicateAxis(t *testing.T) {
	s := newTestSequence(t)
	err := s.AddBlock(readoutTrap(event.ChannelX), readoutTrap(event.ChannelX))
	require.True(t, IsDuplicateEventError(err))

	// Distinct axes are fine.
	require.NoError(t, s.AddBlock(
		readoutTrap(event.ChannelX), readoutTrap(event.ChannelY), readoutTrap(event.ChannelZ)))
}

func TestSetBlock_DuplicateADCAndDelay(t *testing.T) {
	s := newTestSequence(t)
	err := s.AddBlock(readoutADC(), readoutADC())
	assert.True(t, IsDuplicateEventError(err))

	err = s.AddBlock(&event.Delay{Dur: 10e-6}, &event.Delay{Dur: 20e-6})
	assert.True(t, IsDuplicateEventError(err))
}

func TestSetBlock_FailureLeavesTableUntouched(t *testing.T) {
	s := newTestSequence(t)
	require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX)))
	gradEntries := s.gradLib.Size()

	err := s.SetBlock(1, readoutTrap(event.ChannelY), readoutTrap(event.ChannelY))
	require.True(t, IsDuplicateEventError(err))

	b, getErr := s.GetBlock(1)
	require.NoError(t, getErr)
	assert.NotNil(t, b.Grads[event.ChannelX], "failed replace must not clear the row")
	assert.Equal(t, gradEntries, s.gradLib.Size(), "failed call must not register events")
}

func TestSetBlock_RasterMisalignment(t *testing.T) {
	s := newTestSequence(t)

	offGrid := &event.Trap{Chan: event.ChannelX, Amplitude: 100, RiseTime: 13e-6, FlatTime: 100e-6, FallTime: 10e-6}
	err := s.AddBlock(offGrid)
	assert.True(t, IsTimingError(err), "trap rise time off the gradient raster")

	badADC := &event.ADC{NumSamples: 10, Dwell: 150e-9, Delay: 0}
	err = s.AddBlock(badADC)
	assert.True(t, IsTimingError(err), "adc dwell off the adc raster")

	badDelay := &event.Delay{Dur: 15e-6}
	err = s.AddBlock(badDelay)
	assert.True(t, IsTimingError(err), "delay off the block duration raster")

	rf := hardPulse(event.UseExcitation, 10)
	rf.Delay = 0.3e-6
	err = s.AddBlock(rf)
	assert.True(t, IsTimingError(err), "rf delay off the rf raster")
}

func TestSetBlock_RejectsForeignArbRaster(t *testing.T) {
	s := newTestSequence(t)

	// Reconstruction resamples waveforms on the system gradient raster,
	// which would silently change this event's duration.
	g := &event.Arb{
		Chan:       event.ChannelX,
		Amplitude:  500,
		Waveform:   []float64{0, 0.5, 1, 0.5, 0},
		RasterTime: 4e-6,
	}
	err := s.AddBlock(g)
	require.Error(t, err)
	assert.True(t, IsTimingError(err), "arb raster differing from the system raster")
	assert.Equal(t, 0, s.NumBlocks())
}

func TestBlockDuration_RoundsUpToRaster(t *testing.T) {
	s := newTestSequence(t)

	// 105 us trapezoid: 10 us block raster rounds the block up to 110 us.
	g := &event.Trap{Chan: event.ChannelX, Amplitude: 100, RiseTime: 20e-6, FlatTime: 70e-6, FallTime: 10e-6, Delay: 10e-6}
	require.NoError(t, s.AddBlock(g))

	b, err := s.GetBlock(1)
	require.NoError(t, err)
	assert.InDelta(t, 110e-6, b.Duration, 1e-12)
}

func TestBlockDuration_DerivedFromMaxEndTime(t *testing.T) {
	s := newTestSequence(t)
	require.NoError(t, s.AddBlock(
		readoutTrap(event.ChannelX), // 1000 us
		&event.Trap{Chan: event.ChannelY, Amplitude: 50, RiseTime: 10e-6, FlatTime: 10e-6, FallTime: 10e-6},
	))
	b, err := s.GetBlock(1)
	require.NoError(t, err)
	assert.InDelta(t, 1000e-6, b.Duration, 1e-12)
}

func TestLabelsAndTriggers_RoundTripInOrder(t *testing.T) {
	s := newTestSequence(t)

	trig := &event.Trigger{Type: event.TriggerOutput, Channel: 2, Delay: 10e-6, Dur: 50e-6}
	require.NoError(t, s.AddBlock(
		readoutADC(),
		&event.LabelSet{Label: event.LabelLIN, Value: 17},
		&event.LabelInc{Label: event.LabelREP, Value: 1},
		trig,
	))

	b, err := s.GetBlock(1)
	require.NoError(t, err)
	require.Len(t, b.Labels, 2)
	set, ok := b.Labels[0].(*event.LabelSet)
	require.True(t, ok, "labels come back in the order supplied")
	assert.Equal(t, event.LabelLIN, set.Label)
	assert.Equal(t, 17, set.Value)
	inc, ok := b.Labels[1].(*event.LabelInc)
	require.True(t, ok)
	assert.Equal(t, event.LabelREP, inc.Label)
	assert.Equal(t, 1, inc.Value)

	require.Len(t, b.Triggers, 1)
	assert.Equal(t, event.TriggerOutput, b.Triggers[0].Type)
	assert.Equal(t, 2, b.Triggers[0].Channel)
	assert.InDelta(t, 10e-6, b.Triggers[0].Delay, 1e-12)
	assert.InDelta(t, 50e-6, b.Triggers[0].Dur, 1e-12)
}

func TestLabelInc_OnFlagRejected(t *testing.T) {
	s := newTestSequence(t)
	err := s.AddBlock(&event.LabelInc{Label: event.LabelNAV, Value: 1})
	require.Error(t, err)
	assert.Equal(t, 0, s.NumBlocks())
}

func TestExtensionChains_Deduplicate(t *testing.T) {
	s := newTestSequence(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddBlock(
			readoutADC(),
			&event.LabelInc{Label: event.LabelLIN, Value: 1},
		))
	}
	// Identical chains collapse: one labelinc entry, one extension node.
	assert.Equal(t, 1, s.labelInc.Size())
	assert.Equal(t, 1, s.extLib.Size())
}
