package seq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqforge/seqforge/internal/event"
)

func TestModGradAxis_ScalesEveryUse(t *testing.T) {
	s := newTestSequence(t)
	require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX)))
	require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX)))

	require.NoError(t, s.ModGradAxis(event.ChannelX, 0.5))

	for i := 1; i <= 2; i++ {
		b, err := s.GetBlock(i)
		require.NoError(t, err)
		g := b.Grads[event.ChannelX].(*event.Trap)
		assert.InDelta(t, 500, g.Amplitude, 1e-9, "block %d", i)
	}
}

func TestFlipGradAxis_InvertsArbEdges(t *testing.T) {
	s := newTestSequence(t)
	g := &event.Arb{
		Chan:       event.ChannelZ,
		Amplitude:  800,
		Waveform:   []float64{0.5, 1, 0.5, 0},
		First:      400,
		Last:       0,
		RasterTime: 10e-6,
	}
	require.NoError(t, s.AddBlock(g))

	require.NoError(t, s.FlipGradAxis(event.ChannelZ))

	b, err := s.GetBlock(1)
	require.NoError(t, err)
	got := b.Grads[event.ChannelZ].(*event.Arb)
	assert.InDelta(t, -800, got.Amplitude, 1e-9)
	assert.InDelta(t, -400, got.First, 1e-9)
	assert.InDelta(t, 0, got.Last, 1e-9)
}

func TestFlipGradAxis_SwappedAmplitudesStillDeduplicate(t *testing.T) {
	s := newTestSequence(t)
	pos := readoutTrap(event.ChannelX)
	neg := readoutTrap(event.ChannelX)
	neg.Amplitude = -neg.Amplitude
	require.NoError(t, s.AddBlock(pos))
	require.NoError(t, s.AddBlock(neg))
	require.Equal(t, 2, s.gradLib.Size())

	// The flip swaps the two entries' contents; later inserts of either
	// polarity must still land on the existing entries.
	require.NoError(t, s.FlipGradAxis(event.ChannelX))
	require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX)))

	assert.Equal(t, 2, s.gradLib.Size())
	b, err := s.GetBlock(3)
	require.NoError(t, err)
	assert.InDelta(t, 1000, b.Grads[event.ChannelX].(*event.Trap).Amplitude, 1e-9)
}

func TestModGradAxis_RejectsCrossAxisReuse(t *testing.T) {
	s := newTestSequence(t)
	// Identical parameters deduplicate to one entry referenced on x and y.
	require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX), readoutTrap(event.ChannelY)))
	require.Equal(t, 1, s.gradLib.Size())

	err := s.ModGradAxis(event.ChannelX, -1)
	require.True(t, IsCrossAxisReuseError(err))

	// The rejection happens before any mutation.
	b, getErr := s.GetBlock(1)
	require.NoError(t, getErr)
	assert.InDelta(t, 1000, b.Grads[event.ChannelX].(*event.Trap).Amplitude, 1e-9)
	assert.InDelta(t, 1000, b.Grads[event.ChannelY].(*event.Trap).Amplitude, 1e-9)
}

func TestModGradAxis_OtherAxesUntouched(t *testing.T) {
	s := newTestSequence(t)
	gy := readoutTrap(event.ChannelY)
	gy.Amplitude = 700
	require.NoError(t, s.AddBlock(readoutTrap(event.ChannelX), gy))

	require.NoError(t, s.ModGradAxis(event.ChannelX, 2))

	b, err := s.GetBlock(1)
	require.NoError(t, err)
	assert.InDelta(t, 2000, b.Grads[event.ChannelX].(*event.Trap).Amplitude, 1e-9)
	assert.InDelta(t, 700, b.Grads[event.ChannelY].(*event.Trap).Amplitude, 1e-9)
}

func TestModGradAxis_InvalidChannel(t *testing.T) {
	s := newTestSequence(t)
	assert.Error(t, s.ModGradAxis(event.Channel(7), -1))
}
