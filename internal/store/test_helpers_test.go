package store

import (
	"path/filepath"
	"testing"

	"github.com/seqforge/seqforge/internal/event"
	"github.com/seqforge/seqforge/internal/limits"
	"github.com/seqforge/seqforge/internal/seq"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSequence builds a small spin-echo-like sequence with an RF
// pulse, gradients, an ADC window and a label so every library kind that
// matters for archival is exercised.
func createTestSequence(t *testing.T) *seq.Sequence {
	t.Helper()
	sq, err := seq.New(limits.Default())
	if err != nil {
		t.Fatalf("seq.New() failed: %v", err)
	}

	rf := &event.RF{
		Amplitude: 250,
		Mag:       make([]float64, 100),
		Phase:     make([]float64, 100),
		Time:      make([]float64, 100),
		Use:       event.UseExcitation,
	}
	for i := range rf.Mag {
		rf.Mag[i] = 1
		rf.Time[i] = (float64(i) + 0.5) * 1e-6
	}
	if err := sq.AddBlock(rf); err != nil {
		t.Fatalf("AddBlock(rf) failed: %v", err)
	}

	readout := &event.Trap{
		Chan: event.ChannelX, Amplitude: 1000,
		RiseTime: 100e-6, FlatTime: 800e-6, FallTime: 100e-6,
	}
	adc := &event.ADC{NumSamples: 80, Dwell: 10e-6, Delay: 100e-6}
	label := &event.LabelInc{Label: event.LabelLIN, Value: 1}
	if err := sq.AddBlock(readout, adc, label); err != nil {
		t.Fatalf("AddBlock(readout) failed: %v", err)
	}

	sq.SetDefinition("FOV", []float64{0.25, 0.25, 0.005})
	sq.SetDefinition("Name", "archive-test")
	return sq
}

// canonicalBytes renders a sequence to its canonical snapshot form.
func canonicalBytes(t *testing.T, sq *seq.Sequence) string {
	t.Helper()
	data, err := sq.Snapshot().CanonicalJSON()
	if err != nil {
		t.Fatalf("CanonicalJSON() failed: %v", err)
	}
	return string(data)
}
