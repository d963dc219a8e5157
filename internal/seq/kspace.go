package seq

import (
	"log/slog"
	"math"

	"github.com/seqforge/seqforge/internal/event"
)

// suspiciousTrajectoryDelay is the advisory threshold for reconstruction
// delay compensation. Larger magnitudes are almost always a unit mistake.
const suspiciousTrajectoryDelay = 100e-6

// Kspace holds the k-space trajectory of a sequence.
type Kspace struct {
	// AtADC is the trajectory interpolated at the ADC sample times,
	// one row per gradient axis.
	AtADC [event.NumChannels][]float64
	// Traj is the full trajectory on the gradient raster.
	Traj [event.NumChannels][]float64
	// Excitation and Refocusing hold the absolute center times of the
	// corresponding RF pulses.
	Excitation []float64
	Refocusing []float64
	// ADCTimes holds the absolute sample moments AtADC was evaluated at.
	ADCTimes []float64
}

// CalculateKspace integrates the gradient waveforms into the k-space
// trajectory of the whole sequence.
//
// The running k vector is reset to zero at each excitation pulse's center
// and negated at each refocusing pulse's center (the spin-echo sign
// convention); pulses with undefined use count as excitations. The ADC
// trajectory is linearly interpolated from the rastered one at sample
// times shifted by half a dwell plus trajectoryDelay.
//
// A |trajectoryDelay| above 100 us is suspicious; it is logged as a
// warning and the computation proceeds.
func (s *Sequence) CalculateKspace(trajectoryDelay float64) (*Kspace, error) {
	if math.Abs(trajectoryDelay) > suspiciousTrajectoryDelay {
		slog.Warn("trajectory delay is suspiciously large",
			"delay_us", trajectoryDelay*1e6)
	}

	k := &Kspace{}
	raster := s.sys.GradRasterTime

	// First pass: collect RF center moments and ADC sample times.
	current := 0.0
	for i := 1; i <= len(s.blocks); i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			return nil, err
		}
		if rf := b.RF; rf != nil {
			t := current + rf.Delay + rf.Center()
			switch rf.Use {
			case event.UseRefocusing:
				k.Refocusing = append(k.Refocusing, t)
			case event.UseExcitation, event.UseUndefined:
				k.Excitation = append(k.Excitation, t)
			}
		}
		if adc := b.ADC; adc != nil {
			for _, t := range adc.SampleTimes() {
				k.ADCTimes = append(k.ADCTimes, current+t+trajectoryDelay)
			}
		}
		current += b.Duration
	}

	gw, err := s.GradientWaveforms()
	if err != nil {
		return nil, err
	}
	n := len(gw[0])

	// Raster indices at which the running vector resets or flips.
	excAt := make(map[int]bool, len(k.Excitation))
	for _, t := range k.Excitation {
		excAt[int(math.Round(t/raster))] = true
	}
	refAt := make(map[int]bool, len(k.Refocusing))
	for _, t := range k.Refocusing {
		refAt[int(math.Round(t/raster))] = true
	}

	var run [event.NumChannels]float64
	for c := range k.Traj {
		k.Traj[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if excAt[i] {
			for c := range run {
				run[c] = 0
			}
		}
		if refAt[i] {
			for c := range run {
				run[c] = -run[c]
			}
		}
		for c := range run {
			run[c] += gw[c][i] * raster
			k.Traj[c][i] = run[c]
		}
	}

	// Trajectory sample i sits at the end of raster interval i.
	tg := make([]float64, n)
	for i := range tg {
		tg[i] = float64(i+1) * raster
	}
	for c := range k.AtADC {
		k.AtADC[c] = make([]float64, len(k.ADCTimes))
		for j, t := range k.ADCTimes {
			if n == 0 {
				break
			}
			k.AtADC[c][j] = interpolate(tg, k.Traj[c], t)
		}
	}
	return k, nil
}
