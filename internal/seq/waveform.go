package seq

import (
	"fmt"
	"math"

	"github.com/seqforge/seqforge/internal/event"
)

// GradientWaveforms reconstructs the dense gradient waveform of the whole
// sequence on the uniform gradient raster, one row per spatial axis.
//
// Each block's contribution is placed at its raster-rounded time offset:
// trapezoids are expanded to a ramp-flat-ramp polyline and midpoint-sampled
// onto the raster, arbitrary gradients are copied verbatim. The output
// grows if a block's placement exceeds the current bounds; it is never
// truncated. Sub-raster residual offsets are rounded away.
func (s *Sequence) GradientWaveforms() ([event.NumChannels][]float64, error) {
	var out [event.NumChannels][]float64

	total, numBlocks, _ := s.Duration()
	raster := s.sys.GradRasterTime
	length := int(math.Ceil(total / raster))
	for c := range out {
		out[c] = make([]float64, length)
	}

	place := func(c int, start int, wf []float64) {
		if need := start + len(wf); need > len(out[0]) {
			for ch := range out {
				grown := make([]float64, need)
				copy(grown, out[ch])
				out[ch] = grown
			}
		}
		copy(out[c][start:], wf)
	}

	t0 := 0.0
	t0n := 0
	for i := 1; i <= numBlocks; i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			return out, err
		}
		for c, g := range b.Grads {
			if g == nil {
				continue
			}
			switch g := g.(type) {
			case *event.Arb:
				wf := make([]float64, len(g.Waveform))
				for k, v := range g.Waveform {
					wf[k] = g.Amplitude * v
				}
				ntStart := int(math.Round(g.Delay / raster))
				place(c, t0n+ntStart, wf)
			case *event.Trap:
				if math.Abs(g.Amplitude) <= s.sys.Eps {
					continue
				}
				var times, amps []float64
				if math.Abs(g.FlatTime) > s.sys.Eps {
					times = cumsum(0, g.RiseTime, g.FlatTime, g.FallTime)
					amps = []float64{0, g.Amplitude, g.Amplitude, 0}
				} else {
					times = cumsum(0, g.RiseTime, g.FallTime)
					amps = []float64{0, g.Amplitude, 0}
				}
				wf := pointsToWaveform(times, amps, raster)
				ntStart := int(math.Round(g.Delay / raster))
				place(c, t0n+ntStart, wf)
			}
		}
		t0 += b.Duration
		t0n = int(math.Round(t0 / raster))
	}

	for c := range out {
		for _, v := range out[c] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return out, fmt.Errorf("seq: gradient waveform on axis %s contains non-finite samples", event.Channel(c))
			}
		}
	}
	return out, nil
}

// pointsToWaveform samples the polyline (times, amplitudes) onto the
// gradient raster: output sample k holds the linear interpolation at the
// midpoint of raster interval k.
func pointsToWaveform(times, amplitudes []float64, raster float64) []float64 {
	n := int(math.Round(times[len(times)-1] / raster))
	out := make([]float64, n)
	for k := range out {
		t := (float64(k) + 0.5) * raster
		out[k] = interpolate(times, amplitudes, t)
	}
	return out
}

// interpolate evaluates piecewise-linear (xs, ys) at x, clamping outside
// the support. xs must be non-decreasing.
func interpolate(xs, ys []float64, x float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	// Find the segment with xs[j] <= x < xs[j+1].
	lo, hi := 0, len(xs)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	span := xs[hi] - xs[lo]
	if span <= 0 {
		return ys[lo]
	}
	frac := (x - xs[lo]) / span
	return ys[lo] + frac*(ys[hi]-ys[lo])
}

func cumsum(vs ...float64) []float64 {
	out := make([]float64, len(vs))
	acc := 0.0
	for i, v := range vs {
		acc += v
		out[i] = acc
	}
	return out
}
