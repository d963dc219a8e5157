// Package limits defines the hardware system limits a sequence is built
// against: raster times, dead times, and the numeric tolerance.
//
// A Limits value is assembled once (defaults, YAML, or CUE) and threaded
// into every component at construction. Nothing in seqforge reads ambient
// global configuration.
package limits

import "fmt"

// Limits holds scanner timing constraints. All times are in seconds.
type Limits struct {
	// RFRasterTime is the quantization grid for RF envelope samples.
	RFRasterTime float64 `json:"rf_raster_time" yaml:"rf_raster_time"`
	// GradRasterTime is the quantization grid for gradient waveforms.
	GradRasterTime float64 `json:"grad_raster_time" yaml:"grad_raster_time"`
	// ADCRasterTime is the quantization grid for the ADC dwell time.
	ADCRasterTime float64 `json:"adc_raster_time" yaml:"adc_raster_time"`
	// BlockDurationRaster is the grid block durations must align to.
	BlockDurationRaster float64 `json:"block_duration_raster" yaml:"block_duration_raster"`
	// RFDeadTime is the mandatory quiet margin before an RF pulse.
	RFDeadTime float64 `json:"rf_dead_time" yaml:"rf_dead_time"`
	// RFRingdownTime is the mandatory quiet margin after an RF pulse.
	RFRingdownTime float64 `json:"rf_ringdown_time" yaml:"rf_ringdown_time"`
	// ADCDeadTime is the quiet margin required on both sides of a
	// sampling window.
	ADCDeadTime float64 `json:"adc_dead_time" yaml:"adc_dead_time"`
	// Eps is the process-wide float tolerance used for deduplication
	// keys and timing comparisons.
	Eps float64 `json:"eps" yaml:"eps"`
}

// Default returns the standard limits: 1 us RF raster, 10 us gradient and
// block-duration rasters, 100 ns ADC raster, zero dead times, 1 ns tolerance.
func Default() Limits {
	return Limits{
		RFRasterTime:        1e-6,
		GradRasterTime:      10e-6,
		ADCRasterTime:       100e-9,
		BlockDurationRaster: 10e-6,
		RFDeadTime:          0,
		RFRingdownTime:      0,
		ADCDeadTime:         0,
		Eps:                 1e-9,
	}
}

// Validate checks internal consistency. Rasters and eps must be positive,
// dead times non-negative.
func (l Limits) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"rf_raster_time", l.RFRasterTime},
		{"grad_raster_time", l.GradRasterTime},
		{"adc_raster_time", l.ADCRasterTime},
		{"block_duration_raster", l.BlockDurationRaster},
		{"eps", l.Eps},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("limits: %s must be positive, got %g", p.name, p.v)
		}
	}
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"rf_dead_time", l.RFDeadTime},
		{"rf_ringdown_time", l.RFRingdownTime},
		{"adc_dead_time", l.ADCDeadTime},
	}
	for _, p := range nonNegative {
		if p.v < 0 {
			return fmt.Errorf("limits: %s must be non-negative, got %g", p.name, p.v)
		}
	}
	return nil
}
