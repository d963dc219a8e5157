// Package event defines the typed event variants a sequence block is built
// from: RF pulses, trapezoid and arbitrary gradients, ADC windows, delays,
// labels, and triggers.
//
// Each variant is a plain struct; the shared Event capability exposes the
// one thing block assembly needs from every kind, its duration. Events are
// value objects: the sequence registers their content into its libraries and
// never retains the structs themselves.
package event

import (
	"fmt"
	"math"
)

// Event is the capability shared by every block constituent.
type Event interface {
	// Duration returns the total time the event occupies from block
	// start, including its delay, in seconds.
	Duration() float64
}

// Channel identifies one of the three spatial gradient axes.
type Channel int

const (
	ChannelX Channel = iota
	ChannelY
	ChannelZ

	// NumChannels is the number of spatial gradient axes.
	NumChannels = 3
)

// ParseChannel maps "x", "y", "z" to a Channel.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "x":
		return ChannelX, nil
	case "y":
		return ChannelY, nil
	case "z":
		return ChannelZ, nil
	}
	return 0, fmt.Errorf("invalid gradient channel %q: must be one of x, y, z", s)
}

func (c Channel) String() string {
	switch c {
	case ChannelX:
		return "x"
	case ChannelY:
		return "y"
	case ChannelZ:
		return "z"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Gradient is the capability shared by the two gradient variants.
type Gradient interface {
	Event
	Channel() Channel
}

// Use classifies the purpose of an RF pulse. The k-space engine resets the
// trajectory after excitation pulses and negates it after refocusing pulses.
type Use string

const (
	UseUndefined   Use = "undefined"
	UseExcitation  Use = "excitation"
	UseRefocusing  Use = "refocusing"
	UseInversion   Use = "inversion"
	UseSaturation  Use = "saturation"
	UsePreparation Use = "preparation"
)

// useTags maps a Use to its single-character library type tag and back.
var useTags = map[Use]string{
	UseUndefined:   "u",
	UseExcitation:  "e",
	UseRefocusing:  "r",
	UseInversion:   "i",
	UseSaturation:  "s",
	UsePreparation: "p",
}

// Tag returns the single-character library tag for u.
func (u Use) Tag() string {
	if t, ok := useTags[u]; ok {
		return t
	}
	return useTags[UseUndefined]
}

// UseFromTag is the inverse of Use.Tag.
func UseFromTag(tag string) Use {
	for u, t := range useTags {
		if t == tag {
			return u
		}
	}
	return UseUndefined
}

// RF is a radio-frequency pulse.
//
// The envelope is stored factored: Amplitude in Hz scales the unit-peak
// Mag samples; Phase holds the per-sample phase in rotations (cycles).
// Time holds the sample moments relative to pulse start, aligned to the
// RF raster.
type RF struct {
	Amplitude    float64   // peak amplitude, Hz
	Mag          []float64 // unit-normalized magnitude envelope
	Phase        []float64 // phase per sample, rotations
	Time         []float64 // sample times from pulse start, seconds
	Delay        float64   // seconds from block start
	FreqOffset   float64   // Hz
	PhaseOffset  float64   // radians
	DeadTime     float64   // seconds, from system limits
	RingdownTime float64   // seconds, from system limits
	Use          Use
}

// Duration returns delay plus the envelope span. Ringdown is a block-level
// margin, not part of the pulse itself.
func (rf *RF) Duration() float64 {
	if len(rf.Time) == 0 {
		return rf.Delay
	}
	return rf.Delay + rf.Time[len(rf.Time)-1]
}

// Center returns the moment of peak envelope amplitude relative to pulse
// start (excluding delay). A plateau of peak samples yields its midpoint.
// This is the instant the k-space engine treats as the pulse's action time.
func (rf *RF) Center() float64 {
	if len(rf.Mag) == 0 || len(rf.Time) == 0 {
		return 0
	}
	peak := 0.0
	for _, m := range rf.Mag {
		if a := math.Abs(m); a > peak {
			peak = a
		}
	}
	first, last := -1, -1
	for i, m := range rf.Mag {
		if math.Abs(m) >= peak {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return (rf.Time[first] + rf.Time[last]) / 2
}

// Trap is a trapezoid gradient: linear ramp up, flat top, linear ramp down.
type Trap struct {
	Chan      Channel
	Amplitude float64 // Hz/m
	RiseTime  float64 // seconds
	FlatTime  float64 // seconds
	FallTime  float64 // seconds
	Delay     float64 // seconds from block start
}

func (t *Trap) Duration() float64 {
	return t.Delay + t.RiseTime + t.FlatTime + t.FallTime
}

func (t *Trap) Channel() Channel { return t.Chan }

// Area returns the integral of the trapezoid in 1/m.
func (t *Trap) Area() float64 {
	return t.Amplitude * (t.FlatTime + (t.RiseTime+t.FallTime)/2)
}

// Arb is an arbitrary gradient: one amplitude sample per gradient raster
// interval, scaled by Amplitude. First and Last record the waveform edge
// values used for continuity checks across blocks.
type Arb struct {
	Chan      Channel
	Amplitude float64   // peak amplitude, Hz/m
	Waveform  []float64 // unit-normalized samples on the gradient raster
	Delay     float64   // seconds from block start
	First     float64   // amplitude entering the block, Hz/m
	Last      float64   // amplitude leaving the block, Hz/m

	// RasterTime is the gradient raster the waveform is sampled on,
	// recorded at registration.
	RasterTime float64
}

func (a *Arb) Duration() float64 {
	return a.Delay + float64(len(a.Waveform))*a.RasterTime
}

func (a *Arb) Channel() Channel { return a.Chan }

// ADC is an analog-to-digital sampling window.
type ADC struct {
	NumSamples  int
	Dwell       float64 // seconds per sample, aligned to the ADC raster
	Delay       float64 // seconds from block start
	FreqOffset  float64 // Hz
	PhaseOffset float64 // radians
	DeadTime    float64 // seconds, from system limits
}

func (a *ADC) Duration() float64 {
	return a.Delay + float64(a.NumSamples)*a.Dwell
}

// SampleTimes returns the moments of each sample relative to block start.
// Samples sit at the center of their dwell interval, the half-dwell shift
// the scanner convention prescribes.
func (a *ADC) SampleTimes() []float64 {
	t := make([]float64, a.NumSamples)
	for i := range t {
		t[i] = a.Delay + (float64(i)+0.5)*a.Dwell
	}
	return t
}

// Delay is an explicit pure-delay event stretching the block.
type Delay struct {
	Dur float64 // seconds
}

func (d *Delay) Duration() float64 { return d.Dur }

// TriggerType distinguishes trigger flavors.
type TriggerType int

const (
	// TriggerOutput drives an output line (e.g. external hardware sync).
	TriggerOutput TriggerType = iota + 1
	// TriggerPhysio waits for a physiological input (e.g. cardiac gate).
	TriggerPhysio
)

// Trigger is a hardware synchronization event attached to a block through
// the extension list.
type Trigger struct {
	Type    TriggerType
	Channel int     // hardware channel index
	Delay   float64 // seconds from block start
	Dur     float64 // seconds the trigger is held
}

func (t *Trigger) Duration() float64 { return t.Delay + t.Dur }
