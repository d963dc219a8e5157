package seq

import (
	"errors"
	"fmt"
	"math"

	"github.com/seqforge/seqforge/internal/event"
)

// CheckTiming validates every block against the system limits and returns
// whether the sequence is clean plus a report with one entry per violation.
// All violations are collected; the scan never stops at the first problem.
// As a side effect the TotalDuration definition is updated.
//
// Checked per block: the stored duration against the duration implied by
// the block's events, raster alignment of every event (rows restored from a
// snapshot never went through block assembly), RF dead-time and ringdown
// margins, ADC dead-time margins on both sides of the sampling window, and,
// for the final block, that gradients return to zero amplitude.
func (s *Sequence) CheckTiming() (bool, []string) {
	var report []string
	eps := s.sys.Eps
	total := 0.0

	for i := 1; i <= len(s.blocks); i++ {
		b, err := s.GetBlock(i)
		if err != nil {
			// A broken library reference is a structural defect, but the
			// scan semantics still demand a full report.
			report = append(report, fmt.Sprintf("block %d: %v", i, err))
			continue
		}
		duration := b.Duration
		total += duration

		implied := s.impliedDuration(b)
		if s.durationUnitsFor(implied) != s.blocks[i-1].durationUnits {
			report = append(report, fmt.Sprintf(
				"block %d: stored duration %g s does not match duration %g s implied by its events",
				i, duration, implied))
		}

		if err := s.checkRasters(i, &groupedEvents{
			rf: b.RF, grads: b.Grads, adc: b.ADC, delay: b.Delay,
		}); err != nil {
			var be *BuildError
			if errors.As(err, &be) {
				report = append(report, fmt.Sprintf("block %d: %s", i, be.Message))
			} else {
				report = append(report, fmt.Sprintf("block %d: %v", i, err))
			}
		}

		if rf := b.RF; rf != nil {
			if rf.Delay-s.sys.RFDeadTime < -eps {
				report = append(report, fmt.Sprintf(
					"block %d: rf delay %g s is smaller than the rf dead time %g s",
					i, rf.Delay, s.sys.RFDeadTime))
			}
			if rf.Duration()+s.sys.RFRingdownTime-duration > eps {
				report = append(report, fmt.Sprintf(
					"block %d: rf ends at %g s, leaving less than the ringdown time %g s before block end %g s",
					i, rf.Duration(), s.sys.RFRingdownTime, duration))
			}
		}

		if adc := b.ADC; adc != nil {
			if adc.Delay-s.sys.ADCDeadTime < -eps {
				report = append(report, fmt.Sprintf(
					"block %d: adc delay %g s is smaller than the adc dead time %g s",
					i, adc.Delay, s.sys.ADCDeadTime))
			}
			if adc.Duration()+s.sys.ADCDeadTime-duration > eps {
				report = append(report, fmt.Sprintf(
					"block %d: adc window ends at %g s, leaving less than the dead time %g s before block end %g s",
					i, adc.Duration(), s.sys.ADCDeadTime, duration))
			}
		}

		if i == len(s.blocks) {
			for _, g := range b.Grads {
				if arb, ok := g.(*event.Arb); ok && math.Abs(arb.Last) > eps {
					report = append(report, fmt.Sprintf(
						"block %d: gradient %s does not ramp to 0 at the end of the sequence",
						i, arb.Chan))
				}
			}
		}
	}

	s.SetDefinition(DefTotalDuration, total)
	return len(report) == 0, report
}

// impliedDuration recomputes a block's duration from its reconstructed
// events, including the RF ringdown and post-ADC dead-time margins the
// assembler accounts for.
func (s *Sequence) impliedDuration(b Block) float64 {
	max := 0.0
	extend := func(end float64) {
		if end > max {
			max = end
		}
	}
	if b.RF != nil {
		extend(b.RF.Duration() + s.sys.RFRingdownTime)
	}
	for _, g := range b.Grads {
		if g != nil {
			extend(g.Duration())
		}
	}
	if b.ADC != nil {
		extend(b.ADC.Duration() + s.sys.ADCDeadTime)
	}
	if b.Delay != nil {
		extend(b.Delay.Dur)
	}
	for _, t := range b.Triggers {
		extend(t.Duration())
	}
	return max
}
