package seq

import (
	"fmt"

	"github.com/seqforge/seqforge/internal/event"
)

// ModGradAxis scales every gradient event used on one spatial axis by
// modifier, in place, across the whole sequence. A modifier of -1 inverts
// the axis.
//
// Because gradients are deduplicated, an entry referenced from more than
// one axis cannot be scaled for one axis alone; that case fails with a
// cross-axis reuse error and leaves the library unmodified.
func (s *Sequence) ModGradAxis(ch event.Channel, modifier float64) error {
	if ch < 0 || ch >= event.NumChannels {
		return fmt.Errorf("seq: invalid gradient channel %d", int(ch))
	}

	selected := make(map[int]bool)
	others := make(map[int]bool)
	for _, row := range s.blocks {
		for c, id := range row.Grad {
			if id == 0 {
				continue
			}
			if event.Channel(c) == ch {
				selected[id] = true
			} else {
				others[id] = true
			}
		}
	}
	for id := range selected {
		if others[id] {
			return &BuildError{
				Code: ErrCodeCrossAxisReuse,
				Message: fmt.Sprintf(
					"gradient event %d is used on axis %s and another axis; scaling one axis would corrupt the other",
					id, ch),
				Channel: ch,
			}
		}
	}

	for id := range selected {
		e, err := s.gradLib.Lookup(id)
		if err != nil {
			return err
		}
		data := make([]float64, len(e.Data))
		copy(data, e.Data)
		data[0] *= modifier
		if e.Tag == gradTagArb {
			// Arbitrary gradients also carry their edge amplitudes.
			data[3] *= modifier
			data[4] *= modifier
		}
		if err := s.gradLib.Update(id, data); err != nil {
			return err
		}
	}
	return nil
}

// FlipGradAxis inverts all gradients on one axis.
func (s *Sequence) FlipGradAxis(ch event.Channel) error {
	return s.ModGradAxis(ch, -1)
}
