// Package shape implements the compressed waveform encoding of the open MR
// sequence format.
//
// A shape is a 1-D numeric waveform stored as its first sample followed by
// run-length encoded first differences. A run of identical differences is
// written as the difference twice, then the count of additional repetitions.
// The decoder recognizes two consecutive equal values as that signal, so the
// count never collides with waveform data.
package shape

import (
	"fmt"
	"math"
)

// Compressed is the derivative run-length encoding of a waveform.
// NumSamples records the decompressed length; Data holds the encoded stream.
type Compressed struct {
	NumSamples int
	Data       []float64
}

// MalformedShapeError reports an encoded stream that does not resolve to the
// declared sample count.
type MalformedShapeError struct {
	Want int // declared sample count
	Got  int // samples the stream actually resolves to
	Pos  int // index into Data where decoding stopped
}

func (e *MalformedShapeError) Error() string {
	return fmt.Sprintf("malformed shape: encoded stream resolves to %d samples, declared %d (at data index %d)",
		e.Got, e.Want, e.Pos)
}

// Compress encodes samples as a derivative run-length stream.
//
// The encoding is canonical: maximal constant runs are always collapsed, so
// compressing a decompressed shape reproduces the same stream. The output is
// never required to be minimal, only losslessly decodable; a run of exactly
// two differences costs three encoded values, as the wire format prescribes.
func Compress(samples []float64) Compressed {
	c := Compressed{NumSamples: len(samples)}
	if len(samples) == 0 {
		return c
	}

	// Derivative: first sample verbatim, then successive differences.
	deriv := make([]float64, len(samples))
	deriv[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		deriv[i] = samples[i] - samples[i-1]
	}

	data := make([]float64, 0, len(deriv))
	for i := 0; i < len(deriv); {
		run := 1
		for i+run < len(deriv) && deriv[i+run] == deriv[i] {
			run++
		}
		if run == 1 {
			data = append(data, deriv[i])
		} else {
			data = append(data, deriv[i], deriv[i], float64(run-2))
		}
		i += run
	}
	c.Data = data
	return c
}

// Decompress reconstructs the waveform from its encoded form.
// It returns exactly c.NumSamples values or a *MalformedShapeError.
func Decompress(c Compressed) ([]float64, error) {
	deriv := make([]float64, 0, c.NumSamples)
	i := 0
	for i < len(c.Data) {
		v := c.Data[i]
		if i+1 < len(c.Data) && c.Data[i+1] == v {
			if i+2 >= len(c.Data) {
				return nil, &MalformedShapeError{Want: c.NumSamples, Got: len(deriv) + 2, Pos: i + 2}
			}
			count := c.Data[i+2]
			if count < 0 || count != math.Trunc(count) {
				return nil, &MalformedShapeError{Want: c.NumSamples, Got: len(deriv), Pos: i + 2}
			}
			total := int(count) + 2
			for k := 0; k < total; k++ {
				deriv = append(deriv, v)
			}
			i += 3
		} else {
			deriv = append(deriv, v)
			i++
		}
		if len(deriv) > c.NumSamples {
			return nil, &MalformedShapeError{Want: c.NumSamples, Got: len(deriv), Pos: i}
		}
	}
	if len(deriv) != c.NumSamples {
		return nil, &MalformedShapeError{Want: c.NumSamples, Got: len(deriv), Pos: len(c.Data)}
	}

	// Integrate the derivative back into samples.
	out := make([]float64, len(deriv))
	var acc float64
	for i, d := range deriv {
		acc += d
		out[i] = acc
	}
	return out, nil
}
