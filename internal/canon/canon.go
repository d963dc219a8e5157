// Package canon provides the canonical byte encoding and domain-separated
// hashing used for content-addressed identity throughout seqforge.
//
// Event deduplication, snapshot golden files, and the archive all depend on
// one property: the same logical value always encodes to the same bytes.
// The encoding therefore sorts object keys, NFC-normalizes strings, and
// renders floats only after quantization to the configured tolerance grid.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent    = "seqforge/event/v1"
	DomainSnapshot = "seqforge/snapshot/v1"
)

// Hash computes a SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte separator prevents
// domain/data boundary ambiguity.
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Quantize rounds v to the nearest multiple of eps.
// Zero or negative eps returns v unchanged.
func Quantize(v, eps float64) float64 {
	if eps <= 0 {
		return v
	}
	q := math.Round(v/eps) * eps
	if q == 0 {
		// Normalize -0 so that -0 and +0 share one key.
		return 0
	}
	return q
}

// QuantizeVec quantizes every element of v into a fresh slice.
func QuantizeVec(v []float64, eps float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = Quantize(x, eps)
	}
	return out
}

// Marshal produces the canonical JSON form of v.
//
// Differences from encoding/json:
//  1. Object keys sorted lexicographically by byte value
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats render via the shortest round-trip representation; callers
//     hashing float data must quantize first (Quantize / QuantizeVec)
//  5. null is forbidden (returns an error)
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshal(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshal(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical encoding")
	case string:
		return marshalString(buf, val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case float64:
		return marshalFloat(buf, val)
	case []float64:
		buf.WriteByte('[')
		for i, x := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalFloat(buf, x); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case []int:
		buf.WriteByte('[')
		for i, x := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(x))
		}
		buf.WriteByte(']')
		return nil
	case []string:
		buf.WriteByte('[')
		for i, s := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalString(buf, s); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshal(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		return marshalObject(buf, val)
	default:
		return fmt.Errorf("unsupported type for canonical encoding: %T", v)
	}
}

func marshalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite float is forbidden in canonical encoding: %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		// Integral floats render without an exponent or decimal point so
		// that 2 and 2.0 share one encoding.
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func marshalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)
	enc, err := jsonStringNoEscape(normalized)
	if err != nil {
		return err
	}
	buf.Write(enc)
	return nil
}

// jsonStringNoEscape encodes a string as JSON without HTML escaping.
func jsonStringNoEscape(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	// Encoder appends a trailing newline.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalObject(buf *bytes.Buffer, obj map[string]any) error {
	type pair struct {
		norm, orig string
	}
	pairs := make([]pair, 0, len(obj))
	for k := range obj {
		pairs = append(pairs, pair{norm: norm.NFC.String(k), orig: k})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].norm < pairs[j].norm })

	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalString(buf, p.orig); err != nil {
			return fmt.Errorf("object key %q: %w", p.orig, err)
		}
		buf.WriteByte(':')
		if err := marshal(buf, obj[p.orig]); err != nil {
			return fmt.Errorf("object[%q]: %w", p.orig, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
