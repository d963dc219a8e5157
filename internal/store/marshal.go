package store

import (
	"encoding/json"
	"fmt"

	"github.com/seqforge/seqforge/internal/canon"
	"github.com/seqforge/seqforge/internal/limits"
	"github.com/seqforge/seqforge/internal/seq"
)

// encodeSnapshot renders a snapshot to its canonical bytes and the
// domain-separated content hash over them.
func encodeSnapshot(snap *seq.Snapshot) (hash string, data []byte, err error) {
	data, err = snap.CanonicalJSON()
	if err != nil {
		return "", nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return canon.Hash(canon.DomainSnapshot, data), data, nil
}

// The decode documents mirror the canonical snapshot layout. Field tags
// must match the keys CanonicalJSON emits.
type snapshotDoc struct {
	ID          string         `json:"id"`
	Limits      limits.Limits  `json:"limits"`
	Definitions map[string]any `json:"definitions"`
	ExtTypes    []extTypeDoc   `json:"ext_types"`
	Libraries   []libraryDoc   `json:"libraries"`
	Blocks      []blockRowDoc  `json:"blocks"`
}

type extTypeDoc struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type libraryDoc struct {
	Kind    string     `json:"kind"`
	Entries []entryDoc `json:"entries"`
}

type entryDoc struct {
	ID   int       `json:"id"`
	Tag  string    `json:"tag"`
	Data []float64 `json:"data"`
}

type blockRowDoc struct {
	Delay         int   `json:"delay"`
	RF            int   `json:"rf"`
	Gx            int   `json:"gx"`
	Gy            int   `json:"gy"`
	Gz            int   `json:"gz"`
	ADC           int   `json:"adc"`
	Ext           int   `json:"ext"`
	DurationUnits int64 `json:"duration_units"`
}

// decodeSnapshot parses stored canonical bytes back into a snapshot.
func decodeSnapshot(data []byte) (*seq.Snapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	snap := &seq.Snapshot{
		ID:          doc.ID,
		Limits:      doc.Limits,
		Definitions: make(map[string]any, len(doc.Definitions)),
	}
	for k, v := range doc.Definitions {
		snap.Definitions[k] = normalizeDefinition(v)
	}
	for _, et := range doc.ExtTypes {
		snap.ExtensionTypes = append(snap.ExtensionTypes, seq.ExtensionType{ID: et.ID, Name: et.Name})
	}
	for _, lib := range doc.Libraries {
		ls := seq.LibrarySnapshot{Kind: lib.Kind}
		for _, e := range lib.Entries {
			ls.Entries = append(ls.Entries, seq.EntrySnapshot{ID: e.ID, Tag: e.Tag, Data: e.Data})
		}
		snap.Libraries = append(snap.Libraries, ls)
	}
	for _, b := range doc.Blocks {
		snap.Blocks = append(snap.Blocks, seq.BlockRowSnapshot{
			Delay: b.Delay, RF: b.RF,
			Gx: b.Gx, Gy: b.Gy, Gz: b.Gz,
			ADC: b.ADC, Ext: b.Ext,
			DurationUnits: b.DurationUnits,
		})
	}
	return snap, nil
}

// normalizeDefinition maps generic JSON values onto the types the canonical
// encoder accepts, so a decoded snapshot re-encodes to identical bytes.
// Numeric arrays come back as []any and must become []float64.
func normalizeDefinition(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]float64, len(arr))
	for i, elem := range arr {
		f, ok := elem.(float64)
		if !ok {
			return v
		}
		out[i] = f
	}
	return out
}
