package seq

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/seqforge/seqforge/internal/canon"
	"github.com/seqforge/seqforge/internal/eventlib"
	"github.com/seqforge/seqforge/internal/limits"
)

// Snapshot is the serialization-boundary view of a sequence: everything an
// external writer needs and nothing it does not. Payloads appear exactly as
// stored, compressed shapes included, so a snapshot written and read back
// reproduces identical dedup keys and block references.
type Snapshot struct {
	ID             string
	Limits         limits.Limits
	Definitions    map[string]any
	ExtensionTypes []ExtensionType
	Libraries      []LibrarySnapshot
	Blocks         []BlockRowSnapshot
}

// LibrarySnapshot is the full content of one event library.
type LibrarySnapshot struct {
	Kind    string
	Entries []EntrySnapshot
}

// EntrySnapshot is one library entry.
type EntrySnapshot struct {
	ID   int
	Tag  string
	Data []float64
}

// ExtensionType binds a numeric extension type ID to its string.
type ExtensionType struct {
	ID   int
	Name string
}

// BlockRowSnapshot is one block table row: library references plus the
// cached duration in block-duration-raster units.
type BlockRowSnapshot struct {
	Delay, RF, Gx, Gy, Gz, ADC, Ext int
	DurationUnits                   int64
}

// snapshotKinds fixes the library order in snapshots.
var snapshotKinds = []string{
	kindShape, kindRF, kindGrad, kindADC, kindDelay,
	kindTrigger, kindLabelSet, kindLabelInc, kindExtension,
}

func (s *Sequence) libFor(kind string) *eventlib.Library {
	switch kind {
	case kindShape:
		return s.shapeLib
	case kindRF:
		return s.rfLib
	case kindGrad:
		return s.gradLib
	case kindADC:
		return s.adcLib
	case kindDelay:
		return s.delayLib
	case kindTrigger:
		return s.triggerLib
	case kindLabelSet:
		return s.labelSet
	case kindLabelInc:
		return s.labelInc
	case kindExtension:
		return s.extLib
	}
	return nil
}

// Snapshot exports the sequence for serialization or archival.
func (s *Sequence) Snapshot() *Snapshot {
	snap := &Snapshot{
		ID:          s.id.String(),
		Limits:      s.sys,
		Definitions: make(map[string]any, len(s.definitions)),
	}
	for k, v := range s.definitions {
		snap.Definitions[k] = v
	}
	for id, name := range s.extTypeNames {
		snap.ExtensionTypes = append(snap.ExtensionTypes, ExtensionType{ID: id, Name: name})
	}
	// Deterministic order for golden files and hashing.
	sort.Slice(snap.ExtensionTypes, func(i, j int) bool {
		return snap.ExtensionTypes[i].ID < snap.ExtensionTypes[j].ID
	})

	for _, kind := range snapshotKinds {
		lib := s.libFor(kind)
		ls := LibrarySnapshot{Kind: kind}
		for _, id := range lib.IDs() {
			e, _ := lib.Lookup(id)
			data := make([]float64, len(e.Data))
			copy(data, e.Data)
			ls.Entries = append(ls.Entries, EntrySnapshot{ID: e.ID, Tag: e.Tag, Data: data})
		}
		snap.Libraries = append(snap.Libraries, ls)
	}

	for _, row := range s.blocks {
		snap.Blocks = append(snap.Blocks, BlockRowSnapshot{
			Delay: row.Delay, RF: row.RF,
			Gx: row.Grad[0], Gy: row.Grad[1], Gz: row.Grad[2],
			ADC: row.ADC, Ext: row.Ext,
			DurationUnits: row.durationUnits,
		})
	}
	return snap
}

// CanonicalJSON renders the snapshot in the canonical encoding, suitable
// for golden comparison and content hashing. Definition values must be
// strings, ints, float64s or []float64.
func (snap *Snapshot) CanonicalJSON() ([]byte, error) {
	libs := make([]any, len(snap.Libraries))
	for i, ls := range snap.Libraries {
		entries := make([]any, len(ls.Entries))
		for j, e := range ls.Entries {
			entries[j] = map[string]any{
				"id":   e.ID,
				"tag":  e.Tag,
				"data": e.Data,
			}
		}
		libs[i] = map[string]any{
			"kind":    ls.Kind,
			"entries": entries,
		}
	}

	blocks := make([]any, len(snap.Blocks))
	for i, b := range snap.Blocks {
		blocks[i] = map[string]any{
			"delay":          b.Delay,
			"rf":             b.RF,
			"gx":             b.Gx,
			"gy":             b.Gy,
			"gz":             b.Gz,
			"adc":            b.ADC,
			"ext":            b.Ext,
			"duration_units": b.DurationUnits,
		}
	}

	extTypes := make([]any, len(snap.ExtensionTypes))
	for i, et := range snap.ExtensionTypes {
		extTypes[i] = map[string]any{"id": et.ID, "name": et.Name}
	}

	defs := make(map[string]any, len(snap.Definitions))
	for k, v := range snap.Definitions {
		defs[k] = v
	}

	return canon.Marshal(map[string]any{
		"id":          snap.ID,
		"limits":      limitsMap(snap.Limits),
		"definitions": defs,
		"ext_types":   extTypes,
		"libraries":   libs,
		"blocks":      blocks,
	})
}

func limitsMap(l limits.Limits) map[string]any {
	return map[string]any{
		"rf_raster_time":        l.RFRasterTime,
		"grad_raster_time":      l.GradRasterTime,
		"adc_raster_time":       l.ADCRasterTime,
		"block_duration_raster": l.BlockDurationRaster,
		"rf_dead_time":          l.RFDeadTime,
		"rf_ringdown_time":      l.RFRingdownTime,
		"adc_dead_time":         l.ADCDeadTime,
		"eps":                   l.Eps,
	}
}

// FromSnapshot rebuilds a sequence from its exported form. Library IDs,
// block references, durations, definitions, and the sequence identity all
// survive, so re-exporting yields a canonically identical snapshot.
func FromSnapshot(snap *Snapshot) (*Sequence, error) {
	if err := snap.Limits.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return nil, fmt.Errorf("seq: snapshot id: %w", err)
	}
	s, err := New(snap.Limits)
	if err != nil {
		return nil, err
	}
	s.id = id

	for k, v := range snap.Definitions {
		s.definitions[k] = v
	}
	for _, et := range snap.ExtensionTypes {
		if err := s.SetExtensionTypeID(et.Name, et.ID); err != nil {
			return nil, err
		}
	}
	for _, ls := range snap.Libraries {
		lib := s.libFor(ls.Kind)
		if lib == nil {
			return nil, fmt.Errorf("seq: snapshot has unknown library kind %q", ls.Kind)
		}
		for _, e := range ls.Entries {
			if err := lib.InsertAt(e.ID, e.Tag, e.Data); err != nil {
				return nil, err
			}
		}
	}

	for i, b := range snap.Blocks {
		row := blockRow{
			Delay: b.Delay, RF: b.RF,
			Grad:          [3]int{b.Gx, b.Gy, b.Gz},
			ADC:           b.ADC,
			Ext:           b.Ext,
			durationUnits: b.DurationUnits,
		}
		if err := s.checkRowRefs(i+1, row); err != nil {
			return nil, err
		}
		s.blocks = append(s.blocks, row)
	}
	return s, nil
}

// checkRowRefs verifies the invariant that every ID stored in a block row
// exists in the corresponding library.
func (s *Sequence) checkRowRefs(index int, row blockRow) error {
	check := func(lib *eventlib.Library, id int) error {
		if id == 0 {
			return nil
		}
		if _, err := lib.Lookup(id); err != nil {
			return fmt.Errorf("seq: block %d: %w", index, err)
		}
		return nil
	}
	if err := check(s.delayLib, row.Delay); err != nil {
		return err
	}
	if err := check(s.rfLib, row.RF); err != nil {
		return err
	}
	for _, id := range row.Grad {
		if err := check(s.gradLib, id); err != nil {
			return err
		}
	}
	if err := check(s.adcLib, row.ADC); err != nil {
		return err
	}
	return check(s.extLib, row.Ext)
}
