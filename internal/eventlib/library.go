// Package eventlib implements the deduplicating event store underlying every
// event kind in a sequence (RF, gradients, ADC, delays, triggers, labels,
// extensions, shapes).
//
// A Library maps dense positive integer IDs to raw numeric payloads and keeps
// a reverse content index so that inserting the same payload twice returns
// the same ID. Sequences routinely repeat a handful of distinct events across
// tens of thousands of blocks; the library stores each distinct event once
// and blocks hold only integer references.
package eventlib

import (
	"fmt"
	"sort"

	"github.com/seqforge/seqforge/internal/canon"
)

// Entry is one stored event payload.
//
// Tag distinguishes structural variants sharing a kind, e.g. trapezoid ("t")
// versus arbitrary ("g") gradients. Data layout is kind-specific.
type Entry struct {
	ID   int
	Tag  string
	Data []float64
}

// UnknownEventError reports a lookup of an ID the library never assigned.
type UnknownEventError struct {
	Kind string
	ID   int
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown %s event: id %d not in library", e.Kind, e.ID)
}

// Library is a content-addressed store for one event kind.
//
// IDs are assigned densely starting at 1 and never reused. The library
// exclusively owns entry storage; callers hold integer references only.
// Not safe for concurrent use; a Sequence owns its libraries exclusively.
type Library struct {
	kind    string
	eps     float64
	entries map[int]Entry
	index   map[string]int // content hash -> id
	maxID   int
}

// New creates an empty library for one event kind. eps is the tolerance grid
// used to quantize float payloads before content hashing, so two payloads
// that agree within eps share one ID.
func New(kind string, eps float64) *Library {
	return &Library{
		kind:    kind,
		eps:     eps,
		entries: make(map[int]Entry),
		index:   make(map[string]int),
	}
}

// Kind returns the event kind this library stores.
func (l *Library) Kind() string { return l.kind }

// Insert deduplicates data against existing entries and returns its ID.
// A payload already present (same tag, same data within eps) returns the
// existing ID; otherwise the next unused ID is allocated. Insert never
// mutates existing entries.
func (l *Library) Insert(tag string, data []float64) int {
	key := l.contentKey(tag, data)
	if id, ok := l.index[key]; ok {
		return id
	}
	id := l.maxID + 1
	l.store(id, tag, data, key)
	return id
}

// InsertAt stores data under a caller-chosen ID, used when rebuilding a
// library from a snapshot so that block rows keep their references.
// It returns an error if the ID is already taken by different content.
func (l *Library) InsertAt(id int, tag string, data []float64) error {
	if id <= 0 {
		return fmt.Errorf("%s library: invalid id %d", l.kind, id)
	}
	key := l.contentKey(tag, data)
	if existing, ok := l.entries[id]; ok {
		if l.contentKey(existing.Tag, existing.Data) != key {
			return fmt.Errorf("%s library: id %d already holds different content", l.kind, id)
		}
		return nil
	}
	l.store(id, tag, data, key)
	return nil
}

func (l *Library) store(id int, tag string, data []float64, key string) {
	stored := make([]float64, len(data))
	copy(stored, data)
	l.entries[id] = Entry{ID: id, Tag: tag, Data: stored}
	l.index[key] = id
	if id > l.maxID {
		l.maxID = id
	}
}

// Lookup returns the entry for id. The returned Data must be treated as
// read-only; it aliases library storage.
func (l *Library) Lookup(id int) (Entry, error) {
	e, ok := l.entries[id]
	if !ok {
		return Entry{}, &UnknownEventError{Kind: l.kind, ID: id}
	}
	return e, nil
}

// Size returns the count of distinct entries.
func (l *Library) Size() int { return len(l.entries) }

// IDs returns all assigned IDs in ascending order.
func (l *Library) IDs() []int {
	ids := make([]int, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Update replaces the payload of an existing entry in place, reindexing its
// content key. It exists solely for whole-axis gradient scaling, which must
// mutate shared storage; every other path is additive.
func (l *Library) Update(id int, data []float64) error {
	e, ok := l.entries[id]
	if !ok {
		return &UnknownEventError{Kind: l.kind, ID: id}
	}
	// During a whole-axis rewrite two entries can pass through the same
	// content: only drop the old key while it still points at this entry,
	// or the mapping another Update just wrote would be lost.
	oldKey := l.contentKey(e.Tag, e.Data)
	if l.index[oldKey] == id {
		delete(l.index, oldKey)
	}
	l.store(id, e.Tag, data, l.contentKey(e.Tag, data))
	return nil
}

func (l *Library) contentKey(tag string, data []float64) string {
	payload, err := canon.Marshal(map[string]any{
		"kind": l.kind,
		"tag":  tag,
		"data": canon.QuantizeVec(data, l.eps),
	})
	if err != nil {
		// Payloads are kind-tagged float vectors; the canonical encoder
		// rejects only non-finite values, which no valid event carries.
		panic(fmt.Sprintf("eventlib: content key for %s: %v", l.kind, err))
	}
	return canon.Hash(canon.DomainEvent, payload)
}
