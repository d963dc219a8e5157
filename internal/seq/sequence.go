package seq

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/seqforge/seqforge/internal/event"
	"github.com/seqforge/seqforge/internal/eventlib"
	"github.com/seqforge/seqforge/internal/limits"
)

// Library kinds. One eventlib.Library instance exists per kind.
const (
	kindRF        = "rf"
	kindGrad      = "grad"
	kindADC       = "adc"
	kindDelay     = "delay"
	kindTrigger   = "trigger"
	kindLabelSet  = "labelset"
	kindLabelInc  = "labelinc"
	kindExtension = "extensions"
	kindShape     = "shape"
)

// Extension type strings registered in the extension registry.
const (
	ExtLabelSet = "LABELSET"
	ExtLabelInc = "LABELINC"
	ExtTriggers = "TRIGGERS"
)

// Definition keys seeded at construction.
const (
	DefADCRasterTime       = "AdcRasterTime"
	DefBlockDurationRaster = "BlockDurationRaster"
	DefGradRasterTime      = "GradientRasterTime"
	DefRFRasterTime        = "RadiofrequencyRasterTime"
	DefTotalDuration       = "TotalDuration"
)

// blockRow is one row of the event table: integer references into the
// libraries, one slot per event kind, plus the cached duration in
// block-duration-raster units. A zero reference means "no event".
type blockRow struct {
	Delay int
	RF    int
	Grad  [event.NumChannels]int
	ADC   int
	Ext   int

	durationUnits int64
}

// Sequence is the aggregate sequence object: event libraries, the ordered
// block table, the definitions mapping, and the system limits fixed at
// construction.
//
// Sequence is not safe for concurrent use.
type Sequence struct {
	id  uuid.UUID
	sys limits.Limits

	rfLib      *eventlib.Library
	gradLib    *eventlib.Library
	adcLib     *eventlib.Library
	delayLib   *eventlib.Library
	triggerLib *eventlib.Library
	labelSet   *eventlib.Library
	labelInc   *eventlib.Library
	extLib     *eventlib.Library
	shapeLib   *eventlib.Library

	blocks      []blockRow
	definitions map[string]any

	// Extension type registry: numeric IDs for extension type strings.
	extTypeIDs   map[string]int
	extTypeNames map[int]string
}

// New creates an empty sequence governed by the given system limits.
// Raster-time definitions are seeded from the limits; the sequence is
// assigned a fresh time-ordered UUID identity.
func New(sys limits.Limits) (*Sequence, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("seq: generate id: %w", err)
	}
	s := &Sequence{
		id:           id,
		sys:          sys,
		rfLib:        eventlib.New(kindRF, sys.Eps),
		gradLib:      eventlib.New(kindGrad, sys.Eps),
		adcLib:       eventlib.New(kindADC, sys.Eps),
		delayLib:     eventlib.New(kindDelay, sys.Eps),
		triggerLib:   eventlib.New(kindTrigger, sys.Eps),
		labelSet:     eventlib.New(kindLabelSet, sys.Eps),
		labelInc:     eventlib.New(kindLabelInc, sys.Eps),
		extLib:       eventlib.New(kindExtension, sys.Eps),
		shapeLib:     eventlib.New(kindShape, sys.Eps),
		definitions:  make(map[string]any),
		extTypeIDs:   make(map[string]int),
		extTypeNames: make(map[int]string),
	}
	s.SetDefinition(DefADCRasterTime, sys.ADCRasterTime)
	s.SetDefinition(DefBlockDurationRaster, sys.BlockDurationRaster)
	s.SetDefinition(DefGradRasterTime, sys.GradRasterTime)
	s.SetDefinition(DefRFRasterTime, sys.RFRasterTime)
	return s, nil
}

// ID returns the sequence identity assigned at construction.
func (s *Sequence) ID() uuid.UUID { return s.id }

// System returns the limits the sequence was built against.
func (s *Sequence) System() limits.Limits { return s.sys }

// NumBlocks returns the block table size.
func (s *Sequence) NumBlocks() int { return len(s.blocks) }

// BlockDurations returns the cached per-block durations in seconds, one
// entry per block in table order.
func (s *Sequence) BlockDurations() []float64 {
	out := make([]float64, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = float64(b.durationUnits) * s.sys.BlockDurationRaster
	}
	return out
}

// Duration returns the total sequence duration in seconds (the sum of the
// per-block durations), the block count, and per-slot event counts in row
// order: delay, RF, gx, gy, gz, ADC, extensions.
func (s *Sequence) Duration() (total float64, numBlocks int, eventCounts [7]int) {
	for _, b := range s.blocks {
		total += float64(b.durationUnits) * s.sys.BlockDurationRaster
		slots := [7]int{b.Delay, b.RF, b.Grad[0], b.Grad[1], b.Grad[2], b.ADC, b.Ext}
		for i, id := range slots {
			if id > 0 {
				eventCounts[i]++
			}
		}
	}
	return total, len(s.blocks), eventCounts
}

// SetDefinition sets the user definition key to value, creating it if
// absent. Values must be a string, int, float64 or []float64 so that the
// canonical snapshot stays encodable.
func (s *Sequence) SetDefinition(key string, value any) {
	if key == "FOV" {
		if v, ok := value.([]float64); ok {
			for _, x := range v {
				if x > 1 {
					slog.Warn("definition FOV uses values exceeding 1 m; interpreters expect meters",
						"value", v)
					break
				}
			}
		}
	}
	s.definitions[key] = value
}

// Definition returns the value for key and whether it is defined.
func (s *Sequence) Definition(key string) (any, bool) {
	v, ok := s.definitions[key]
	return v, ok
}

// Definitions returns a copy of all definitions.
func (s *Sequence) Definitions() map[string]any {
	out := make(map[string]any, len(s.definitions))
	for k, v := range s.definitions {
		out[k] = v
	}
	return out
}

// ExtensionTypeID returns the numeric ID for an extension type string,
// allocating the next free ID on first use.
func (s *Sequence) ExtensionTypeID(name string) int {
	if id, ok := s.extTypeIDs[name]; ok {
		return id
	}
	id := 1
	for existing := range s.extTypeNames {
		if existing >= id {
			id = existing + 1
		}
	}
	s.extTypeIDs[name] = id
	s.extTypeNames[id] = name
	return id
}

// ExtensionTypeString returns the string for a numeric extension type ID.
func (s *Sequence) ExtensionTypeString(id int) (string, error) {
	name, ok := s.extTypeNames[id]
	if !ok {
		return "", fmt.Errorf("seq: extension type id %d is unknown", id)
	}
	return name, nil
}

// SetExtensionTypeID binds a string to a numeric extension type ID, as when
// rebuilding from a snapshot. Both must be unused.
func (s *Sequence) SetExtensionTypeID(name string, id int) error {
	if _, ok := s.extTypeIDs[name]; ok {
		return fmt.Errorf("seq: extension type string %q already registered", name)
	}
	if _, ok := s.extTypeNames[id]; ok {
		return fmt.Errorf("seq: extension type id %d already registered", id)
	}
	s.extTypeIDs[name] = id
	s.extTypeNames[id] = name
	return nil
}

// alignedTo reports whether t sits on the raster grid within eps.
func alignedTo(t, raster, eps float64) bool {
	n := math.Round(t / raster)
	return math.Abs(t-n*raster) <= eps
}

// durationUnitsFor rounds a duration in seconds up to the next whole number
// of block-duration-raster units. Values already on the grid (within eps)
// do not round up.
func (s *Sequence) durationUnitsFor(d float64) int64 {
	if d <= 0 {
		return 0
	}
	raster := s.sys.BlockDurationRaster
	return int64(math.Ceil(d/raster - s.sys.Eps/raster))
}
