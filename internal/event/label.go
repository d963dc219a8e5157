package event

import "fmt"

// Label names the data counters and flags the scanner interpreter tracks per
// block. Counters support both set and increment operations; flags support
// set only.
type Label string

// Data counters. Copied to the matching acquisition header fields; valid
// for both LabelSet and LabelInc.
const (
	LabelSLC Label = "SLC" // slice (or slab) counter
	LabelSEG Label = "SEG" // segment counter, e.g. segmented EPI
	LabelREP Label = "REP" // repetition counter
	LabelAVG Label = "AVG" // averaging counter
	LabelSET Label = "SET" // flexible counter without firm assignment
	LabelECO Label = "ECO" // echo counter in multi-echo sequences
	LabelPHS Label = "PHS" // cardiac phase counter
	LabelLIN Label = "LIN" // line counter
	LabelPAR Label = "PAR" // partition counter (3D through-slab encoding)
	LabelACQ Label = "ACQ" // spectroscopic acquisition counter

	// TRID marks the beginning of a repeatable module (e.g. one TR).
	// A counter like the above, but numbered after the flags.
	LabelTRID Label = "TRID"
)

// Data and control flags. Valid for LabelSet only.
const (
	LabelNAV   Label = "NAV"   // navigator data
	LabelREV   Label = "REV"   // reversed readout direction
	LabelSMS   Label = "SMS"   // simultaneous multi-slice acquisition
	LabelREF   Label = "REF"   // parallel-imaging reference data
	LabelIMA   Label = "IMA"   // imaging data within the ACS region
	LabelOFF   Label = "OFF"   // exclude from online reconstruction
	LabelNOISE Label = "NOISE" // noise adjust scan
	LabelPMC   Label = "PMC"   // prospective motion correction candidate
	LabelNOROT Label = "NOROT" // ignore FOV rotation
	LabelNOPOS Label = "NOPOS" // ignore FOV position
	LabelNOSCL Label = "NOSCL" // ignore FOV scaling
	LabelONCE  Label = "ONCE"  // 0: every repetition, 1: first only, 2: last only
)

// SupportedLabels lists every label in its format-defined order; the index
// into this slice is the numeric label ID stored in the label libraries.
var SupportedLabels = []Label{
	LabelSLC, LabelSEG, LabelREP, LabelAVG, LabelSET,
	LabelECO, LabelPHS, LabelLIN, LabelPAR, LabelACQ,
	LabelNAV, LabelREV, LabelSMS, LabelREF, LabelIMA,
	LabelOFF, LabelNOISE,
	LabelPMC, LabelNOROT, LabelNOPOS, LabelNOSCL, LabelONCE,
	LabelTRID,
}

var labelIndex = func() map[Label]int {
	m := make(map[Label]int, len(SupportedLabels))
	for i, l := range SupportedLabels {
		m[l] = i
	}
	return m
}()

var flagLabels = map[Label]bool{
	LabelNAV: true, LabelREV: true, LabelSMS: true, LabelREF: true,
	LabelIMA: true, LabelOFF: true, LabelNOISE: true,
	LabelPMC: true, LabelNOROT: true, LabelNOPOS: true,
	LabelNOSCL: true, LabelONCE: true,
}

// ID returns the numeric label ID, or an error for an unsupported label.
func (l Label) ID() (int, error) {
	id, ok := labelIndex[l]
	if !ok {
		return 0, fmt.Errorf("unsupported label %q", l)
	}
	return id, nil
}

// LabelByID is the inverse of Label.ID.
func LabelByID(id int) (Label, error) {
	if id < 0 || id >= len(SupportedLabels) {
		return "", fmt.Errorf("unknown label id %d", id)
	}
	return SupportedLabels[id], nil
}

// IsFlag reports whether l is a flag (set-only) rather than a counter.
func (l Label) IsFlag() bool { return flagLabels[l] }

// LabelSet assigns an absolute value to a label for the current and all
// following blocks until changed again.
type LabelSet struct {
	Label Label
	Value int
}

// Duration is zero: labels occupy no time within a block.
func (l *LabelSet) Duration() float64 { return 0 }

// LabelInc increments a counter label. Increments on flag labels are
// rejected at block assembly; the format forbids them.
type LabelInc struct {
	Label Label
	Value int
}

func (l *LabelInc) Duration() float64 { return 0 }

// NewLabel validates and builds a label event. op is "SET" or "INC".
// INC on a flag label is an error.
func NewLabel(label Label, op string, value int) (Event, error) {
	if _, err := label.ID(); err != nil {
		return nil, err
	}
	switch op {
	case "SET":
		return &LabelSet{Label: label, Value: value}, nil
	case "INC":
		if label.IsFlag() {
			return nil, fmt.Errorf("label %s is a flag: increment is not allowed, use SET", label)
		}
		return &LabelInc{Label: label, Value: value}, nil
	}
	return nil, fmt.Errorf("invalid label operation %q: must be SET or INC", op)
}
