package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/seqforge/seqforge/internal/limits"
)

// Scenario defines one conformance scenario: the blocks to assemble and the
// expectations on the result.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// ID optionally pins the sequence UUID so snapshots are deterministic.
	// Required for golden scenarios.
	ID string `yaml:"id,omitempty"`

	// Limits overrides the default system limits when set.
	Limits *limits.Limits `yaml:"limits,omitempty"`

	// Blocks lists the blocks to assemble, in order.
	Blocks []BlockSpec `yaml:"blocks"`

	// Expect holds the assertions evaluated after assembly.
	Expect ExpectSpec `yaml:"expect,omitempty"`
}

// BlockSpec describes the events of one block. Every field is optional;
// an empty spec produces an empty zero-duration block row.
type BlockSpec struct {
	RF       *RFSpec       `yaml:"rf,omitempty"`
	Grads    []GradSpec    `yaml:"grads,omitempty"`
	ADC      *ADCSpec      `yaml:"adc,omitempty"`
	Delay    *float64      `yaml:"delay,omitempty"`
	Labels   []LabelSpec   `yaml:"labels,omitempty"`
	Triggers []TriggerSpec `yaml:"triggers,omitempty"`
}

// RFSpec describes a constant-envelope pulse on the default RF raster.
// Scenarios assemble and archive sequences, they do not design pulses, so a
// hard pulse of the given sample count is all the harness supports.
type RFSpec struct {
	Use         string  `yaml:"use"` // excitation | refocusing | inversion | ...
	Amplitude   float64 `yaml:"amplitude"`
	Samples     int     `yaml:"samples"`
	Delay       float64 `yaml:"delay,omitempty"`
	FreqOffset  float64 `yaml:"freq_offset,omitempty"`
	PhaseOffset float64 `yaml:"phase_offset,omitempty"`
}

// GradSpec describes a gradient event on one axis.
type GradSpec struct {
	Channel   string  `yaml:"channel"` // x | y | z
	Type      string  `yaml:"type"`    // trap | arb
	Amplitude float64 `yaml:"amplitude"`
	Delay     float64 `yaml:"delay,omitempty"`

	// Trapezoid timing.
	Rise float64 `yaml:"rise,omitempty"`
	Flat float64 `yaml:"flat,omitempty"`
	Fall float64 `yaml:"fall,omitempty"`

	// Arbitrary waveform, unit peak, on the gradient raster.
	Waveform []float64 `yaml:"waveform,omitempty"`
	First    float64   `yaml:"first,omitempty"`
	Last     float64   `yaml:"last,omitempty"`
}

// ADCSpec describes a readout window.
type ADCSpec struct {
	Samples     int     `yaml:"samples"`
	Dwell       float64 `yaml:"dwell"`
	Delay       float64 `yaml:"delay,omitempty"`
	FreqOffset  float64 `yaml:"freq_offset,omitempty"`
	PhaseOffset float64 `yaml:"phase_offset,omitempty"`
}

// LabelSpec describes a label operation.
type LabelSpec struct {
	Op    string `yaml:"op"` // set | inc
	Label string `yaml:"label"`
	Value int    `yaml:"value"`
}

// TriggerSpec describes a trigger event.
type TriggerSpec struct {
	Type     string  `yaml:"type"` // output | physio
	Channel  int     `yaml:"channel"`
	Delay    float64 `yaml:"delay,omitempty"`
	Duration float64 `yaml:"duration"`
}

// ExpectSpec holds the assertions of a scenario. Nil fields are skipped.
type ExpectSpec struct {
	Blocks         *int           `yaml:"blocks,omitempty"`
	DurationS      *float64       `yaml:"duration_s,omitempty"`
	TimingOK       *bool          `yaml:"timing_ok,omitempty"`
	LibraryEntries map[string]int `yaml:"library_entries,omitempty"`
}

// LoadScenario parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("load scenario %s: name is required", path)
	}
	if len(sc.Blocks) == 0 {
		return nil, fmt.Errorf("load scenario %s: at least one block is required", path)
	}
	return &sc, nil
}

// LoadScenarioDir loads every *.yaml scenario under dir, sorted by filename.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	sort.Strings(paths)

	var out []*Scenario
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
