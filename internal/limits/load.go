package limits

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var limitsSchema string

// Load reads a limits file, dispatching on extension: .cue files are
// validated against the embedded schema, .yaml/.yml files are decoded
// directly. Fields absent from the file keep their Default() values.
func Load(path string) (Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("limits: read %s: %w", path, err)
	}
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		return FromCUE(data, path)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return Limits{}, fmt.Errorf("limits: unsupported file extension %q (want .cue, .yaml or .yml)", ext)
	}
}

// FromYAML decodes limits from YAML on top of the defaults.
func FromYAML(data []byte) (Limits, error) {
	l := Default()
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Limits{}, fmt.Errorf("limits: decode yaml: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Limits{}, err
	}
	return l, nil
}

// FromCUE compiles a CUE document, unifies it with the embedded schema and
// the defaults, and decodes the result. Schema violations surface as CUE
// validation errors with file positions.
func FromCUE(data []byte, filename string) (Limits, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(limitsSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Limits{}, fmt.Errorf("limits: internal schema: %w", err)
	}

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return Limits{}, fmt.Errorf("limits: compile %s: %w", filename, err)
	}

	// The schema constrains the document and supplies defaults for any
	// field the file leaves unset.
	merged := schema.Unify(doc)
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return Limits{}, fmt.Errorf("limits: validate %s: %w", filename, err)
	}

	var l Limits
	if err := merged.Decode(&l); err != nil {
		return Limits{}, fmt.Errorf("limits: decode %s: %w", filename, err)
	}
	if err := l.Validate(); err != nil {
		return Limits{}, err
	}
	return l, nil
}
