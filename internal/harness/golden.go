package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden builds the scenario and compares its canonical snapshot
// against testdata/golden/<name>.golden. The scenario must pin an ID or the
// snapshot bytes would differ on every run.
//
// Regenerate golden files with: go test -update ./...
func RunWithGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	if sc.ID == "" {
		t.Fatalf("scenario %s: golden scenarios must pin an id", sc.Name)
	}

	sq, err := Build(sc)
	if err != nil {
		t.Fatalf("scenario %s: build failed: %v", sc.Name, err)
	}
	data, err := sq.Snapshot().CanonicalJSON()
	if err != nil {
		t.Fatalf("scenario %s: canonical encoding failed: %v", sc.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)
}
