package harness

import (
	"github.com/seqforge/seqforge/internal/seq"
)

// Run builds the scenario's sequence and evaluates its expectations.
// A build failure (invalid events, raster violations, duplicate slots) is
// returned as an error; expectation mismatches are reported in the Result.
func Run(sc *Scenario) (*Result, error) {
	sq, err := Build(sc)
	if err != nil {
		return nil, err
	}
	return evaluate(sc, sq), nil
}

func evaluate(sc *Scenario, sq *seq.Sequence) *Result {
	result := NewResult()

	total, numBlocks, _ := sq.Duration()
	result.Blocks = numBlocks
	result.Duration = total

	ok, report := sq.CheckTiming()
	result.TimingReport = report

	expect := sc.Expect
	if expect.Blocks != nil && numBlocks != *expect.Blocks {
		result.AddError("blocks: got %d, expected %d", numBlocks, *expect.Blocks)
	}
	if expect.DurationS != nil && !within(total, *expect.DurationS, durationTolerance) {
		result.AddError("duration: got %g s, expected %g s", total, *expect.DurationS)
	}
	if expect.TimingOK != nil && ok != *expect.TimingOK {
		result.AddError("timing_ok: got %v, expected %v (report: %v)", ok, *expect.TimingOK, report)
	}
	if len(expect.LibraryEntries) > 0 {
		counts := libraryCounts(sq)
		for kind, want := range expect.LibraryEntries {
			if got, known := counts[kind]; !known {
				result.AddError("library_entries: unknown kind %q", kind)
			} else if got != want {
				result.AddError("library_entries[%s]: got %d, expected %d", kind, got, want)
			}
		}
	}
	return result
}

// durationTolerance absorbs float accumulation across block sums.
const durationTolerance = 1e-9

func within(got, want, tol float64) bool {
	d := got - want
	return d <= tol && d >= -tol
}

// libraryCounts reads per-kind entry counts off the snapshot, the only
// place library composition is exposed.
func libraryCounts(sq *seq.Sequence) map[string]int {
	snap := sq.Snapshot()
	out := make(map[string]int, len(snap.Libraries))
	for _, lib := range snap.Libraries {
		out[lib.Kind] = len(lib.Entries)
	}
	return out
}
