package harness

import "fmt"

// Result is the outcome of one scenario run.
type Result struct {
	// Pass indicates that every expectation held.
	Pass bool `json:"pass"`

	// Errors lists the expectations that failed.
	Errors []string `json:"errors,omitempty"`

	// Blocks and Duration summarize the assembled sequence.
	Blocks   int     `json:"blocks"`
	Duration float64 `json:"duration_s"`

	// TimingReport carries the timing check output, one line per
	// violation; empty when the sequence is clean.
	TimingReport []string `json:"timing_report,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failed expectation and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
