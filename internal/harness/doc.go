// Package harness provides a declarative conformance framework for sequence
// assembly.
//
// Scenarios are YAML documents describing blocks of events plus expectations
// about the assembled sequence (block count, duration, timing validity,
// library dedup counts). The harness builds the sequence through the public
// API and evaluates the expectations, so a scenario exercises the same code
// paths an author would.
//
// Golden scenarios additionally pin the canonical snapshot bytes, which
// catches accidental format drift in the encoder, the libraries, or the
// block table.
package harness
