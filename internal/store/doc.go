// Package store provides the durable sequence archive.
//
// Sequences are stored as canonical-JSON snapshots in SQLite, keyed by the
// sequence UUID and content-addressed by a domain-separated hash of the
// snapshot bytes. The hash is verified on load, so silent corruption of the
// archive surfaces as an error instead of a subtly wrong sequence.
package store
