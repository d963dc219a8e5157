package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seqforge/seqforge/internal/canon"
	"github.com/seqforge/seqforge/internal/seq"
)

// Meta is the archive-level view of one stored sequence.
type Meta struct {
	ID          string
	ContentHash string
	NumBlocks   int
	Duration    float64 // seconds
	CreatedAt   string
	UpdatedAt   string
}

// Load rebuilds a sequence from its archived snapshot.
//
// The stored content hash is verified against the snapshot bytes before
// decoding; a mismatch means the archive row was corrupted or tampered
// with and is returned as an error.
func (s *Store) Load(ctx context.Context, id string) (*seq.Sequence, error) {
	var hash, snapshot string
	err := s.db.QueryRowContext(ctx, `
		SELECT content_hash, snapshot FROM sequences WHERE id = ?
	`, id).Scan(&hash, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load sequence: %w", err)
	}

	if got := canon.Hash(canon.DomainSnapshot, []byte(snapshot)); got != hash {
		return nil, fmt.Errorf("load sequence %s: content hash mismatch: stored %s, computed %s",
			id, hash, got)
	}

	snap, err := decodeSnapshot([]byte(snapshot))
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", id, err)
	}
	sq, err := seq.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("load sequence %s: %w", id, err)
	}
	return sq, nil
}

// List returns metadata for every archived sequence, oldest first.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_hash, num_blocks, duration_s, created_at, updated_at
		FROM sequences
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.ID, &m.ContentHash, &m.NumBlocks, &m.Duration, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list sequences: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	return out, nil
}
