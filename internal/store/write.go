package store

import (
	"context"
	"fmt"

	"github.com/seqforge/seqforge/internal/seq"
)

// Save archives the sequence, inserting a new row or replacing the existing
// one for the same sequence ID. Returns the content hash of the stored
// snapshot.
//
// Saving the same sequence state twice is idempotent: the replacement row
// carries the same snapshot bytes and hash.
func (s *Store) Save(ctx context.Context, sq *seq.Sequence) (string, error) {
	hash, data, err := encodeSnapshot(sq.Snapshot())
	if err != nil {
		return "", fmt.Errorf("save sequence: %w", err)
	}
	total, numBlocks, _ := sq.Duration()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sequences (id, content_hash, snapshot, num_blocks, duration_s)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content_hash = excluded.content_hash,
			snapshot     = excluded.snapshot,
			num_blocks   = excluded.num_blocks,
			duration_s   = excluded.duration_s,
			updated_at   = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`,
		sq.ID().String(),
		hash,
		string(data),
		numBlocks,
		total,
	)
	if err != nil {
		return "", fmt.Errorf("save sequence: %w", err)
	}

	return hash, nil
}

// Delete removes a sequence from the archive.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sequences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sequence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sequence: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
