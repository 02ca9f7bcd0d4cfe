package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/amberlab/amber/internal/tree"
)

// Snapshot describes one stored encoded tree.
type Snapshot struct {
	ID        string
	Label     string
	Digest    string
	Format    string
	Version   int
	CreatedAt string
}

// Save persists an encoded tree under a label and returns its snapshot
// record. Saves are idempotent by content: storing a tree whose digest
// already exists returns the existing snapshot and writes nothing.
// In that case the returned record keeps the label it was first saved
// under; the label argument is ignored. Callers that care can compare
// the returned Label against the one they passed.
func (s *Store) Save(ctx context.Context, label string, t *tree.Tree) (Snapshot, error) {
	digest, err := tree.Digest(t)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	body, err := json.Marshal(t)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, label, digest, format, version, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, id, label, digest, t.Format, t.Version, string(body))
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	// The insert may have been a no-op; read back by digest so the
	// caller always sees the canonical record.
	return s.getBy(ctx, "digest", digest)
}

// Delete removes a snapshot by id. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
