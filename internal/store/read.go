package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amberlab/amber/internal/tree"
)

// ErrNotFound is returned when no snapshot matches a lookup.
var ErrNotFound = errors.New("snapshot not found")

// Get returns the snapshot record with the given id.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, error) {
	return s.getBy(ctx, "id", id)
}

// GetByDigest returns the snapshot record with the given content digest.
func (s *Store) GetByDigest(ctx context.Context, digest string) (Snapshot, error) {
	return s.getBy(ctx, "digest", digest)
}

func (s *Store) getBy(ctx context.Context, column, value string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, label, digest, format, version, created_at
		FROM snapshots
		WHERE %s = ?
	`, column), value)

	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.Label, &snap.Digest, &snap.Format, &snap.Version, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// LoadTree returns the encoded tree stored under id.
func (s *Store) LoadTree(ctx context.Context, id string) (*tree.Tree, error) {
	row := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE id = ?`, id)

	var body string
	err := row.Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var t tree.Tree
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return &t, nil
}

// List returns all snapshots, optionally filtered by label. Results
// are ordered deterministically by creation time then id.
func (s *Store) List(ctx context.Context, label string) ([]Snapshot, error) {
	query := `
		SELECT id, label, digest, format, version, created_at
		FROM snapshots
	`
	var args []any
	if label != "" {
		query += ` WHERE label = ?`
		args = append(args, label)
	}
	query += ` ORDER BY created_at ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Label, &snap.Digest, &snap.Format, &snap.Version, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}
