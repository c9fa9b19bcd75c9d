package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotStore handles database operations for score snapshots.
// Snapshots are append-only: they are never updated or deleted here.
type SnapshotStore struct {
	db *DB
}

var _ SnapshotRepository = (*SnapshotStore)(nil)

func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (r *SnapshotStore) RecordSnapshot(snapshot Snapshot) error {
	_, err := r.db.Exec(`
		INSERT INTO score_snapshots (id, article_id, score, comment_count, rank, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), snapshot.ArticleID, snapshot.Score, snapshot.CommentCount,
		snapshot.Rank, snapshot.CapturedAt)

	if err != nil {
		return fmt.Errorf("failed to record snapshot for article %d: %w", snapshot.ArticleID, err)
	}

	return nil
}

func (r *SnapshotStore) GetSnapshotHistory(articleID int64, since time.Time) ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, article_id, score, comment_count, rank, captured_at
		FROM score_snapshots
		WHERE article_id = ? AND captured_at >= ?
		ORDER BY captured_at
	`, articleID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot history: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetSnapshotsSince returns all snapshots captured at or after the given
// time, grouped by article and ordered by capture time within each group
func (r *SnapshotStore) GetSnapshotsSince(since time.Time) ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, article_id, score, comment_count, rank, captured_at
		FROM score_snapshots
		WHERE captured_at >= ?
		ORDER BY article_id, captured_at
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (r *SnapshotStore) GetSnapshotCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM score_snapshots`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		var rank sql.NullInt64

		err := rows.Scan(&s.ID, &s.ArticleID, &s.Score, &s.CommentCount, &rank, &s.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		if rank.Valid {
			r := int(rank.Int64)
			s.Rank = &r
		}

		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}
