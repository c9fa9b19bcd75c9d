package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CommentStore handles database operations for comments
type CommentStore struct {
	db *DB
}

var _ CommentRepository = (*CommentStore)(nil)

func NewCommentStore(db *DB) *CommentStore {
	return &CommentStore{db: db}
}

// UpsertComments stores a batch of comments for one article inside a
// single transaction. Duplicate (article_id, comment_id) pairs update the
// mutable fields in place; the later write wins.
func (r *CommentStore) UpsertComments(articleID int64, comments []Comment) error {
	if len(comments) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO comments (
			id, article_id, comment_id, parent_id, author, text,
			posted_at, depth, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (article_id, comment_id) DO UPDATE SET
			parent_id = excluded.parent_id,
			author = excluded.author,
			text = excluded.text,
			depth = excluded.depth,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare comment upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, comment := range comments {
		_, err := stmt.Exec(uuid.NewString(), articleID, comment.CommentID,
			comment.ParentID, comment.Author, comment.Text, comment.PostedAt,
			comment.Depth, now, now)
		if err != nil {
			return fmt.Errorf("failed to upsert comment %d: %w", comment.CommentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit comment batch: %w", err)
	}

	return nil
}

func (r *CommentStore) GetComments(articleID int64) ([]Comment, error) {
	rows, err := r.db.Query(`
		SELECT id, article_id, comment_id, parent_id, author, text,
		       posted_at, depth, created_at, updated_at
		FROM comments
		WHERE article_id = ?
		ORDER BY depth, comment_id
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		var parentID sql.NullInt64
		var postedAt sql.NullTime

		err := rows.Scan(&c.ID, &c.ArticleID, &c.CommentID, &parentID,
			&c.Author, &c.Text, &postedAt, &c.Depth, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}

		if parentID.Valid {
			c.ParentID = &parentID.Int64
		}
		if postedAt.Valid {
			c.PostedAt = &postedAt.Time
		}

		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (r *CommentStore) GetCommentCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}
