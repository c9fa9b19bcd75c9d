package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ArticleStore handles database operations for articles
type ArticleStore struct {
	db *DB
}

var _ ArticleRepository = (*ArticleStore)(nil)

func NewArticleStore(db *DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// UpsertArticle inserts a new article or updates the mutable fields of an
// existing one. Identity fields (url, domain, author, posted_at) and the
// extraction state are preserved on re-crawl; score, comment count, title
// and story text track the latest observation.
func (r *ArticleStore) UpsertArticle(article Article) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO articles (
			id, hn_id, title, url, domain, score, author, posted_at,
			comment_count, story_text, story_type, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (hn_id) DO UPDATE SET
			title = excluded.title,
			score = excluded.score,
			comment_count = excluded.comment_count,
			story_text = excluded.story_text,
			updated_at = excluded.updated_at
	`, uuid.NewString(), article.HNID, article.Title, article.URL, article.Domain,
		article.Score, article.Author, article.PostedAt, article.CommentCount,
		article.StoryText, article.StoryType, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert article %d: %w", article.HNID, err)
	}

	return nil
}

// Exists reports whether an article with the given source id is already stored
func (r *ArticleStore) Exists(hnID int64) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM articles WHERE hn_id = ? LIMIT 1`, hnID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return true, nil
}

func (r *ArticleStore) GetArticle(hnID int64) (*Article, error) {
	row := r.db.QueryRow(`
		SELECT id, hn_id, title, url, domain, score, author, posted_at,
		       comment_count, story_text, story_type, content,
		       content_extraction_status, content_extracted_at,
		       content_extraction_error, created_at, updated_at
		FROM articles
		WHERE hn_id = ?
	`, hnID)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article %d: %w", hnID, err)
	}

	return article, nil
}

func (r *ArticleStore) GetRecentArticles(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT id, hn_id, title, url, domain, score, author, posted_at,
		       comment_count, story_text, story_type, content,
		       content_extraction_status, content_extracted_at,
		       content_extraction_error, created_at, updated_at
		FROM articles
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *article)
	}

	return articles, rows.Err()
}

func (r *ArticleStore) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// GetArticlesForExtraction returns articles with an external URL whose
// content has not been extracted yet
func (r *ArticleStore) GetArticlesForExtraction(limit int) ([]ArticleForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT hn_id, url
		FROM articles
		WHERE url != '' AND content_extraction_status = 'pending'
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles for extraction: %w", err)
	}
	defer rows.Close()

	var articles []ArticleForExtraction
	for rows.Next() {
		var a ArticleForExtraction
		if err := rows.Scan(&a.HNID, &a.URL); err != nil {
			return nil, fmt.Errorf("failed to scan article for extraction: %w", err)
		}
		articles = append(articles, a)
	}

	return articles, rows.Err()
}

func (r *ArticleStore) UpdateExtractedContent(hnID int64, content string, status string, errorMsg string) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		UPDATE articles
		SET content = ?, content_extraction_status = ?, content_extracted_at = ?,
		    content_extraction_error = ?, updated_at = ?
		WHERE hn_id = ?
	`, content, status, now, errorMsg, now, hnID)

	if err != nil {
		return fmt.Errorf("failed to update extracted content for article %d: %w", hnID, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var a Article
	var postedAt, extractedAt sql.NullTime

	err := row.Scan(&a.ID, &a.HNID, &a.Title, &a.URL, &a.Domain, &a.Score,
		&a.Author, &postedAt, &a.CommentCount, &a.StoryText, &a.StoryType,
		&a.Content, &a.ContentExtractionStatus, &extractedAt,
		&a.ContentExtractionError, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if postedAt.Valid {
		a.PostedAt = &postedAt.Time
	}
	if extractedAt.Valid {
		a.ContentExtractedAt = &extractedAt.Time
	}

	return &a, nil
}
