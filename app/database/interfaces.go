package database

import (
	"time"
)

type ArticleRepository interface {
	UpsertArticle(article Article) error
	Exists(hnID int64) (bool, error)
	GetArticle(hnID int64) (*Article, error)
	GetRecentArticles(limit int) ([]Article, error)
	GetArticleCount() (int, error)

	GetArticlesForExtraction(limit int) ([]ArticleForExtraction, error)
	UpdateExtractedContent(hnID int64, content string, status string, errorMsg string) error
}

type CommentRepository interface {
	UpsertComments(articleID int64, comments []Comment) error
	GetComments(articleID int64) ([]Comment, error)
	GetCommentCount() (int, error)
}

type SnapshotRepository interface {
	RecordSnapshot(snapshot Snapshot) error
	GetSnapshotHistory(articleID int64, since time.Time) ([]Snapshot, error)
	GetSnapshotsSince(since time.Time) ([]Snapshot, error)
	GetSnapshotCount() (int, error)
}

type ListingRepository interface {
	UpsertListing(name, endpoint string) error
	GetListing(name string) (*Listing, error)
	UpdateCrawlTimes(name string, lastCrawled, nextCrawl time.Time) error
}
