package database

import (
	"time"
)

type Article struct {
	ID           string // Database UUID
	HNID         int64  // Source item id, stable and unique
	Title        string
	URL          string
	Domain       string
	Score        int
	Author       string
	PostedAt     *time.Time
	CommentCount int
	StoryText    string
	StoryType    string // story, ask, job, poll

	Content                 string
	ContentExtractionStatus string // pending, success, failed, skipped
	ContentExtractedAt      *time.Time
	ContentExtractionError  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Comment struct {
	ID        string // Database UUID
	ArticleID int64  // Owning article's source id
	CommentID int64  // Source item id, unique within the article
	ParentID  *int64 // nil for top-level comments
	Author    string
	Text      string
	PostedAt  *time.Time
	Depth     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Snapshot struct {
	ID           string // Database UUID
	ArticleID    int64
	Score        int
	CommentCount int
	Rank         *int // Position in the source listing, nil outside a listing pass
	CapturedAt   time.Time
}

type Listing struct {
	Name          string
	Endpoint      string
	LastCrawledAt *time.Time
	NextCrawlAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ArticleForExtraction struct {
	HNID int64
	URL  string
}
