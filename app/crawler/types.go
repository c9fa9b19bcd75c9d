package crawler

import (
	"time"
)

// Crawl-level records, converted to database rows by the orchestrator

type Article struct {
	HNID         int64
	Title        string
	URL          string
	Domain       string
	Score        int
	Author       string
	PostedAt     time.Time
	CommentCount int
	StoryText    string
	StoryType    string // story, ask, job, poll
	CommentIDs   []int64
}

type Comment struct {
	CommentID int64
	ArticleID int64
	ParentID  *int64 // nil for top-level comments
	Author    string
	Text      string
	PostedAt  time.Time
	Depth     int // 0 for top-level, parent depth + 1 below
}

// ArticleCrawlResult is one successfully crawled article with its
// bounded comment tree flattened in depth-first order.
type ArticleCrawlResult struct {
	Article   Article
	Comments  []Comment
	TreeStats TreeStats
	Rank      int // 1-based position in the source listing
	FetchedAt time.Time
}

// TreeStats accounts for every node touched during one tree crawl
type TreeStats struct {
	Fetched         int
	Emitted         int
	Skipped         int // deleted, dead, or textless nodes
	Failed          int // fetches that exhausted retries
	BudgetExhausted bool
}

// PageStats accounts for the article-level outcomes of one listing crawl
type PageStats struct {
	ListingSize int
	Crawled     int
	Skipped     int // already processed (skip-processed fast path)
	Filtered    int // below the score threshold
	NotFound    int
}
