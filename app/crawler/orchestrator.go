package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/hn-pulse/app/database"
)

// RunSummary accounts for one full crawl run. Partial failures are
// counted, never fatal: a run is best effort, fully accounted.
type RunSummary struct {
	RunID    string
	Endpoint string

	StartedAt time.Time
	Duration  time.Duration

	ListingSize      int
	ArticlesCrawled  int
	ArticlesSkipped  int
	ArticlesFiltered int
	ArticlesNotFound int
	ArticlesFailed   int

	CommentsStored  int
	CommentsSkipped int
	CommentsFailed  int

	SnapshotsRecorded int
	WriteFailures     int
}

// Orchestrator sequences one crawl run: listing crawl, repository writes,
// and score snapshotting.
type Orchestrator struct {
	articleCrawler *ArticleCrawler
	articleRepo    database.ArticleRepository
	commentRepo    database.CommentRepository
	snapshotRepo   database.SnapshotRepository
}

func NewOrchestrator(articleCrawler *ArticleCrawler, articleRepo database.ArticleRepository,
	commentRepo database.CommentRepository, snapshotRepo database.SnapshotRepository) *Orchestrator {
	return &Orchestrator{
		articleCrawler: articleCrawler,
		articleRepo:    articleRepo,
		commentRepo:    commentRepo,
		snapshotRepo:   snapshotRepo,
	}
}

// Run crawls one listing and persists the results. A repository write
// failure for one article is counted and the run continues; only a total
// listing fetch failure is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, endpoint string, pageSize, minScore int) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Endpoint:  endpoint,
		StartedAt: time.Now().UTC(),
	}

	results, pageStats, errs := o.articleCrawler.CrawlPage(ctx, endpoint, pageSize, minScore)

	summary.ListingSize = pageStats.ListingSize
	summary.ArticlesSkipped = pageStats.Skipped
	summary.ArticlesFiltered = pageStats.Filtered
	summary.ArticlesNotFound = pageStats.NotFound
	summary.ArticlesFailed = len(errs)

	for _, err := range errs {
		slog.Warn("Article crawl failed", "run_id", summary.RunID, "endpoint", endpoint, "error", err)
	}

	if len(results) == 0 && pageStats.ListingSize == 0 && len(errs) > 0 {
		summary.Duration = time.Since(summary.StartedAt)
		return summary, fmt.Errorf("failed to crawl listing %s: %w", endpoint, errs[0])
	}

	for _, result := range results {
		o.persistResult(ctx, summary, result)
	}

	summary.Duration = time.Since(summary.StartedAt)

	return summary, nil
}

func (o *Orchestrator) persistResult(ctx context.Context, summary *RunSummary, result ArticleCrawlResult) {
	article := result.Article

	dbArticle := database.Article{
		HNID:         article.HNID,
		Title:        article.Title,
		URL:          article.URL,
		Domain:       article.Domain,
		Score:        article.Score,
		Author:       article.Author,
		PostedAt:     &article.PostedAt,
		CommentCount: article.CommentCount,
		StoryText:    article.StoryText,
		StoryType:    article.StoryType,
	}

	if err := o.articleRepo.UpsertArticle(dbArticle); err != nil {
		slog.Error("Article write failed", "run_id", summary.RunID, "article", article.HNID, "error", err)
		summary.WriteFailures++
		return
	}
	summary.ArticlesCrawled++

	dbComments := make([]database.Comment, 0, len(result.Comments))
	for _, comment := range result.Comments {
		postedAt := comment.PostedAt
		dbComments = append(dbComments, database.Comment{
			ArticleID: comment.ArticleID,
			CommentID: comment.CommentID,
			ParentID:  comment.ParentID,
			Author:    comment.Author,
			Text:      comment.Text,
			PostedAt:  &postedAt,
			Depth:     comment.Depth,
		})
	}

	if err := o.commentRepo.UpsertComments(article.HNID, dbComments); err != nil {
		slog.Error("Comment write failed", "run_id", summary.RunID, "article", article.HNID, "count", len(dbComments), "error", err)
		summary.WriteFailures++
	} else {
		summary.CommentsStored += len(dbComments)
	}
	summary.CommentsSkipped += result.TreeStats.Skipped
	summary.CommentsFailed += result.TreeStats.Failed

	rank := result.Rank
	snapshot := database.Snapshot{
		ArticleID:    article.HNID,
		Score:        article.Score,
		CommentCount: article.CommentCount,
		Rank:         &rank,
		CapturedAt:   result.FetchedAt,
	}

	if err := o.snapshotRepo.RecordSnapshot(snapshot); err != nil {
		slog.Error("Snapshot write failed", "run_id", summary.RunID, "article", article.HNID, "error", err)
		summary.WriteFailures++
	} else {
		summary.SnapshotsRecorded++
	}
}
