package api

import (
	"time"

	"github.com/lysyi3m/hn-pulse/app/database"
	"github.com/lysyi3m/hn-pulse/app/listing"
	"github.com/lysyi3m/hn-pulse/app/tasks"
	"github.com/lysyi3m/hn-pulse/app/trend"
)

type TrendAnalyzerInterface interface {
	ComputeTrending(window time.Duration, limit int) ([]trend.Trend, error)
}

var _ TrendAnalyzerInterface = (*trend.Analyzer)(nil)

type Handler struct {
	articleRepo  database.ArticleRepository
	commentRepo  database.CommentRepository
	snapshotRepo database.SnapshotRepository
	listingRepo  database.ListingRepository
	configCache  *listing.ConfigCache
	analyzer     TrendAnalyzerInterface
	crawlTask    CrawlTaskFactory
	scheduler    tasks.TaskSchedulerInterface
}

// CrawlTaskFactory builds the task enqueued by the crawl endpoint. Kept as
// a function so handler tests do not need a full orchestrator.
type CrawlTaskFactory func(listingConfig *listing.Config) tasks.TaskInterface
