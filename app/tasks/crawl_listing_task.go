package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/hn-pulse/app/crawler"
	"github.com/lysyi3m/hn-pulse/app/database"
	"github.com/lysyi3m/hn-pulse/app/listing"
)

type CrawlListingTask struct {
	Task
	ListingConfig *listing.Config
	orchestrator  *crawler.Orchestrator
	listingRepo   database.ListingRepository
}

func NewCrawlListingTask(listingName string, listingConfig *listing.Config, orchestrator *crawler.Orchestrator, listingRepo database.ListingRepository) *CrawlListingTask {
	return &CrawlListingTask{
		Task:          NewTask(TaskTypeCrawlListing, listingName),
		ListingConfig: listingConfig,
		orchestrator:  orchestrator,
		listingRepo:   listingRepo,
	}
}

func (t *CrawlListingTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.ListingConfig.Settings.Enabled {
		slog.Debug("Listing disabled, skipping", "listing", t.ListingName)
		return nil
	}

	summary, err := t.orchestrator.Run(ctx, t.ListingConfig.Endpoint, t.ListingConfig.Settings.MaxArticles, t.ListingConfig.Settings.MinScore)
	if err != nil {
		return fmt.Errorf("failed to crawl listing: %w", err)
	}

	if err := t.updateCrawlTimes(); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"listing", t.ListingName,
		"run_id", summary.RunID,
		"duration", t.GetDuration(),
		"listing_size", summary.ListingSize,
		"crawled", summary.ArticlesCrawled,
		"skipped", summary.ArticlesSkipped,
		"filtered", summary.ArticlesFiltered,
		"not_found", summary.ArticlesNotFound,
		"failed", summary.ArticlesFailed,
		"comments", summary.CommentsStored,
		"snapshots", summary.SnapshotsRecorded,
		"write_failures", summary.WriteFailures)

	return nil
}

func (t *CrawlListingTask) updateCrawlTimes() error {
	now := time.Now().UTC()
	nextCrawl := now.Add(time.Duration(t.ListingConfig.Settings.RefreshInterval) * time.Second)

	if err := t.listingRepo.UpdateCrawlTimes(t.ListingName, now, nextCrawl); err != nil {
		return fmt.Errorf("failed to update listing crawl times: %w", err)
	}

	return nil
}
