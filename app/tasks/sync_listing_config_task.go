package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/hn-pulse/app/database"
	"github.com/lysyi3m/hn-pulse/app/listing"
)

type SyncListingConfigTask struct {
	Task
	ListingConfig *listing.Config
	listingRepo   database.ListingRepository
}

func NewSyncListingConfigTask(listingName string, listingConfig *listing.Config, listingRepo database.ListingRepository) *SyncListingConfigTask {
	return &SyncListingConfigTask{
		Task:          NewTask(TaskTypeSyncListingConfig, listingName),
		ListingConfig: listingConfig,
		listingRepo:   listingRepo,
	}
}

func (t *SyncListingConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.listingRepo.UpsertListing(t.ListingName, t.ListingConfig.Endpoint); err != nil {
		return fmt.Errorf("failed to sync listing config: %w", err)
	}

	slog.Debug("Listing config synced", "listing", t.ListingName, "endpoint", t.ListingConfig.Endpoint)

	return nil
}
