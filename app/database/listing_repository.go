package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ListingStore tracks crawl scheduling state per configured listing
type ListingStore struct {
	db *DB
}

var _ ListingRepository = (*ListingStore)(nil)

func NewListingStore(db *DB) *ListingStore {
	return &ListingStore{db: db}
}

func (r *ListingStore) UpsertListing(name, endpoint string) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO listings (name, endpoint, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			endpoint = excluded.endpoint,
			updated_at = excluded.updated_at
	`, name, endpoint, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert listing %s: %w", name, err)
	}

	return nil
}

func (r *ListingStore) GetListing(name string) (*Listing, error) {
	var l Listing
	var lastCrawled, nextCrawl sql.NullTime

	err := r.db.QueryRow(`
		SELECT name, endpoint, last_crawled_at, next_crawl_at, created_at, updated_at
		FROM listings
		WHERE name = ?
	`, name).Scan(&l.Name, &l.Endpoint, &lastCrawled, &nextCrawl, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %s: %w", name, err)
	}

	if lastCrawled.Valid {
		l.LastCrawledAt = &lastCrawled.Time
	}
	if nextCrawl.Valid {
		l.NextCrawlAt = &nextCrawl.Time
	}

	return &l, nil
}

func (r *ListingStore) UpdateCrawlTimes(name string, lastCrawled, nextCrawl time.Time) error {
	_, err := r.db.Exec(`
		UPDATE listings
		SET last_crawled_at = ?, next_crawl_at = ?, updated_at = ?
		WHERE name = ?
	`, lastCrawled, nextCrawl, time.Now().UTC(), name)

	if err != nil {
		return fmt.Errorf("failed to update crawl times for listing %s: %w", name, err)
	}

	return nil
}
