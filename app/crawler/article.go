package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/hn-pulse/app/hn"
)

// ListingGetter fetches the ordered id list for a listing endpoint
type ListingGetter interface {
	GetListing(ctx context.Context, endpoint string) ([]int64, error)
}

// ExistsChecker answers the skip-already-processed fast path
type ExistsChecker interface {
	Exists(hnID int64) (bool, error)
}

type dropReason int

const (
	dropNone dropReason = iota
	dropNotFound
	dropFiltered
	dropSkipped
)

// ArticleCrawler fetches a page of listing ids, filters articles by score,
// and drives the tree crawler for each retained article. Articles are
// processed by a bounded worker pool; every fetch still goes through the
// single shared rate limiter, so the pool bounds memory, not request rate.
type ArticleCrawler struct {
	listings      ListingGetter
	fetcher       ItemFetcher
	tree          *TreeCrawler
	concurrency   int
	storyTextMax  int
	existsChecker ExistsChecker // nil disables the skip fast path
}

func NewArticleCrawler(listings ListingGetter, fetcher ItemFetcher, tree *TreeCrawler, concurrency, storyTextMax int, existsChecker ExistsChecker) *ArticleCrawler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ArticleCrawler{
		listings:      listings,
		fetcher:       fetcher,
		tree:          tree,
		concurrency:   concurrency,
		storyTextMax:  storyTextMax,
		existsChecker: existsChecker,
	}
}

// CrawlPage crawls up to pageSize articles from the listing endpoint.
// Articles that fail outright are returned in the error list, never mixed
// into the results; missing, already-stored, and below-threshold articles
// are counted in the stats and silently dropped.
func (a *ArticleCrawler) CrawlPage(ctx context.Context, endpoint string, pageSize, minScore int) ([]ArticleCrawlResult, PageStats, []error) {
	var stats PageStats

	ids, err := a.listings.GetListing(ctx, endpoint)
	if err != nil {
		return nil, stats, []error{err}
	}

	if len(ids) > pageSize {
		ids = ids[:pageSize]
	}
	stats.ListingSize = len(ids)

	type job struct {
		id   int64
		rank int
	}

	jobs := make(chan job)
	var (
		mu      sync.Mutex
		results []ArticleCrawlResult
		errs    []error
	)

	var wg sync.WaitGroup
	for w := 0; w < a.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result, dropped, err := a.crawlArticle(ctx, j.id, j.rank, minScore)

				mu.Lock()
				switch {
				case err != nil:
					errs = append(errs, err)
				case result != nil:
					results = append(results, *result)
					stats.Crawled++
				case dropped == dropNotFound:
					stats.NotFound++
				case dropped == dropFiltered:
					stats.Filtered++
				case dropped == dropSkipped:
					stats.Skipped++
				}
				mu.Unlock()
			}
		}()
	}

	// The stop signal is checked between articles; in-flight fetches run
	// to completion or their own timeout
dispatch:
	for i, id := range ids {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- job{id: id, rank: i + 1}:
		}
	}
	close(jobs)
	wg.Wait()

	// Workers finish out of order; restore listing order for callers
	sort.Slice(results, func(i, j int) bool {
		return results[i].Rank < results[j].Rank
	})

	return results, stats, errs
}

func (a *ArticleCrawler) crawlArticle(ctx context.Context, id int64, rank, minScore int) (*ArticleCrawlResult, dropReason, error) {
	if a.existsChecker != nil {
		exists, err := a.existsChecker.Exists(id)
		if err != nil {
			slog.Warn("Existence check failed, crawling anyway", "article", id, "error", err)
		} else if exists {
			slog.Debug("Article already processed, skipping", "article", id)
			return nil, dropSkipped, nil
		}
	}

	item, err := a.fetcher.Fetch(ctx, id)
	if errors.Is(err, hn.ErrNotFound) {
		return nil, dropNotFound, nil
	}
	if err != nil {
		return nil, dropNone, err
	}

	if item.IsGone() || item.Type == "comment" {
		return nil, dropNotFound, nil
	}

	article := a.buildArticle(item)

	// Score is only known post-fetch, so filtering happens here
	if article.Score < minScore {
		slog.Debug("Article below score threshold, skipping", "article", id, "score", article.Score, "threshold", minScore)
		return nil, dropFiltered, nil
	}

	comments, treeStats := a.tree.Crawl(ctx, id, item.Kids)

	return &ArticleCrawlResult{
		Article:   article,
		Comments:  comments,
		TreeStats: treeStats,
		Rank:      rank,
		FetchedAt: time.Now().UTC(),
	}, dropNone, nil
}

func (a *ArticleCrawler) buildArticle(item *hn.Item) Article {
	return Article{
		HNID:         item.ID,
		Title:        item.Title,
		URL:          item.URL,
		Domain:       extractDomain(item.URL),
		Score:        item.Score,
		Author:       item.By,
		PostedAt:     time.Unix(item.Time, 0).UTC(),
		CommentCount: item.Descendants,
		StoryText:    CleanText(item.Text, a.storyTextMax),
		StoryType:    storyType(item),
		CommentIDs:   item.Kids,
	}
}

// storyType maps the upstream type field onto the stored enum. Self posts
// (stories with text and no URL) are classified as "ask".
func storyType(item *hn.Item) string {
	if item.Type == "story" && item.URL == "" && item.Text != "" {
		return "ask"
	}
	switch item.Type {
	case "story", "job", "poll":
		return item.Type
	default:
		return "story"
	}
}

// extractDomain derives the link domain shown alongside an article.
// Self posts have no URL and resolve to the forum's own host.
func extractDomain(rawURL string) string {
	if rawURL == "" {
		return "news.ycombinator.com"
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	return strings.TrimPrefix(host, "www.")
}
