package crawler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lysyi3m/hn-pulse/app/hn"
)

// TreeCrawler expands an article's immediate comment id list into a flat,
// depth-annotated sequence under hard depth, breadth, and volume caps.
//
// Traversal is an explicit-stack depth-first walk carrying (id, parent,
// depth) frames, so adversarially deep threads cannot grow the call
// stack. The depth cap is checked before any fetch is issued. A single
// emitted-comment budget is shared across the whole walk; once spent,
// traversal stops without further fetches and the partial result is
// returned as a valid outcome.
type TreeCrawler struct {
	fetcher       ItemFetcher
	maxDepth      int
	maxChildren   int
	maxTotal      int
	maxTextLength int
}

func NewTreeCrawler(fetcher ItemFetcher, maxDepth, maxChildren, maxTotal, maxTextLength int) *TreeCrawler {
	return &TreeCrawler{
		fetcher:       fetcher,
		maxDepth:      maxDepth,
		maxChildren:   maxChildren,
		maxTotal:      maxTotal,
		maxTextLength: maxTextLength,
	}
}

type frame struct {
	id     int64
	parent *int64
	depth  int
}

// Crawl walks the comment tree rooted at the given top-level comment ids.
// Deleted, dead, and textless nodes are not emitted, but their children
// are still walked: a deleted comment can have live replies. A fetch
// failure drops only that node's subtree; siblings continue.
func (c *TreeCrawler) Crawl(ctx context.Context, articleID int64, rootIDs []int64) ([]Comment, TreeStats) {
	var stats TreeStats
	comments := make([]Comment, 0, len(rootIDs))

	if len(rootIDs) == 0 || c.maxTotal == 0 {
		return comments, stats
	}

	// Roots are pushed in reverse so the stack pops them in listing order
	stack := make([]frame, 0, len(rootIDs))
	for i := len(rootIDs) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: rootIDs[i], depth: 0})
	}

	budget := c.maxTotal

	for len(stack) > 0 {
		if budget <= 0 {
			stats.BudgetExhausted = true
			break
		}

		select {
		case <-ctx.Done():
			return comments, stats
		default:
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > c.maxDepth {
			continue
		}

		item, err := c.fetcher.Fetch(ctx, f.id)
		if errors.Is(err, hn.ErrNotFound) {
			stats.Skipped++
			continue
		}
		if err != nil {
			stats.Failed++
			slog.Warn("Comment fetch failed, dropping subtree", "article", articleID, "comment", f.id, "depth", f.depth, "error", err)
			continue
		}
		stats.Fetched++

		text := CleanText(item.Text, c.maxTextLength)
		if item.IsGone() || text == "" {
			stats.Skipped++
		} else {
			comments = append(comments, Comment{
				CommentID: item.ID,
				ArticleID: articleID,
				ParentID:  f.parent,
				Author:    item.By,
				Text:      text,
				PostedAt:  time.Unix(item.Time, 0).UTC(),
				Depth:     f.depth,
			})
			stats.Emitted++
			budget--
		}

		kids := item.Kids
		if len(kids) > c.maxChildren {
			kids = kids[:c.maxChildren]
		}

		parentID := item.ID
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], parent: &parentID, depth: f.depth + 1})
		}
	}

	return comments, stats
}
