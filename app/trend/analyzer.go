package trend

import (
	"fmt"
	"sort"
	"time"

	"github.com/lysyi3m/hn-pulse/app/database"
)

// Trend is the score and comment movement of one article across the
// snapshots captured inside the analysis window.
type Trend struct {
	ArticleID       int64 `json:"article_id"`
	ScoreIncrease   int   `json:"score_increase"`
	CommentIncrease int   `json:"comment_increase"`
	LatestScore     int   `json:"latest_score"`
	LatestComments  int   `json:"latest_comments"`
	SnapshotCount   int   `json:"snapshot_count"`
}

// SnapshotSource is the slice of the snapshot repository the analyzer reads
type SnapshotSource interface {
	GetSnapshotsSince(since time.Time) ([]database.Snapshot, error)
}

type Analyzer struct {
	snapshots SnapshotSource
}

func NewAnalyzer(snapshots SnapshotSource) *Analyzer {
	return &Analyzer{snapshots: snapshots}
}

// ComputeTrending returns per-article deltas between the earliest and latest
// snapshot inside the window, largest score increase first. Articles with a
// single snapshot in the window carry no computable delta and are excluded.
// A limit of 0 returns all trending articles.
func (a *Analyzer) ComputeTrending(window time.Duration, limit int) ([]Trend, error) {
	since := time.Now().UTC().Add(-window)

	snapshots, err := a.snapshots.GetSnapshotsSince(since)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	type span struct {
		earliest database.Snapshot
		latest   database.Snapshot
		count    int
	}

	spans := make(map[int64]*span)
	for _, s := range snapshots {
		entry, ok := spans[s.ArticleID]
		if !ok {
			spans[s.ArticleID] = &span{earliest: s, latest: s, count: 1}
			continue
		}
		entry.count++
		if s.CapturedAt.Before(entry.earliest.CapturedAt) {
			entry.earliest = s
		}
		if !s.CapturedAt.Before(entry.latest.CapturedAt) {
			entry.latest = s
		}
	}

	trends := make([]Trend, 0, len(spans))
	for articleID, entry := range spans {
		if entry.count < 2 {
			continue
		}
		trends = append(trends, Trend{
			ArticleID:       articleID,
			ScoreIncrease:   entry.latest.Score - entry.earliest.Score,
			CommentIncrease: entry.latest.CommentCount - entry.earliest.CommentCount,
			LatestScore:     entry.latest.Score,
			LatestComments:  entry.latest.CommentCount,
			SnapshotCount:   entry.count,
		})
	}

	// Deterministic ordering: score delta, then comment delta, then id
	sort.Slice(trends, func(i, j int) bool {
		if trends[i].ScoreIncrease != trends[j].ScoreIncrease {
			return trends[i].ScoreIncrease > trends[j].ScoreIncrease
		}
		if trends[i].CommentIncrease != trends[j].CommentIncrease {
			return trends[i].CommentIncrease > trends[j].CommentIncrease
		}
		return trends[i].ArticleID < trends[j].ArticleID
	})

	if limit > 0 && len(trends) > limit {
		trends = trends[:limit]
	}

	return trends, nil
}
