package trend

import (
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/hn-pulse/app/database"
)

type stubSnapshotSource struct {
	snapshots []database.Snapshot
	err       error
}

func (s *stubSnapshotSource) GetSnapshotsSince(since time.Time) ([]database.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}

	var inWindow []database.Snapshot
	for _, snap := range s.snapshots {
		if !snap.CapturedAt.Before(since) {
			inWindow = append(inWindow, snap)
		}
	}
	return inWindow, nil
}

func snapshot(articleID int64, score, comments int, age time.Duration) database.Snapshot {
	return database.Snapshot{
		ArticleID:    articleID,
		Score:        score,
		CommentCount: comments,
		CapturedAt:   time.Now().UTC().Add(-age),
	}
}

func TestAnalyzer_ComputeTrending(t *testing.T) {
	source := &stubSnapshotSource{snapshots: []database.Snapshot{
		snapshot(1, 100, 10, 3*time.Hour),
		snapshot(1, 150, 40, 1*time.Hour),
		snapshot(2, 50, 5, 2*time.Hour),
		snapshot(2, 60, 8, 30*time.Minute),
	}}

	analyzer := NewAnalyzer(source)
	trends, err := analyzer.ComputeTrending(24*time.Hour, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(trends) != 2 {
		t.Fatalf("Expected 2 trends, got %d", len(trends))
	}

	if trends[0].ArticleID != 1 || trends[0].ScoreIncrease != 50 {
		t.Errorf("Expected article 1 with +50 first, got %+v", trends[0])
	}
	if trends[0].CommentIncrease != 30 {
		t.Errorf("Expected comment increase 30, got %d", trends[0].CommentIncrease)
	}
	if trends[0].LatestScore != 150 {
		t.Errorf("Expected latest score 150, got %d", trends[0].LatestScore)
	}
	if trends[1].ArticleID != 2 || trends[1].ScoreIncrease != 10 {
		t.Errorf("Expected article 2 with +10 second, got %+v", trends[1])
	}
}

func TestAnalyzer_SingleSnapshotExcluded(t *testing.T) {
	source := &stubSnapshotSource{snapshots: []database.Snapshot{
		snapshot(1, 100, 10, 3*time.Hour),
		snapshot(1, 150, 40, 1*time.Hour),
		snapshot(2, 999, 5, 1*time.Hour),
	}}

	analyzer := NewAnalyzer(source)
	trends, err := analyzer.ComputeTrending(24*time.Hour, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(trends) != 1 {
		t.Fatalf("Expected 1 trend, got %d", len(trends))
	}
	if trends[0].ArticleID != 1 {
		t.Errorf("Expected only article 1, got %d", trends[0].ArticleID)
	}
}

func TestAnalyzer_WindowExcludesOldSnapshots(t *testing.T) {
	// Article 1 has an old snapshot outside the window; only one remains
	// inside, so no delta is computable
	source := &stubSnapshotSource{snapshots: []database.Snapshot{
		snapshot(1, 100, 10, 48*time.Hour),
		snapshot(1, 150, 40, 1*time.Hour),
	}}

	analyzer := NewAnalyzer(source)
	trends, err := analyzer.ComputeTrending(24*time.Hour, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(trends) != 0 {
		t.Errorf("Expected no trends, got %+v", trends)
	}
}

func TestAnalyzer_TieBreaking(t *testing.T) {
	source := &stubSnapshotSource{snapshots: []database.Snapshot{
		snapshot(3, 10, 0, 2*time.Hour),
		snapshot(3, 30, 5, 1*time.Hour),
		snapshot(1, 10, 0, 2*time.Hour),
		snapshot(1, 30, 5, 1*time.Hour),
		snapshot(2, 10, 0, 2*time.Hour),
		snapshot(2, 30, 9, 1*time.Hour),
	}}

	analyzer := NewAnalyzer(source)
	trends, err := analyzer.ComputeTrending(24*time.Hour, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Equal score deltas: article 2 wins on comment delta, then ids ascend
	want := []int64{2, 1, 3}
	for i, id := range want {
		if trends[i].ArticleID != id {
			t.Errorf("Position %d: expected article %d, got %d", i, id, trends[i].ArticleID)
		}
	}
}

func TestAnalyzer_Limit(t *testing.T) {
	source := &stubSnapshotSource{snapshots: []database.Snapshot{
		snapshot(1, 10, 0, 2*time.Hour),
		snapshot(1, 50, 0, 1*time.Hour),
		snapshot(2, 10, 0, 2*time.Hour),
		snapshot(2, 40, 0, 1*time.Hour),
		snapshot(3, 10, 0, 2*time.Hour),
		snapshot(3, 30, 0, 1*time.Hour),
	}}

	analyzer := NewAnalyzer(source)
	trends, err := analyzer.ComputeTrending(24*time.Hour, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(trends) != 2 {
		t.Fatalf("Expected 2 trends, got %d", len(trends))
	}
	if trends[0].ArticleID != 1 || trends[1].ArticleID != 2 {
		t.Errorf("Expected the top two score movers, got %+v", trends)
	}
}

func TestAnalyzer_SourceError(t *testing.T) {
	source := &stubSnapshotSource{err: errors.New("database closed")}

	analyzer := NewAnalyzer(source)
	if _, err := analyzer.ComputeTrending(24*time.Hour, 0); err == nil {
		t.Fatal("Expected the source error to propagate")
	}
}
