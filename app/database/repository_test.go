package database

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	return db
}

func testArticle() Article {
	postedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return Article{
		HNID:         42,
		Title:        "Show HN: something",
		URL:          "https://example.com/post",
		Domain:       "example.com",
		Score:        100,
		Author:       "alice",
		PostedAt:     &postedAt,
		CommentCount: 10,
		StoryText:    "",
		StoryType:    "story",
	}
}

func TestArticleStoreUpsertIdempotent(t *testing.T) {
	store := NewArticleStore(setupTestDB(t))

	article := testArticle()
	if err := store.UpsertArticle(article); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertArticle(article); err != nil {
		t.Fatal(err)
	}

	count, err := store.GetArticleCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 stored article after double upsert, got %d", count)
	}
}

func TestArticleStoreUpsertPreservesIdentity(t *testing.T) {
	store := NewArticleStore(setupTestDB(t))

	article := testArticle()
	if err := store.UpsertArticle(article); err != nil {
		t.Fatal(err)
	}

	first, err := store.GetArticle(article.HNID)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil {
		t.Fatal("Expected the article to be stored")
	}

	// Re-crawl with a moved score and a mangled identity; only the
	// mutable observation fields may change
	recrawled := article
	recrawled.Title = "Show HN: something (updated)"
	recrawled.Score = 150
	recrawled.CommentCount = 40
	recrawled.URL = "https://evil.example.com/other"
	recrawled.Author = "mallory"

	if err := store.UpsertArticle(recrawled); err != nil {
		t.Fatal(err)
	}

	second, err := store.GetArticle(article.HNID)
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("Row id changed across upserts: %s -> %s", first.ID, second.ID)
	}
	if second.Score != 150 || second.CommentCount != 40 {
		t.Errorf("Expected updated observations, got score=%d comments=%d", second.Score, second.CommentCount)
	}
	if second.Title != "Show HN: something (updated)" {
		t.Errorf("Expected updated title, got %q", second.Title)
	}
	if second.URL != article.URL {
		t.Errorf("URL must be preserved on re-crawl, got %q", second.URL)
	}
	if second.Author != article.Author {
		t.Errorf("Author must be preserved on re-crawl, got %q", second.Author)
	}
	if second.PostedAt == nil || !second.PostedAt.Equal(*article.PostedAt) {
		t.Errorf("posted_at must be preserved on re-crawl, got %v", second.PostedAt)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at must be preserved on re-crawl, got %v", second.CreatedAt)
	}
}

func TestArticleStoreUpsertPreservesExtractionState(t *testing.T) {
	store := NewArticleStore(setupTestDB(t))

	article := testArticle()
	if err := store.UpsertArticle(article); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateExtractedContent(article.HNID, "extracted text", "success", ""); err != nil {
		t.Fatal(err)
	}

	if err := store.UpsertArticle(article); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetArticle(article.HNID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "extracted text" || got.ContentExtractionStatus != "success" {
		t.Errorf("Extraction state must survive re-crawl, got status=%q content=%q",
			got.ContentExtractionStatus, got.Content)
	}
}

func TestArticleStoreExists(t *testing.T) {
	store := NewArticleStore(setupTestDB(t))

	exists, err := store.Exists(42)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("Expected no article before upsert")
	}

	if err := store.UpsertArticle(testArticle()); err != nil {
		t.Fatal(err)
	}

	exists, err = store.Exists(42)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("Expected the article to exist after upsert")
	}
}

func TestArticleStoreGetArticleMissing(t *testing.T) {
	store := NewArticleStore(setupTestDB(t))

	article, err := store.GetArticle(999)
	if err != nil {
		t.Fatal(err)
	}
	if article != nil {
		t.Errorf("Expected nil for a missing article, got %+v", article)
	}
}

func testComments() []Comment {
	postedAt := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	parent := int64(100)
	return []Comment{
		{ArticleID: 42, CommentID: 100, Author: "bob", Text: "first", PostedAt: &postedAt, Depth: 0},
		{ArticleID: 42, CommentID: 101, ParentID: &parent, Author: "carol", Text: "reply", PostedAt: &postedAt, Depth: 1},
	}
}

func TestCommentStoreUpsertBatchIdempotent(t *testing.T) {
	store := NewCommentStore(setupTestDB(t))

	batch := testComments()
	if err := store.UpsertComments(42, batch); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertComments(42, batch); err != nil {
		t.Fatal(err)
	}

	count, err := store.GetCommentCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != len(batch) {
		t.Errorf("Expected %d stored comments after re-upsert, got %d", len(batch), count)
	}
}

func TestCommentStoreUpsertLaterWriteWins(t *testing.T) {
	store := NewCommentStore(setupTestDB(t))

	if err := store.UpsertComments(42, testComments()); err != nil {
		t.Fatal(err)
	}

	first, err := store.GetComments(42)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(first))
	}

	edited := testComments()
	edited[0].Text = "first (edited)"

	if err := store.UpsertComments(42, edited); err != nil {
		t.Fatal(err)
	}

	second, err := store.GetComments(42)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 2 {
		t.Fatalf("Expected 2 comments after re-upsert, got %d", len(second))
	}

	if second[0].Text != "first (edited)" {
		t.Errorf("Expected the later write to win, got %q", second[0].Text)
	}
	// Same (article_id, comment_id): the stored row is updated, not replaced
	if second[0].ID != first[0].ID {
		t.Errorf("Comment row id changed across upserts: %s -> %s", first[0].ID, second[0].ID)
	}
	if second[1].ParentID == nil || *second[1].ParentID != 100 {
		t.Errorf("Expected parent 100 to survive re-upsert, got %v", second[1].ParentID)
	}
}

func TestCommentStoreEmptyBatch(t *testing.T) {
	store := NewCommentStore(setupTestDB(t))

	if err := store.UpsertComments(42, nil); err != nil {
		t.Fatalf("Empty batch must be a no-op, got %v", err)
	}
}

func TestSnapshotStoreAppendOnly(t *testing.T) {
	store := NewSnapshotStore(setupTestDB(t))

	rank := 1
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	snapshots := []Snapshot{
		{ArticleID: 42, Score: 100, CommentCount: 10, Rank: &rank, CapturedAt: base},
		{ArticleID: 42, Score: 150, CommentCount: 40, CapturedAt: base.Add(time.Hour)},
	}
	for _, s := range snapshots {
		if err := store.RecordSnapshot(s); err != nil {
			t.Fatal(err)
		}
	}

	count, err := store.GetSnapshotCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("Expected 2 snapshots, got %d", count)
	}

	history, err := store.GetSnapshotHistory(42, base.Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 snapshots in history, got %d", len(history))
	}
	if history[0].Score != 100 || history[1].Score != 150 {
		t.Errorf("Expected capture-time ordering, got %d then %d", history[0].Score, history[1].Score)
	}
	if history[0].Rank == nil || *history[0].Rank != 1 {
		t.Errorf("Expected rank 1 on the first snapshot, got %v", history[0].Rank)
	}
	if history[1].Rank != nil {
		t.Errorf("Expected nil rank outside a listing pass, got %v", history[1].Rank)
	}

	// The window cuts off earlier captures
	recent, err := store.GetSnapshotHistory(42, base.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Score != 150 {
		t.Errorf("Expected only the later snapshot in the window, got %+v", recent)
	}
}

func TestListingStoreUpsertAndCrawlTimes(t *testing.T) {
	store := NewListingStore(setupTestDB(t))

	if err := store.UpsertListing("top", "topstories"); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertListing("top", "topstories"); err != nil {
		t.Fatal(err)
	}

	stored, err := store.GetListing("top")
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.Endpoint != "topstories" {
		t.Fatalf("Unexpected stored listing: %+v", stored)
	}
	if stored.LastCrawledAt != nil {
		t.Error("Expected no crawl time before the first crawl")
	}

	lastCrawled := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	nextCrawl := lastCrawled.Add(30 * time.Minute)
	if err := store.UpdateCrawlTimes("top", lastCrawled, nextCrawl); err != nil {
		t.Fatal(err)
	}

	stored, err = store.GetListing("top")
	if err != nil {
		t.Fatal(err)
	}
	if stored.LastCrawledAt == nil || !stored.LastCrawledAt.Equal(lastCrawled) {
		t.Errorf("Expected last crawl %v, got %v", lastCrawled, stored.LastCrawledAt)
	}
	if stored.NextCrawlAt == nil || !stored.NextCrawlAt.Equal(nextCrawl) {
		t.Errorf("Expected next crawl %v, got %v", nextCrawl, stored.NextCrawlAt)
	}
}
