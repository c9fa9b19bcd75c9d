package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/hn-pulse/app/database"
	"github.com/lysyi3m/hn-pulse/app/listing"
	"github.com/lysyi3m/hn-pulse/app/tasks"
)

const (
	defaultTrendingWindowHours = 24
	defaultTrendingLimit       = 20
	defaultArticlesLimit       = 30
	maxQueryLimit              = 100
)

func NewHandler(articleRepo database.ArticleRepository, commentRepo database.CommentRepository,
	snapshotRepo database.SnapshotRepository, listingRepo database.ListingRepository,
	configCache *listing.ConfigCache, analyzer TrendAnalyzerInterface,
	crawlTask CrawlTaskFactory, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		articleRepo:  articleRepo,
		commentRepo:  commentRepo,
		snapshotRepo: snapshotRepo,
		listingRepo:  listingRepo,
		configCache:  configCache,
		analyzer:     analyzer,
		crawlTask:    crawlTask,
		scheduler:    scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		health["articles"] = articleCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		stats["articles"] = articleCount
	}
	if commentCount, err := h.commentRepo.GetCommentCount(); err == nil {
		stats["comments"] = commentCount
	}
	if snapshotCount, err := h.snapshotRepo.GetSnapshotCount(); err == nil {
		stats["snapshots"] = snapshotCount
	}

	listings := make([]map[string]interface{}, 0)
	for _, listingConfig := range h.configCache.GetConfigs() {
		listingInfo := map[string]interface{}{
			"name":     listingConfig.Name,
			"endpoint": listingConfig.Endpoint,
			"enabled":  listingConfig.Settings.Enabled,
		}
		if stored, err := h.listingRepo.GetListing(listingConfig.Name); err == nil && stored != nil {
			listingInfo["last_crawled_at"] = stored.LastCrawledAt
			listingInfo["next_crawl_at"] = stored.NextCrawlAt
		}
		listings = append(listings, listingInfo)
	}
	stats["listings"] = listings

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetTrending(c *gin.Context) {
	hours := queryInt(c, "hours", defaultTrendingWindowHours)
	limit := queryInt(c, "limit", defaultTrendingLimit)
	if hours < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be positive"})
		return
	}
	if limit < 1 || limit > maxQueryLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	trends, err := h.analyzer.ComputeTrending(time.Duration(hours)*time.Hour, limit)
	if err != nil {
		slog.Error("Trend computation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute trending articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window_hours": hours,
		"trending":     trends,
		"total":        len(trends),
	})
}

func (h *Handler) GetArticles(c *gin.Context) {
	limit := queryInt(c, "limit", defaultArticlesLimit)
	if limit < 1 || limit > maxQueryLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	articles, err := h.articleRepo.GetRecentArticles(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    len(articles),
	})
}

func (h *Handler) GetArticle(c *gin.Context) {
	hnID, ok := articleID(c)
	if !ok {
		return
	}

	article, err := h.articleRepo.GetArticle(hnID)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "article", hnID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, article)
}

func (h *Handler) GetArticleComments(c *gin.Context) {
	hnID, ok := articleID(c)
	if !ok {
		return
	}

	comments, err := h.commentRepo.GetComments(hnID)
	if err != nil {
		slog.Error("Database error", "operation", "get_comments", "article", hnID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article_id": hnID,
		"comments":   comments,
		"total":      len(comments),
	})
}

func (h *Handler) GetArticleHistory(c *gin.Context) {
	hnID, ok := articleID(c)
	if !ok {
		return
	}

	hours := queryInt(c, "hours", defaultTrendingWindowHours)
	if hours < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be positive"})
		return
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	snapshots, err := h.snapshotRepo.GetSnapshotHistory(hnID, since)
	if err != nil {
		slog.Error("Database error", "operation", "get_snapshot_history", "article", hnID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article_id":   hnID,
		"window_hours": hours,
		"snapshots":    snapshots,
		"total":        len(snapshots),
	})
}

func (h *Handler) APITriggerCrawl(c *gin.Context) {
	var body struct {
		Listing string `json:"listing"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Listing == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing listing name in request body"})
		return
	}

	listingConfig, err := h.configCache.GetConfig(body.Listing)
	if err != nil {
		slog.Error("Listing configuration not found", "listing", body.Listing, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing configuration not found"})
		return
	}

	task := h.crawlTask(listingConfig)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing crawl task", "listing", body.Listing, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue crawl task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Crawl task enqueued successfully",
		"task": gin.H{
			"id":      task.GetID(),
			"type":    task.GetType(),
			"listing": body.Listing,
		},
	})
}

func articleID(c *gin.Context) (int64, bool) {
	hnID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || hnID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return 0, false
	}
	return hnID, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}
