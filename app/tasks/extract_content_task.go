package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/hn-pulse/app/crawler"
	"github.com/lysyi3m/hn-pulse/app/database"
	"github.com/lysyi3m/hn-pulse/app/listing"
)

const extractTimeout = 30 * time.Second

type ExtractContentTask struct {
	Task
	ListingConfig    *listing.Config
	httpClient       *http.Client
	contentExtractor *crawler.ContentExtractor
	articleRepo      database.ArticleRepository
	userAgent        string
}

func NewExtractContentTask(listingName string, listingConfig *listing.Config, httpClient *http.Client, contentExtractor *crawler.ContentExtractor, articleRepo database.ArticleRepository, userAgent string) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, listingName),
		ListingConfig:    listingConfig,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		articleRepo:      articleRepo,
		userAgent:        userAgent,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.ListingConfig.Settings.ExtractContent {
		slog.Debug("Content extraction disabled for listing", "listing", t.ListingName)
		return nil
	}

	articles, err := t.articleRepo.GetArticlesForExtraction(t.ListingConfig.Settings.MaxArticles)
	if err != nil {
		return fmt.Errorf("failed to get articles for content extraction: %w", err)
	}

	if len(articles) == 0 {
		slog.Debug("No articles need content extraction", "listing", t.ListingName)
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		extractCtx, cancel := context.WithTimeout(ctx, extractTimeout)

		err := t.extractContentForArticle(extractCtx, article)
		cancel()

		if err != nil {
			slog.Error("Failed to extract content for article", "article", article.HNID, "url", article.URL, "error", err)
			errorCount++

			err = t.articleRepo.UpdateExtractedContent(article.HNID, "", "failed", err.Error())
			if err != nil {
				slog.Error("Failed to update content extraction status", "article", article.HNID, "error", err)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"listing", t.ListingName,
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContentForArticle(ctx context.Context, article database.ArticleForExtraction) error {
	if article.URL == "" {
		return fmt.Errorf("article has no URL")
	}

	data, err := t.fetchArticleContent(ctx, article.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch article content: %w", err)
	}

	extractedContent, err := t.contentExtractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	err = t.articleRepo.UpdateExtractedContent(article.HNID, extractedContent, "success", "")
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	slog.Debug("Content extracted successfully", "article", article.HNID, "url", article.URL, "content_length", len(extractedContent))
	return nil
}

func (t *ExtractContentTask) fetchArticleContent(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
