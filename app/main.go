package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/hn-pulse/app/api"
	"github.com/lysyi3m/hn-pulse/app/cfg"
	"github.com/lysyi3m/hn-pulse/app/crawler"
	"github.com/lysyi3m/hn-pulse/app/database"
	"github.com/lysyi3m/hn-pulse/app/hn"
	"github.com/lysyi3m/hn-pulse/app/listing"
	"github.com/lysyi3m/hn-pulse/app/tasks"
	"github.com/lysyi3m/hn-pulse/app/trend"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting HN Pulse", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	articleRepo := database.NewArticleStore(db)
	commentRepo := database.NewCommentStore(db)
	snapshotRepo := database.NewSnapshotStore(db)
	listingRepo := database.NewListingStore(db)

	configCache := listing.NewConfigCache(appCfg.ListingsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load listing configurations", "dir", appCfg.ListingsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Listing configurations loaded", "count", configCache.GetConfigCount())

	client := hn.NewClient(appCfg.HNBaseURL, appCfg.UserAgent, time.Duration(appCfg.RequestTimeoutMs)*time.Millisecond)
	limiter := crawler.NewRateLimiter(time.Duration(appCfg.RequestIntervalMs) * time.Millisecond)
	fetcher := crawler.NewFetcher(client, limiter, appCfg.MaxRetries, time.Second)
	tree := crawler.NewTreeCrawler(fetcher, appCfg.MaxCommentDepth, appCfg.MaxChildrenPerNode, appCfg.MaxCommentsPerArticle, appCfg.CommentMaxLength)

	var existsChecker crawler.ExistsChecker
	if appCfg.SkipProcessed {
		existsChecker = articleRepo
	}

	articleCrawler := crawler.NewArticleCrawler(client, fetcher, tree, appCfg.WorkerCount, appCfg.StoryTextMaxLength, existsChecker)
	orchestrator := crawler.NewOrchestrator(articleCrawler, articleRepo, commentRepo, snapshotRepo)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	contentExtractor := crawler.NewContentExtractor()

	scheduler := tasks.NewScheduler(configCache, orchestrator, articleRepo, listingRepo, httpClient, contentExtractor)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)

	analyzer := trend.NewAnalyzer(snapshotRepo)
	crawlTaskFactory := func(listingConfig *listing.Config) tasks.TaskInterface {
		return tasks.NewCrawlListingTask(listingConfig.Name, listingConfig, orchestrator, listingRepo)
	}

	apiHandler := api.NewHandler(articleRepo, commentRepo, snapshotRepo, listingRepo, configCache, analyzer, crawlTaskFactory, scheduler)
	router := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
