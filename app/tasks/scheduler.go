package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/hn-pulse/app/cfg"
	"github.com/lysyi3m/hn-pulse/app/crawler"
	"github.com/lysyi3m/hn-pulse/app/database"
	"github.com/lysyi3m/hn-pulse/app/listing"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache      *listing.ConfigCache
	orchestrator     *crawler.Orchestrator
	articleRepo      database.ArticleRepository
	listingRepo      database.ListingRepository
	contentExtractor *crawler.ContentExtractor
	httpClient       *http.Client
	userAgent        string
	interval         time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(configCache *listing.ConfigCache, orchestrator *crawler.Orchestrator,
	articleRepo database.ArticleRepository, listingRepo database.ListingRepository,
	httpClient *http.Client, contentExtractor *crawler.ContentExtractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache:      configCache,
		orchestrator:     orchestrator,
		articleRepo:      articleRepo,
		listingRepo:      listingRepo,
		contentExtractor: contentExtractor,
		httpClient:       httpClient,
		userAgent:        cfg.UserAgent,
		interval:         time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:      cfg.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	listingConfigs := s.configCache.GetConfigs()
	if len(listingConfigs) == 0 {
		slog.Debug("No listing configurations found")
		return
	}

	slog.Debug("Processing listing configurations", "count", len(listingConfigs))

	for _, listingConfig := range listingConfigs {
		syncTask := NewSyncListingConfigTask(listingConfig.Name, listingConfig, s.listingRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncListingConfigTask", "listing", listingConfig.Name, "error", err)
			continue
		}

		if !listingConfig.Settings.Enabled {
			slog.Debug("Listing disabled, skipping CrawlListingTask", "listing", listingConfig.Name)
			continue
		}

		crawlTask := NewCrawlListingTask(listingConfig.Name, listingConfig, s.orchestrator, s.listingRepo)
		if err := s.EnqueueTask(crawlTask); err != nil {
			slog.Warn("Failed to enqueue CrawlListingTask", "listing", listingConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	listingConfigs := s.configCache.GetEnabledConfigs()
	if len(listingConfigs) == 0 {
		slog.Debug("No enabled listing configurations found")
		return
	}

	slog.Debug("Processing enabled listing configurations for task scheduling", "count", len(listingConfigs))

	for _, listingConfig := range listingConfigs {
		storedListing, err := s.listingRepo.GetListing(listingConfig.Name)
		if err != nil {
			slog.Warn("Failed to get listing from database, skipping", "listing", listingConfig.Name, "error", err)
			continue
		}
		if storedListing == nil {
			slog.Warn("Listing not found in database, skipping", "listing", listingConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if storedListing.NextCrawlAt != nil && storedListing.NextCrawlAt.After(now) {
			slog.Debug("Listing not due for crawl yet", "listing", listingConfig.Name, "next_crawl_at", storedListing.NextCrawlAt)
		} else {
			crawlTask := NewCrawlListingTask(listingConfig.Name, listingConfig, s.orchestrator, s.listingRepo)
			if err := s.EnqueueTask(crawlTask); err != nil {
				slog.Warn("Failed to enqueue CrawlListingTask", "listing", listingConfig.Name, "error", err)
			}
		}

		if listingConfig.Settings.ExtractContent {
			extractTask := NewExtractContentTask(listingConfig.Name, listingConfig, s.httpClient, s.contentExtractor, s.articleRepo, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "listing", listingConfig.Name, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "listing", task.GetListingName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// Tracked by the WaitGroup so Stop cannot close the queue
			// while a retry is being re-enqueued
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				case <-time.After(retryDelay):
				}

				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
