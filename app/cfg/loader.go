package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./hnpulse.db" description:"Path to the SQLite database file"`

	// Application configuration
	ListingsDir       string `long:"listings-dir" env:"LISTINGS_DIR" default:"./listings" description:"Directory containing listing configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of concurrent article crawl workers"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`

	// Upstream API configuration
	HNBaseURL         string `long:"hn-base-url" env:"HN_BASE_URL" default:"https://hacker-news.firebaseio.com/v0" description:"Base URL of the Hacker News API"`
	RequestIntervalMs int    `long:"request-interval-ms" env:"REQUEST_INTERVAL_MS" default:"1000" description:"Minimum interval between upstream requests in milliseconds"`
	RequestTimeoutMs  int    `long:"request-timeout-ms" env:"REQUEST_TIMEOUT_MS" default:"10000" description:"Upstream request timeout in milliseconds"`
	MaxRetries        int    `long:"max-retries" env:"MAX_RETRIES" default:"3" description:"Maximum retries for a failed upstream request"`

	// Crawl caps
	MaxArticles           int  `long:"max-articles" env:"MAX_ARTICLES" default:"30" description:"Maximum articles fetched per listing crawl"`
	MaxCommentsPerArticle int  `long:"max-comments-per-article" env:"MAX_COMMENTS_PER_ARTICLE" default:"200" description:"Maximum comments stored per article"`
	MaxCommentDepth       int  `long:"max-comment-depth" env:"MAX_COMMENT_DEPTH" default:"4" description:"Maximum comment tree depth (0 = top-level only)"`
	MaxChildrenPerNode    int  `long:"max-children-per-node" env:"MAX_CHILDREN_PER_NODE" default:"15" description:"Maximum children expanded per comment"`
	MinScoreThreshold     int  `long:"min-score" env:"MIN_SCORE" default:"0" description:"Minimum article score to crawl"`
	CommentMaxLength      int  `long:"comment-max-length" env:"COMMENT_MAX_LENGTH" default:"1000" description:"Maximum stored comment text length"`
	StoryTextMaxLength    int  `long:"story-text-max-length" env:"STORY_TEXT_MAX_LENGTH" default:"5000" description:"Maximum stored story text length"`
	SkipProcessed         bool `long:"skip-processed" env:"SKIP_PROCESSED" description:"Skip articles that already exist in the database"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"HN Pulse/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:                raw.DBPath,
		ListingsDir:           raw.ListingsDir,
		Port:                  raw.Port,
		APIAccessKey:          raw.APIAccessKey,
		WorkerCount:           raw.WorkerCount,
		SchedulerInterval:     raw.SchedulerInterval,
		HNBaseURL:             raw.HNBaseURL,
		RequestIntervalMs:     raw.RequestIntervalMs,
		RequestTimeoutMs:      raw.RequestTimeoutMs,
		MaxRetries:            raw.MaxRetries,
		MaxArticles:           raw.MaxArticles,
		MaxCommentsPerArticle: raw.MaxCommentsPerArticle,
		MaxCommentDepth:       raw.MaxCommentDepth,
		MaxChildrenPerNode:    raw.MaxChildrenPerNode,
		MinScoreThreshold:     raw.MinScoreThreshold,
		CommentMaxLength:      raw.CommentMaxLength,
		StoryTextMaxLength:    raw.StoryTextMaxLength,
		SkipProcessed:         raw.SkipProcessed,
		UserAgent:             raw.UserAgent,
		Timezone:              raw.Timezone,
		Debug:                 raw.Debug,
		Version:               GetVersion(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

// Validate rejects configurations the crawler cannot run with. This is
// the only fatal error class: everything past startup is best effort.
func (c *Cfg) Validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("invalid configuration: worker-count must be at least 1, got %d", c.WorkerCount)
	}
	if c.SchedulerInterval < 1 {
		return fmt.Errorf("invalid configuration: scheduler-interval must be at least 1, got %d", c.SchedulerInterval)
	}
	if c.RequestIntervalMs < 1 {
		return fmt.Errorf("invalid configuration: request-interval-ms must be positive, got %d", c.RequestIntervalMs)
	}
	if c.RequestTimeoutMs < 1 {
		return fmt.Errorf("invalid configuration: request-timeout-ms must be positive, got %d", c.RequestTimeoutMs)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid configuration: max-retries must not be negative, got %d", c.MaxRetries)
	}
	if c.MaxArticles < 1 {
		return fmt.Errorf("invalid configuration: max-articles must be at least 1, got %d", c.MaxArticles)
	}
	if c.MaxCommentsPerArticle < 0 {
		return fmt.Errorf("invalid configuration: max-comments-per-article must not be negative, got %d", c.MaxCommentsPerArticle)
	}
	if c.MaxCommentDepth < 0 {
		return fmt.Errorf("invalid configuration: max-comment-depth must not be negative, got %d", c.MaxCommentDepth)
	}
	if c.MaxChildrenPerNode < 0 {
		return fmt.Errorf("invalid configuration: max-children-per-node must not be negative, got %d", c.MaxChildrenPerNode)
	}
	if c.CommentMaxLength < 0 {
		return fmt.Errorf("invalid configuration: comment-max-length must not be negative, got %d", c.CommentMaxLength)
	}
	if c.StoryTextMaxLength < 0 {
		return fmt.Errorf("invalid configuration: story-text-max-length must not be negative, got %d", c.StoryTextMaxLength)
	}
	return nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
