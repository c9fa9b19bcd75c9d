package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	ListingsDir       string
	Port              string
	APIAccessKey      string
	WorkerCount       int
	SchedulerInterval int

	// Upstream API configuration
	HNBaseURL         string
	RequestIntervalMs int
	RequestTimeoutMs  int
	MaxRetries        int

	// Crawl caps
	MaxArticles           int
	MaxCommentsPerArticle int
	MaxCommentDepth       int
	MaxChildrenPerNode    int
	MinScoreThreshold     int
	CommentMaxLength      int
	StoryTextMaxLength    int
	SkipProcessed         bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
