package listing

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Endpoint string         `yaml:"endpoint"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxArticles     int  `yaml:"max_articles"`
	MinScore        int  `yaml:"min_score"`
	ExtractContent  bool `yaml:"extract_content"` // enable content extraction
}
