package listing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var knownEndpoints = map[string]bool{
	"topstories":  true,
	"newstories":  true,
	"beststories": true,
	"askstories":  true,
	"showstories": true,
	"jobstories":  true,
}

type ConfigCache struct {
	listingsDir string
	cache       map[string]*Config
	mu          sync.RWMutex
}

func NewConfigCache(listingsDir string) *ConfigCache {
	return &ConfigCache{
		listingsDir: listingsDir,
		cache:       make(map[string]*Config),
	}
}

// Run loads every listing config from the configured directory. With no
// directory or no config files, a single default top stories listing is
// installed so a fresh deployment crawls something useful out of the box.
func (cc *ConfigCache) Run() error {
	files, err := filepath.Glob(filepath.Join(cc.listingsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	if _, statErr := os.Stat(cc.listingsDir); os.IsNotExist(statErr) || len(files) == 0 {
		cc.installDefault()
		return nil
	}

	for _, file := range files {
		// Derive listing name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		listingName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(listingName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "listing", listingName, "endpoint", config.Endpoint, "enabled", config.Settings.Enabled, "refresh_interval", config.Settings.RefreshInterval)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(listingName string) (*Config, error) {
	configFile := cc.getConfigFilePath(listingName)
	listingConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set listing name from parameter
	listingConfig.Name = listingName

	if err := cc.validateConfig(listingConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[listingConfig.Name] = listingConfig

	return listingConfig, nil
}

func (cc *ConfigCache) GetConfig(listingName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	listingConfig, ok := cc.cache[listingName]
	if !ok {
		return nil, fmt.Errorf("listing config with name '%s' not found", listingName)
	}
	return listingConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) installDefault() {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.cache["topstories"] = &Config{
		Name:     "topstories",
		Endpoint: "topstories",
		Settings: ConfigSettings{
			Enabled:         true,
			RefreshInterval: 1800,
			MaxArticles:     30,
		},
	}
	slog.Info("No listing configs found, using default top stories listing")
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var listingConfig Config
	if err := yaml.Unmarshal(data, &listingConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if listingConfig.Settings.RefreshInterval == 0 {
		listingConfig.Settings.RefreshInterval = 1800
	}
	if listingConfig.Settings.MaxArticles == 0 {
		listingConfig.Settings.MaxArticles = 30
	}

	return &listingConfig, nil
}

func (cc *ConfigCache) validateConfig(listingConfig *Config) error {
	if listingConfig == nil {
		return fmt.Errorf("listingConfig is nil")
	}

	if listingConfig.Name == "" {
		return fmt.Errorf("listing name is required")
	}
	if listingConfig.Endpoint == "" {
		return fmt.Errorf("listing endpoint is required")
	}
	if !knownEndpoints[listingConfig.Endpoint] {
		return fmt.Errorf("unknown listing endpoint: %s", listingConfig.Endpoint)
	}

	nonNegativeFields := map[string]int{
		"refresh interval": listingConfig.Settings.RefreshInterval,
		"max articles":     listingConfig.Settings.MaxArticles,
		"min score":        listingConfig.Settings.MinScore,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(listingName string) string {
	return filepath.Join(cc.listingsDir, listingName+".yml")
}
