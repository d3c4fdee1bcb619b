// Package config handles configuration loading for stonksfeed.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Feeds    []FeedConfig   `mapstructure:"feeds"    yaml:"feeds"`
	Forums   []ForumConfig  `mapstructure:"forums"   yaml:"forums"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// FeedConfig describes one structured feed source.
type FeedConfig struct {
	Publisher string `mapstructure:"publisher" yaml:"publisher"`
	Title     string `mapstructure:"title"     yaml:"title"`
	URL       string `mapstructure:"url"       yaml:"url"`
}

// ForumConfig describes one forum listing page to scrape.
type ForumConfig struct {
	Title string `mapstructure:"title" yaml:"title"`
	URL   string `mapstructure:"url"   yaml:"url"`
}

// StoreConfig holds persistence gateway settings.
type StoreConfig struct {
	Path          string `mapstructure:"path"           yaml:"path"`
	MaxAgeHours   int    `mapstructure:"max_age_hours"  yaml:"max_age_hours"`  // 0 disables the age filter
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"` // 0 disables expiry
}

// PipelineConfig holds ingestion settings.
type PipelineConfig struct {
	PermissiveTickers bool `mapstructure:"permissive_tickers" yaml:"permissive_tickers"`
}

// APIConfig holds HTTP read-API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stonksfeed/config.yaml (home directory)
//  3. /etc/stonksfeed/config.yaml (system)
//
// Environment variables override config file values.
// Format: STONKSFEED_<SECTION>_<KEY>, e.g., STONKSFEED_STORE_PATH
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stonksfeed"))
	v.AddConfigPath("/etc/stonksfeed")

	v.SetEnvPrefix("STONKSFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found: fall back to defaults + env vars
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("STONKSFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if len(cfg.Feeds) == 0 && len(cfg.Forums) == 0 {
		cfg.Feeds = DefaultFeeds
		cfg.Forums = DefaultForums
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "stonksfeed.db")
	v.SetDefault("store.max_age_hours", 0)
	v.SetDefault("store.retention_days", 30)

	v.SetDefault("pipeline.permissive_tickers", false)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// DefaultFeeds lists the stock-news feeds fetched when no sources are
// configured.
var DefaultFeeds = []FeedConfig{
	{
		Publisher: "Marketwatch",
		Title:     "Breaking News Bulletin",
		URL:       "https://feeds.content.dowjones.io/public/rss/mw_bulletins",
	},
	{
		Publisher: "Marketwatch",
		Title:     "Real-time Headlines",
		URL:       "https://feeds.content.dowjones.io/public/rss/mw_realtimeheadlines",
	},
	{
		Publisher: "Seeking Alpha",
		Title:     "Latest Articles",
		URL:       "https://seekingalpha.com/feed.xml",
	},
	{
		Publisher: "CNBC",
		Title:     "Markets",
		URL:       "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=20910258",
	},
	{
		Publisher: "Investing.com",
		Title:     "News",
		URL:       "https://www.investing.com/rss/news.rss",
	},
	{
		Publisher: "Motley Fool",
		Title:     "Investing",
		URL:       "https://www.fool.com/feeds/index.aspx",
	},
	{
		Publisher: "PR Newswire",
		Title:     "Financial Services",
		URL:       "https://www.prnewswire.com/rss/financial-services-latest-news/financial-services-latest-news-list.rss",
	},
	{
		Publisher: "GlobeNewswire",
		Title:     "Earnings",
		URL:       "https://globenewswire.com/RssFeed/subjectcode/13-Earnings/feedTitle/GlobeNewswire%20-%20Earnings",
	},
}

// DefaultForums lists the Silicon Investor forums scraped when no sources
// are configured.
var DefaultForums = []ForumConfig{
	{
		Title: "Artificial Intelligence, Robotics, Chat bots - ChatGPT",
		URL:   "https://www.siliconinvestor.com/subject.aspx?subjectid=59856",
	},
	{
		Title: "AMD, ARMH, INTC, NVDA",
		URL:   "https://www.siliconinvestor.com/subject.aspx?subjectid=58128",
	},
}
