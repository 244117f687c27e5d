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
	// Catalog configuration
	ChannelsFile string `long:"channels-file" env:"CHANNELS_FILE" default:"./channels.yml" description:"Path to the YAML channel catalog"`

	// Cache configuration
	CachePath string `long:"cache-path" env:"CACHE_PATH" default:"./tubetab.db" description:"Path to the SQLite cache database"`
	CacheTTL  int    `long:"cache-ttl" env:"CACHE_TTL" default:"3600" description:"Cache time-to-live in seconds"`

	// Aggregation configuration
	MaxVideos              int  `long:"max-videos" env:"MAX_VIDEOS" default:"100" description:"Maximum number of videos in an aggregation result"`
	MinResults             int  `long:"min-results" env:"MIN_RESULTS" default:"5" description:"Minimum result count before fallback escalation kicks in"`
	PageSize               int  `long:"page-size" env:"PAGE_SIZE" default:"15" description:"Maximum results requested per search query"`
	FetchTimeout           int  `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-request fetch timeout in seconds"`
	PollInterval           int  `long:"poll-interval" env:"POLL_INTERVAL" default:"60" description:"Cache staleness poll interval in seconds"`
	DisableRelevanceFilter bool `long:"disable-relevance-filter" env:"DISABLE_RELEVANCE_FILTER" description:"Keep videos regardless of catalog keyword relevance"`

	// YouTube Data API configuration
	YouTubeAPIKey string `long:"youtube-api-key" env:"YOUTUBE_API_KEY" description:"YouTube Data API v3 key (search and lookup sources; optional)"`
	Region        string `long:"region" env:"REGION" default:"US" description:"Region code hint for search queries"`
	Language      string `long:"language" env:"LANGUAGE" default:"en" description:"Relevance language hint for search queries"`

	// Application configuration
	Port string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"TubeTab/1.0" description:"User agent string for HTTP requests"`
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
		ChannelsFile:    raw.ChannelsFile,
		CachePath:       raw.CachePath,
		CacheTTL:        raw.CacheTTL,
		MaxVideos:       raw.MaxVideos,
		MinResults:      raw.MinResults,
		PageSize:        raw.PageSize,
		FetchTimeout:    raw.FetchTimeout,
		PollInterval:    raw.PollInterval,
		RelevanceFilter: !raw.DisableRelevanceFilter,
		YouTubeAPIKey:   raw.YouTubeAPIKey,
		Region:          raw.Region,
		Language:        raw.Language,
		Port:            raw.Port,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
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
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
