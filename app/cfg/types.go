package cfg

type Cfg struct {
	// Catalog configuration
	ChannelsFile string

	// Cache configuration
	CachePath string
	CacheTTL  int

	// Aggregation configuration
	MaxVideos       int
	MinResults      int
	PageSize        int
	FetchTimeout    int
	PollInterval    int
	RelevanceFilter bool

	// YouTube Data API configuration
	YouTubeAPIKey string
	Region        string
	Language      string

	// Application configuration
	Port string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
