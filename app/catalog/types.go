package catalog

// Channel is a single content source from the catalog file. Loaded once at
// startup and never mutated afterwards.
type Channel struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Handle   string `yaml:"handle,omitempty"`
	Category string `yaml:"category,omitempty"`
	Language string `yaml:"language,omitempty"`
}

type catalogFile struct {
	Channels         []Channel `yaml:"channels"`
	FallbackChannels []Channel `yaml:"fallback_channels"`
	BlockedChannels  []string  `yaml:"blocked_channels"`
	Keywords         []string  `yaml:"keywords"`
	SearchQueries    []string  `yaml:"search_queries"`
}
