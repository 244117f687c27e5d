package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// CategoryAll matches every channel regardless of category tag.
const CategoryAll = "all"

// Registry holds the static channel catalog: the primary channel set, a small
// always-trusted fallback set, the blocked list, the relevance keyword set and
// the search query list. All lookups are pure reads.
type Registry struct {
	channels []Channel
	fallback []Channel
	blocked  map[string]struct{}
	keywords []string
	queries  []string
}

func NewRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if err := validateCatalog(&file); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	blocked := make(map[string]struct{}, len(file.BlockedChannels))
	for _, name := range file.BlockedChannels {
		blocked[normalizeIdentifier(name)] = struct{}{}
	}

	slog.Debug("Catalog loaded", "channels", len(file.Channels),
		"fallback", len(file.FallbackChannels), "blocked", len(file.BlockedChannels),
		"keywords", len(file.Keywords), "queries", len(file.SearchQueries))

	return &Registry{
		channels: file.Channels,
		fallback: file.FallbackChannels,
		blocked:  blocked,
		keywords: file.Keywords,
		queries:  file.SearchQueries,
	}, nil
}

// Channels returns all channels, or those tagged with the given category.
// An empty category or "all" returns the full list.
func (r *Registry) Channels(category string) []Channel {
	if category == "" || category == CategoryAll {
		return r.channels
	}

	matched := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		if strings.EqualFold(ch.Category, category) {
			matched = append(matched, ch)
		}
	}
	return matched
}

// FallbackChannels returns the always-trusted subset used when primary
// sources under-deliver.
func (r *Registry) FallbackChannels() []Channel {
	return r.fallback
}

// IsBlocked reports whether an identifier (display name, handle or channel
// id) is on the blocked list. Matching is case-insensitive and tolerates a
// leading "@".
func (r *Registry) IsBlocked(identifier string) bool {
	if identifier == "" {
		return false
	}
	_, ok := r.blocked[normalizeIdentifier(identifier)]
	return ok
}

func (r *Registry) Keywords() []string {
	return r.keywords
}

func (r *Registry) SearchQueries() []string {
	return r.queries
}

func (r *Registry) Size() int {
	return len(r.channels)
}

func validateCatalog(file *catalogFile) error {
	if len(file.Channels) == 0 {
		return fmt.Errorf("at least one channel is required")
	}

	seen := make(map[string]struct{}, len(file.Channels))
	for i, ch := range file.Channels {
		if err := validateChannel(ch); err != nil {
			return fmt.Errorf("channel at index %d: %w", i, err)
		}
		if _, dup := seen[ch.ID]; dup {
			return fmt.Errorf("duplicate channel id: %s", ch.ID)
		}
		seen[ch.ID] = struct{}{}
	}

	for i, ch := range file.FallbackChannels {
		if err := validateChannel(ch); err != nil {
			return fmt.Errorf("fallback channel at index %d: %w", i, err)
		}
	}

	return nil
}

func validateChannel(ch Channel) error {
	if ch.ID == "" {
		return fmt.Errorf("channel id is required")
	}
	if ch.Name == "" {
		return fmt.Errorf("channel name is required")
	}
	if ch.Language != "" {
		if _, err := language.Parse(ch.Language); err != nil {
			return fmt.Errorf("invalid language tag '%s': %w", ch.Language, err)
		}
	}
	return nil
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(identifier), "@"))
}
