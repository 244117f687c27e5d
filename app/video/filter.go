package video

import (
	"strings"
)

// BlockList reports whether a channel identifier is blocked. The catalog
// registry satisfies this.
type BlockList interface {
	IsBlocked(identifier string) bool
}

// Relevant reports whether a title matches any keyword, case-insensitively.
// An empty keyword set matches everything.
func Relevant(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	lowered := strings.ToLower(title)
	for _, keyword := range keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// Blocked reports whether a record's channel is on the blocked list, by
// display name or channel id.
func Blocked(rec Record, blocked BlockList) bool {
	return blocked.IsBlocked(rec.ChannelTitle) || blocked.IsBlocked(rec.ChannelID)
}
