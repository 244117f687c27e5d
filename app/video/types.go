package video

import (
	"time"
)

// Thumbnails holds the three fixed-resolution thumbnail URLs for a video.
type Thumbnails struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// Record is the canonical video shape every source normalizes into. VideoID
// is the sole identity key: two records with equal VideoID are the same video
// regardless of which source produced them.
type Record struct {
	VideoID      string     `json:"video_id"`
	Title        string     `json:"title"`
	PublishedAt  time.Time  `json:"published_at"`
	Description  string     `json:"description,omitempty"`
	Thumbnails   Thumbnails `json:"thumbnails"`
	ChannelTitle string     `json:"channel_title"`
	ChannelID    string     `json:"channel_id"`
	Duration     string     `json:"duration,omitempty"` // ISO-8601, e.g. PT12M34S
	ViewCount    int64      `json:"view_count,omitempty"`
}

// Details carries the supplementary metadata fetched in a second pass keyed
// by video id.
type Details struct {
	Duration  string
	ViewCount int64
}
