package api

import (
	"context"
	"time"

	"github.com/tubetab/tubetab/app/aggregator"
	"github.com/tubetab/tubetab/app/catalog"
	"github.com/tubetab/tubetab/app/video"
)

type LoaderInterface interface {
	Load(ctx context.Context, req aggregator.Request) (*aggregator.Result, error)
	ForceRefresh(ctx context.Context, category string) (*aggregator.Result, error)
	Stats() map[string]any
}

var _ LoaderInterface = (*aggregator.Aggregator)(nil)

type LookupInterface interface {
	Available() bool
	Lookup(ctx context.Context, videoID string) ([]video.Record, error)
}

type CacheStatsInterface interface {
	Stats() map[string]any
}

type Handler struct {
	loader   LoaderInterface
	lookup   LookupInterface
	registry *catalog.Registry
	cache    CacheStatsInterface
	version  string
}

// videoPayload is the presentation shape of a video.Record: raw fields plus
// the human-readable duration and view-count strings the consumer renders.
type videoPayload struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	PublishedAt  time.Time        `json:"published_at"`
	Description  string           `json:"description,omitempty"`
	Thumbnails   video.Thumbnails `json:"thumbnails"`
	ChannelTitle string           `json:"channel_title"`
	ChannelID    string           `json:"channel_id"`
	Duration     string           `json:"duration,omitempty"`
	Views        string           `json:"views,omitempty"`
	URL          string           `json:"url"`
}

func toPayload(rec video.Record) videoPayload {
	payload := videoPayload{
		ID:           rec.VideoID,
		Title:        rec.Title,
		PublishedAt:  rec.PublishedAt,
		Description:  rec.Description,
		Thumbnails:   rec.Thumbnails,
		ChannelTitle: rec.ChannelTitle,
		ChannelID:    rec.ChannelID,
		Duration:     formatDuration(rec.Duration),
		URL:          "https://www.youtube.com/watch?v=" + rec.VideoID,
	}
	if rec.ViewCount > 0 {
		payload.Views = formatViews(rec.ViewCount)
	}
	return payload
}

func toPayloads(records []video.Record) []videoPayload {
	payloads := make([]videoPayload, 0, len(records))
	for _, rec := range records {
		payloads = append(payloads, toPayload(rec))
	}
	return payloads
}
