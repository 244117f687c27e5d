package fetch

import (
	"time"
)

// YouTube Data API v3 payload shapes, limited to the fields the sources read.

type searchResponse struct {
	Items         []searchItem `json:"items"`
	NextPageToken string       `json:"nextPageToken"`
}

type searchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet snippet `json:"snippet"`
}

type snippet struct {
	PublishedAt  time.Time `json:"publishedAt"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle"`
	Thumbnails   struct {
		Default thumbnail `json:"default"`
		Medium  thumbnail `json:"medium"`
		High    thumbnail `json:"high"`
	} `json:"thumbnails"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID             string  `json:"id"`
	Snippet        snippet `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
}
