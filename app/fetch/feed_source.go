package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tubetab/tubetab/app/catalog"
	"github.com/tubetab/tubetab/app/cfg"
	"github.com/tubetab/tubetab/app/video"
)

const defaultFeedBaseURL = "https://www.youtube.com/feeds/videos.xml"

// FeedSource retrieves a channel's recent uploads via the public Atom feed.
// Identifier support is inconsistent across YouTube's naming schemes, so each
// channel is tried against an ordered list of endpoint variants; the first
// one returning a parseable payload wins.
type FeedSource struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	normalizer *video.Normalizer
	baseURL    string
	userAgent  string
	timeout    time.Duration
}

func NewFeedSource(httpClient *http.Client) *FeedSource {
	c := cfg.Get()

	return &FeedSource{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		normalizer: video.NewNormalizer(),
		baseURL:    defaultFeedBaseURL,
		userAgent:  c.UserAgent,
		timeout:    time.Duration(c.FetchTimeout) * time.Second,
	}
}

// Fetch returns the channel's normalized recent videos, or an error when
// every endpoint variant failed.
func (s *FeedSource) Fetch(ctx context.Context, ch catalog.Channel) ([]video.Record, error) {
	var lastErr error

	for _, endpoint := range s.endpoints(ch) {
		records, err := s.fetchEndpoint(ctx, endpoint, ch)
		if err != nil {
			slog.Debug("Feed endpoint failed", "channel", ch.Name, "endpoint", endpoint, "error", err)
			lastErr = err
			continue
		}
		return records, nil
	}

	return nil, fmt.Errorf("all feed endpoints failed for channel %s: %w", ch.Name, lastErr)
}

// endpoints lists the retrieval variants in priority order: canonical
// channel-id feed, uploads-playlist feed derived from the id, then the
// legacy username feed addressed by handle.
func (s *FeedSource) endpoints(ch catalog.Channel) []string {
	endpoints := []string{
		s.baseURL + "?channel_id=" + url.QueryEscape(ch.ID),
	}

	if uploads := uploadsPlaylistID(ch.ID); uploads != "" {
		endpoints = append(endpoints, s.baseURL+"?playlist_id="+url.QueryEscape(uploads))
	}

	if ch.Handle != "" {
		endpoints = append(endpoints, s.baseURL+"?user="+url.QueryEscape(ch.Handle))
	}

	return endpoints
}

func (s *FeedSource) fetchEndpoint(ctx context.Context, endpoint string, ch catalog.Channel) ([]video.Record, error) {
	data, err := getBody(ctx, s.httpClient, s.userAgent, endpoint, s.timeout)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	records := make([]video.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		rec, ok := s.normalizer.FromFeedItem(item, ch)
		if !ok {
			// Expected for malformed entries; siblings are unaffected.
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// uploadsPlaylistID derives the uploads playlist id (UU…) from a canonical
// channel id (UC…).
func uploadsPlaylistID(channelID string) string {
	if rest, found := strings.CutPrefix(channelID, "UC"); found && rest != "" {
		return "UU" + rest
	}
	return ""
}
