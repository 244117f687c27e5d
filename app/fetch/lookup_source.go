package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tubetab/tubetab/app/cfg"
	"github.com/tubetab/tubetab/app/video"
)

// LookupSource retrieves a single video's metadata directly by id via the
// YouTube Data API v3. Like the search source it requires an API key.
type LookupSource struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	timeout    time.Duration
}

func NewLookupSource(httpClient *http.Client) *LookupSource {
	c := cfg.Get()

	return &LookupSource{
		httpClient: httpClient,
		baseURL:    defaultAPIBaseURL,
		apiKey:     c.YouTubeAPIKey,
		userAgent:  c.UserAgent,
		timeout:    time.Duration(c.FetchTimeout) * time.Second,
	}
}

func (s *LookupSource) Available() bool {
	return s.apiKey != ""
}

// Lookup returns the video identified by videoID, or an empty slice when the
// id is unknown.
func (s *LookupSource) Lookup(ctx context.Context, videoID string) ([]video.Record, error) {
	if !s.Available() {
		return nil, fmt.Errorf("lookup source unavailable: no API key configured")
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", videoID)
	params.Set("key", s.apiKey)

	var resp videoListResponse
	if err := getJSON(ctx, s.httpClient, s.userAgent, s.baseURL+"/videos?"+params.Encode(), s.timeout, &resp); err != nil {
		return nil, fmt.Errorf("video lookup failed: %w", err)
	}

	records := make([]video.Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID == "" {
			continue
		}
		rec := recordFromSnippet(item.ID, item.Snippet)
		rec.Duration = item.ContentDetails.Duration
		rec.ViewCount = parseViewCount(item.Statistics.ViewCount)
		records = append(records, rec)
	}

	return records, nil
}
