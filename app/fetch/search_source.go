package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/tubetab/tubetab/app/cfg"
	"github.com/tubetab/tubetab/app/video"
)

const defaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// SearchSource retrieves newest-first matches for free-text queries via the
// YouTube Data API v3, then merges per-video duration and statistics from a
// second keyed call. It needs an API key; without one it reports itself
// unavailable and the aggregator skips the search tier.
type SearchSource struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	region     string
	language   string
	userAgent  string
	pageSize   int
	timeout    time.Duration
}

func NewSearchSource(httpClient *http.Client) *SearchSource {
	c := cfg.Get()

	return &SearchSource{
		httpClient: httpClient,
		baseURL:    defaultAPIBaseURL,
		apiKey:     c.YouTubeAPIKey,
		region:     c.Region,
		language:   normalizeLanguage(c.Language),
		userAgent:  c.UserAgent,
		pageSize:   c.PageSize,
		timeout:    time.Duration(c.FetchTimeout) * time.Second,
	}
}

func (s *SearchSource) Available() bool {
	return s.apiKey != ""
}

// Search returns up to one page of normalized matches for a query, newest
// first, enriched with duration and view statistics.
func (s *SearchSource) Search(ctx context.Context, query string) ([]video.Record, error) {
	if !s.Available() {
		return nil, fmt.Errorf("search source unavailable: no API key configured")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(s.pageSize))
	params.Set("order", "date")
	params.Set("type", "video")
	params.Set("relevanceLanguage", s.language)
	params.Set("regionCode", s.region)
	params.Set("key", s.apiKey)

	var resp searchResponse
	if err := getJSON(ctx, s.httpClient, s.userAgent, s.baseURL+"/search?"+params.Encode(), s.timeout, &resp); err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	records := make([]video.Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		records = append(records, recordFromSnippet(item.ID.VideoID, item.Snippet))
	}

	return s.enrich(ctx, records), nil
}

// enrich fetches contentDetails and statistics for the given records in one
// keyed call. Enrichment is best-effort: on failure the records are returned
// as-is.
func (s *SearchSource) enrich(ctx context.Context, records []video.Record) []video.Record {
	if len(records) == 0 {
		return records
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.VideoID
	}

	params := url.Values{}
	params.Set("part", "contentDetails,statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", s.apiKey)

	var resp videoListResponse
	if err := getJSON(ctx, s.httpClient, s.userAgent, s.baseURL+"/videos?"+params.Encode(), s.timeout, &resp); err != nil {
		slog.Warn("Detail enrichment failed, returning unenriched records", "count", len(records), "error", err)
		return records
	}

	details := make(map[string]video.Details, len(resp.Items))
	for _, item := range resp.Items {
		details[item.ID] = video.Details{
			Duration:  item.ContentDetails.Duration,
			ViewCount: parseViewCount(item.Statistics.ViewCount),
		}
	}

	return video.MergeDetails(records, details)
}

// recordFromSnippet maps an API snippet to the canonical record, falling back
// to synthesized thumbnails when the payload omits them.
func recordFromSnippet(videoID string, sn snippet) video.Record {
	rec := video.Record{
		VideoID:      videoID,
		Title:        sn.Title,
		PublishedAt:  sn.PublishedAt,
		Description:  sn.Description,
		ChannelTitle: sn.ChannelTitle,
		ChannelID:    sn.ChannelID,
		Thumbnails:   video.SynthesizeThumbnails(videoID),
	}

	if sn.Thumbnails.Default.URL != "" {
		rec.Thumbnails.Small = sn.Thumbnails.Default.URL
	}
	if sn.Thumbnails.Medium.URL != "" {
		rec.Thumbnails.Medium = sn.Thumbnails.Medium.URL
	}
	if sn.Thumbnails.High.URL != "" {
		rec.Thumbnails.Large = sn.Thumbnails.High.URL
	}

	return rec
}

func parseViewCount(raw string) int64 {
	if raw == "" {
		return 0
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return count
}

// normalizeLanguage canonicalizes a configured language hint to its BCP-47
// base form; an unparseable hint falls back to English.
func normalizeLanguage(hint string) string {
	tag, err := language.Parse(hint)
	if err != nil {
		slog.Warn("Invalid language hint, falling back to English", "hint", hint, "error", err)
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}
