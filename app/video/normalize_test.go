package video

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tubetab/tubetab/app/catalog"
)

const channelFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">
  <title>Alpha uploads</title>
  <updated>2025-08-21T08:00:00+00:00</updated>
  <entry>
    <id>yt:video:vid_aaa01</id>
    <yt:videoId>vid_aaa01</yt:videoId>
    <title>Build a Shopify theme from scratch</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=vid_aaa01"/>
    <published>2025-08-20T10:00:00+00:00</published>
    <updated>2025-08-21T08:00:00+00:00</updated>
    <media:group>
      <media:description>Full theme walkthrough</media:description>
    </media:group>
  </entry>
  <entry>
    <id>entry-without-yt-namespace</id>
    <title>Video with only a watch link</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=vid_bbb02"/>
    <published>2025-08-19T09:30:00+00:00</published>
    <updated>2025-08-19T09:30:00+00:00</updated>
  </entry>
  <entry>
    <id>yt:video:vid_ccc03</id>
    <title>Video identified by GUID only</title>
    <published>2025-08-18T12:00:00+00:00</published>
    <updated>2025-08-18T12:00:00+00:00</updated>
  </entry>
  <entry>
    <id>malformed-entry</id>
    <title>No resolvable id anywhere</title>
    <published>2025-08-17T12:00:00+00:00</published>
    <updated>2025-08-17T12:00:00+00:00</updated>
  </entry>
</feed>`

func parseTestFeed(t *testing.T) *gofeed.Feed {
	t.Helper()

	feed, err := gofeed.NewParser().Parse(strings.NewReader(channelFeedXML))
	if err != nil {
		t.Fatalf("Failed to parse test feed: %v", err)
	}
	if len(feed.Items) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(feed.Items))
	}
	return feed
}

func TestNormalizer_FromFeedItem(t *testing.T) {
	feed := parseTestFeed(t)
	normalizer := NewNormalizer()
	ch := catalog.Channel{ID: "UCalpha", Name: "Alpha"}

	rec, ok := normalizer.FromFeedItem(feed.Items[0], ch)
	if !ok {
		t.Fatal("Expected first entry to normalize")
	}

	if rec.VideoID != "vid_aaa01" {
		t.Errorf("Expected video id 'vid_aaa01', got '%s'", rec.VideoID)
	}
	if rec.Title != "Build a Shopify theme from scratch" {
		t.Errorf("Unexpected title: %s", rec.Title)
	}
	if rec.ChannelTitle != "Alpha" || rec.ChannelID != "UCalpha" {
		t.Errorf("Channel attribution lost: %s / %s", rec.ChannelTitle, rec.ChannelID)
	}

	expected := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	if !rec.PublishedAt.Equal(expected) {
		t.Errorf("Expected published %v, got %v", expected, rec.PublishedAt)
	}
}

func TestNormalizer_DescriptionFromMediaGroup(t *testing.T) {
	feed := parseTestFeed(t)
	normalizer := NewNormalizer()

	rec, ok := normalizer.FromFeedItem(feed.Items[0], catalog.Channel{ID: "UCalpha", Name: "Alpha"})
	if !ok {
		t.Fatal("Expected entry to normalize")
	}

	if rec.Description != "Full theme walkthrough" {
		t.Errorf("Expected media-group description, got '%s'", rec.Description)
	}
}

func TestNormalizer_VideoIDFallbacks(t *testing.T) {
	feed := parseTestFeed(t)
	normalizer := NewNormalizer()
	ch := catalog.Channel{ID: "UCalpha", Name: "Alpha"}

	// Watch-link "v" parameter
	rec, ok := normalizer.FromFeedItem(feed.Items[1], ch)
	if !ok {
		t.Fatal("Expected link-only entry to normalize")
	}
	if rec.VideoID != "vid_bbb02" {
		t.Errorf("Expected video id from watch link, got '%s'", rec.VideoID)
	}

	// GUID yt:video: form
	rec, ok = normalizer.FromFeedItem(feed.Items[2], ch)
	if !ok {
		t.Fatal("Expected GUID-only entry to normalize")
	}
	if rec.VideoID != "vid_ccc03" {
		t.Errorf("Expected video id from GUID, got '%s'", rec.VideoID)
	}
}

func TestNormalizer_DropsUnresolvableEntries(t *testing.T) {
	feed := parseTestFeed(t)
	normalizer := NewNormalizer()

	if _, ok := normalizer.FromFeedItem(feed.Items[3], catalog.Channel{ID: "UCalpha", Name: "Alpha"}); ok {
		t.Error("Entry without a resolvable video id should be dropped")
	}
}

func TestSynthesizeThumbnails(t *testing.T) {
	thumbs := SynthesizeThumbnails("vid_aaa01")

	if thumbs.Small != "https://i.ytimg.com/vi/vid_aaa01/default.jpg" {
		t.Errorf("Unexpected small thumbnail: %s", thumbs.Small)
	}
	if thumbs.Medium != "https://i.ytimg.com/vi/vid_aaa01/mqdefault.jpg" {
		t.Errorf("Unexpected medium thumbnail: %s", thumbs.Medium)
	}
	if thumbs.Large != "https://i.ytimg.com/vi/vid_aaa01/hqdefault.jpg" {
		t.Errorf("Unexpected large thumbnail: %s", thumbs.Large)
	}
}

func TestMergeDetails(t *testing.T) {
	records := []Record{
		{VideoID: "a", Title: "First"},
		{VideoID: "b", Title: "Second"},
	}

	details := map[string]Details{
		"a": {Duration: "PT12M34S", ViewCount: 1500},
	}

	merged := MergeDetails(records, details)

	if merged[0].Duration != "PT12M34S" || merged[0].ViewCount != 1500 {
		t.Errorf("Details not merged: %+v", merged[0])
	}
	if merged[1].Duration != "" || merged[1].ViewCount != 0 {
		t.Errorf("Record without details should be unchanged: %+v", merged[1])
	}

	// Empty details map is a no-op
	same := MergeDetails(records, nil)
	if len(same) != 2 || same[0].Duration != "" {
		t.Error("Merging nil details should leave records unchanged")
	}
}
