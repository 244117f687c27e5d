package video

import (
	"cmp"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/tubetab/tubetab/app/catalog"
)

// Normalizer converts raw feed entries into canonical records.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// FromFeedItem maps one channel-feed entry to a Record. Entries without a
// resolvable video id are dropped (second return false); that is expected for
// malformed entries, not an error.
func (n *Normalizer) FromFeedItem(item *gofeed.Item, ch catalog.Channel) (Record, bool) {
	videoID := resolveVideoID(item)
	if videoID == "" {
		return Record{}, false
	}

	rec := Record{
		VideoID:      videoID,
		Title:        item.Title,
		Description:  resolveDescription(item),
		Thumbnails:   SynthesizeThumbnails(videoID),
		ChannelTitle: ch.Name,
		ChannelID:    ch.ID,
	}

	if item.PublishedParsed != nil {
		rec.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		rec.PublishedAt = *item.UpdatedParsed
	}

	return rec, true
}

// SynthesizeThumbnails builds the three fixed-resolution thumbnail URLs
// deterministically from a video id.
func SynthesizeThumbnails(videoID string) Thumbnails {
	return Thumbnails{
		Small:  fmt.Sprintf("https://i.ytimg.com/vi/%s/default.jpg", videoID),
		Medium: fmt.Sprintf("https://i.ytimg.com/vi/%s/mqdefault.jpg", videoID),
		Large:  fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID),
	}
}

// MergeDetails folds second-pass duration/statistics into records by video
// id. Records without a matching detail entry are returned unchanged.
func MergeDetails(records []Record, details map[string]Details) []Record {
	if len(details) == 0 {
		return records
	}

	merged := make([]Record, len(records))
	for i, rec := range records {
		if d, ok := details[rec.VideoID]; ok {
			rec.Duration = cmp.Or(d.Duration, rec.Duration)
			if d.ViewCount > 0 {
				rec.ViewCount = d.ViewCount
			}
		}
		merged[i] = rec
	}
	return merged
}

// resolveVideoID tries an ordered list of id carriers: the yt:videoId feed
// extension, the watch-link "v" parameter, then the yt:video GUID form.
func resolveVideoID(item *gofeed.Item) string {
	if exts, ok := item.Extensions["yt"]; ok {
		if ids, ok := exts["videoId"]; ok && len(ids) > 0 && ids[0].Value != "" {
			return ids[0].Value
		}
	}

	if item.Link != "" {
		if u, err := url.Parse(item.Link); err == nil {
			if v := u.Query().Get("v"); v != "" {
				return v
			}
		}
	}

	if rest, found := strings.CutPrefix(item.GUID, "yt:video:"); found && rest != "" {
		return rest
	}

	return ""
}

// resolveDescription prefers the media-group description over the plain entry
// description and content fields.
func resolveDescription(item *gofeed.Item) string {
	if exts, ok := item.Extensions["media"]; ok {
		if groups, ok := exts["group"]; ok && len(groups) > 0 {
			if descs, ok := groups[0].Children["description"]; ok && len(descs) > 0 {
				if descs[0].Value != "" {
					return descs[0].Value
				}
			}
		}
	}

	return cmp.Or(item.Description, item.Content)
}
