package api

import (
	"fmt"
	"regexp"
	"strconv"
)

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// formatDuration renders an ISO-8601 duration as a clock string: PT1H2M3S
// becomes "1:02:03", PT12M34S becomes "12:34". Unparseable input renders as
// an empty string so the consumer can omit the badge.
func formatDuration(iso string) string {
	match := durationPattern.FindStringSubmatch(iso)
	if match == nil {
		return ""
	}

	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// formatViews renders a view count the way video platforms do: 1.2M views,
// 3.4K views, 999 views.
func formatViews(count int64) string {
	switch {
	case count >= 1000000:
		return fmt.Sprintf("%.1fM views", float64(count)/1000000)
	case count >= 1000:
		return fmt.Sprintf("%.1fK views", float64(count)/1000)
	default:
		return fmt.Sprintf("%d views", count)
	}
}
