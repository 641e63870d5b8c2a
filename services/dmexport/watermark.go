package dmexport

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// layouts tried for absolute last-activity labels, most specific
// first. The upstream UI only renders a handful of shapes.
var absoluteLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006",
	"2006-01-02 15:04",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2",
}

// ParseTimeLabel resolves a chat's raw last-activity label to an
// instant comparable against the export watermark.
//
// Clock-only labels ("HH:MM") mean today in the UI, except right after
// midnight when yesterday's messages still show clock form, so a
// resolved time in the future is rolled back one day. Labels older
// than 24h rendered in clock form would misparse here, an ambiguity
// inherited from the label vocabulary itself.
func ParseTimeLabel(label string, now time.Time) (time.Time, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return time.Time{}, fmt.Errorf("empty time label")
	}

	if hours, minutes, ok := splitClock(label); ok {
		resolved := time.Date(
			now.Year(), now.Month(), now.Day(),
			hours, minutes, 0, 0, now.Location(),
		)
		if resolved.After(now) {
			resolved = resolved.AddDate(0, 0, -1)
		}
		return resolved, nil
	}

	for _, layout := range absoluteLayouts {
		resolved, err := time.ParseInLocation(layout, label, now.Location())
		if err != nil {
			continue
		}
		// layouts without a year parse into year 0
		if resolved.Year() == 0 {
			resolved = resolved.AddDate(now.Year(), 0, 0)
		}
		return resolved, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized time label %q", label)
}

func splitClock(label string) (hours, minutes int, ok bool) {
	if strings.Contains(label, "/") || strings.Contains(label, " ") {
		return 0, 0, false
	}
	parts := strings.Split(label, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, 0, false
	}
	minutes, err = strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, 0, false
	}
	return hours, minutes, true
}
