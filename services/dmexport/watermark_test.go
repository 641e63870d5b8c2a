package dmexport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeLabelClock(t *testing.T) {
	now := time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)

	resolved, err := ParseTimeLabel("12:45", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 14, 12, 45, 0, 0, time.UTC), resolved)
}

func TestParseTimeLabelMidnightRollover(t *testing.T) {
	// shortly after midnight, yesterday's messages still carry a
	// clock label that would otherwise resolve to the future
	now := time.Date(2024, time.January, 2, 0, 10, 0, 0, time.UTC)

	resolved, err := ParseTimeLabel("23:50", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.January, 1, 23, 50, 0, 0, time.UTC), resolved)
}

func TestParseTimeLabelAbsolute(t *testing.T) {
	now := time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)

	testCases := []struct {
		label    string
		expected time.Time
	}{
		{"3/2/2024", time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-02-29", time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{"Jan 5, 2024", time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)},
		{"3/2/2024 18:45", time.Date(2024, time.March, 2, 18, 45, 0, 0, time.UTC)},
	}
	for _, test := range testCases {
		resolved, err := ParseTimeLabel(test.label, now)
		require.NoError(t, err, test.label)
		require.Equal(t, test.expected, resolved, test.label)
	}
}

func TestParseTimeLabelUnparseable(t *testing.T) {
	now := time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)

	for _, label := range []string{"", "Yesterday", "25:99", "???"} {
		_, err := ParseTimeLabel(label, now)
		require.Error(t, err, label)
	}
}
