package relay

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var (
	// profile links: tiktok.com/@username, with or without scheme and
	// www prefix
	profileLinkRe = regexp.MustCompile(`(?i)tiktok\.com/@([a-zA-Z0-9_.]+)`)
	// a bare handle typed directly, optionally with a leading @
	bareHandleRe = regexp.MustCompile(`^@?([a-zA-Z0-9_.]+)$`)
)

// ExtractHandle pulls an account handle out of a free-text message. A
// profile link anywhere in the text wins, otherwise the whole trimmed
// message must itself look like a handle.
func ExtractHandle(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	match := profileLinkRe.FindStringSubmatch(text)
	if match != nil {
		return match[1], true
	}

	match = bareHandleRe.FindStringSubmatch(strings.TrimSpace(text))
	if match != nil {
		return match[1], true
	}
	return "", false
}

const suggestionThreshold = 0.85

// Suggest returns the known handle most similar to the one that missed,
// when the similarity is high enough to plausibly be a typo.
func Suggest(handle string, known []string) (string, bool) {
	var mostSimilarity float64
	var mostSimilar string

	for _, candidate := range known {
		similarity := matchr.JaroWinkler(strings.ToLower(handle), strings.ToLower(candidate), false)
		if similarity > mostSimilarity {
			mostSimilarity = similarity
			mostSimilar = candidate
		}
	}

	if mostSimilarity < suggestionThreshold {
		return "", false
	}
	return mostSimilar, true
}
