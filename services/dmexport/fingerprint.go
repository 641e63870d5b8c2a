package dmexport

import (
	"fmt"
	"regexp"
)

var whitespace = regexp.MustCompile(`\s`)

// Fingerprint derives the dedup identity of a message from its
// content, time label and author, with every whitespace character
// removed. Capture time is deliberately excluded so re-extracting an
// unchanged message yields the same fingerprint.
func Fingerprint(msg Message) string {
	joined := fmt.Sprintf("%s_%s_%s", msg.Text, msg.Time, msg.Author)
	return whitespace.ReplaceAllString(joined, "")
}

type FingerprintSet map[string]struct{}

func NewFingerprintSet(hashes []string) FingerprintSet {
	set := make(FingerprintSet, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	return set
}

func (s FingerprintSet) Has(hash string) bool {
	_, ok := s[hash]
	return ok
}

// IsNew reports whether the message's fingerprint has not been seen
// before. Distinct messages hashing equal is an accepted collision
// risk of content-based identity.
func (s FingerprintSet) IsNew(msg Message) bool {
	return !s.Has(Fingerprint(msg))
}
