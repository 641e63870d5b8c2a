package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractHandle(t *testing.T) {
	cases := []struct {
		text   string
		handle string
		ok     bool
	}{
		{"https://www.tiktok.com/@some_user", "some_user", true},
		{"https://tiktok.com/@some.user123", "some.user123", true},
		{"tiktok.com/@User_Name", "User_Name", true},
		{"check this out https://www.tiktok.com/@embedded please", "embedded", true},
		{"HTTPS://WWW.TIKTOK.COM/@CAPS", "CAPS", true},
		{"@bare_handle", "bare_handle", true},
		{"bare_handle", "bare_handle", true},
		{"  padded.handle  ", "padded.handle", true},
		{"two words here", "", false},
		{"", "", false},
		{"https://example.com/@other_site", "", false},
	}
	for _, c := range cases {
		handle, ok := ExtractHandle(c.text)
		require.Equal(t, c.ok, ok, "text: %q", c.text)
		require.Equal(t, c.handle, handle, "text: %q", c.text)
	}
}

func TestExtractHandlePrefersLinkOverBareText(t *testing.T) {
	handle, ok := ExtractHandle("tiktok.com/@linked")
	require.True(t, ok)
	require.Equal(t, "linked", handle)
}

func TestSuggest(t *testing.T) {
	known := []string{"alice_smith", "bob.jones", "charlie99"}

	suggestion, ok := Suggest("alice_smih", known)
	require.True(t, ok)
	require.Equal(t, "alice_smith", suggestion)

	_, ok = Suggest("completely_different", known)
	require.False(t, ok)

	_, ok = Suggest("anything", nil)
	require.False(t, ok)
}
