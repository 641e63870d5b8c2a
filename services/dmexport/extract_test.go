package dmexport

import (
	"context"
	"testing"
	"time"

	"dmexport-backend/lib/pagesource/static"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)
}

const messagePaneFixture = `
<html><body><div class="ChatBox-x1">
  <div><div class="TimeContainer-x1"><span>10:00</span></div></div>
  <div class="ChatItemWrapper-x1">
    <div data-e2e="chat-item">
      <a href="/@alice"><span data-e2e="chat-avatar"></span></a>
      <div class="TextContainer-x1"><p class="PText-x1">  first message </p></div>
    </div>
  </div>

  <div class="ChatItemWrapper-x1">
    <div data-e2e="chat-item">
      <div class="VideoContainer-x1"></div>
      <div class="TextContainer-x1"><p class="PText-x1">video caption</p></div>
    </div>
  </div>

  <div class="ChatItemWrapper-x1">
    <div data-e2e="chat-item">
      <div class="ImageContainer-x1"></div>
    </div>
  </div>

  <div class="ChatItemWrapper-x1">
    <div data-e2e="chat-item">
      <div class="TextContainer-x1"><p class="PText-x1">   </p></div>
    </div>
  </div>

  <div class="ChatItemWrapper-x1">
    <div data-e2e="chat-item">
      <div class="TextContainer-x1"><p>fallback paragraph</p></div>
    </div>
  </div>

  <div data-e2e="chat-item">
    <div class="TextContainer-x1"><p class="PText-x1">no wrapper row</p></div>
  </div>
</div></body></html>`

func TestExtractMessages(t *testing.T) {
	page, err := static.NewPageFromHTML(messagePaneFixture)
	require.NoError(t, err)

	messages := ExtractMessages(context.Background(), page, fixedNow)

	expected := []Message{
		{
			Text:      "first message",
			Time:      "10:00",
			Author:    "alice",
			Timestamp: fixedNow().UnixMilli(),
		},
		{
			Text:      "fallback paragraph",
			Time:      "",
			Author:    AuthorUnknown,
			Timestamp: fixedNow().UnixMilli(),
		},
		{
			Text:      "no wrapper row",
			Time:      "",
			Author:    AuthorUnknown,
			Timestamp: fixedNow().UnixMilli(),
		},
	}
	diff := cmp.Diff(expected, messages)
	require.Empty(t, diff)
}

func TestExtractDropsMediaRegardlessOfText(t *testing.T) {
	page, err := static.NewPageFromHTML(`
<html><body>
  <div data-e2e="chat-item">
    <div class="VideoContainer-a"></div>
    <div class="TextContainer-a"><p class="PText-a">perfectly extractable text</p></div>
  </div>
</body></html>`)
	require.NoError(t, err)

	messages := ExtractMessages(context.Background(), page, fixedNow)
	require.Empty(t, messages)
}

func TestExtractTimeLabelFromSiblingRow(t *testing.T) {
	// the time row is the wrapper's previous sibling, not a child of
	// the message item
	page, err := static.NewPageFromHTML(`
<html><body>
  <div><div class="TimeContainer-b"><span>Yesterday 21:14</span></div></div>
  <div class="ChatItemWrapper-b">
    <div data-e2e="chat-item">
      <div class="TextContainer-b"><p class="PText-b">evening message</p></div>
    </div>
  </div>
</body></html>`)
	require.NoError(t, err)

	messages := ExtractMessages(context.Background(), page, fixedNow)
	require.Len(t, messages, 1)
	require.Equal(t, "Yesterday 21:14", messages[0].Time)
}
