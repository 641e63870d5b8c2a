package static

import (
	"context"
	"testing"
	"time"

	"dmexport-backend/lib/pagesource"

	"github.com/stretchr/testify/require"
)

const fixture = `
<html><body>
  <div class="ChatList-abc123">
    <div data-e2e="chat-list-item">
      <span class="PInfoNickname-x">alice</span>
      <span class="SpanInfoTime-x">14:02</span>
    </div>
    <div data-e2e="chat-list-item">
      <span class="PInfoNickname-x">bob</span>
      <span class="SpanNewMessage-x">2</span>
    </div>
  </div>
  <div class="TimeContainer-x"><span>Yesterday 9:15</span></div>
  <div class="ChatItemWrapper-x">
    <div data-e2e="chat-item">
      <div class="TextContainer-x"><p class="PText-x">hello there</p></div>
      <a href="/@alice"><span data-e2e="chat-avatar"></span></a>
    </div>
  </div>
</body></html>`

func TestQuerySelectors(t *testing.T) {
	page, err := NewPageFromHTML(fixture)
	require.NoError(t, err)

	items := page.QueryAll(`[data-e2e="chat-list-item"]`)
	require.Len(t, items, 2)

	name, ok := items[0].Query(`[class*="InfoNickname"]`)
	require.True(t, ok)
	require.Equal(t, "alice", name.Text())

	_, ok = items[0].Query(`[class*="NewMessage"]`)
	require.False(t, ok)
	_, ok = items[1].Query(`[class*="NewMessage"]`)
	require.True(t, ok)
}

func TestClosestAndPrevSibling(t *testing.T) {
	page, err := NewPageFromHTML(fixture)
	require.NoError(t, err)

	avatar, ok := page.Query(`[data-e2e="chat-avatar"]`)
	require.True(t, ok)
	link, ok := avatar.Closest("a")
	require.True(t, ok)
	href, ok := link.Attr("href")
	require.True(t, ok)
	require.Equal(t, "/@alice", href)

	item, ok := page.Query(`[data-e2e="chat-item"]`)
	require.True(t, ok)
	wrapper, ok := item.Closest(`[class*="ChatItemWrapper"]`)
	require.True(t, ok)
	timeContainer, ok := wrapper.Prev()
	require.True(t, ok)
	label, ok := timeContainer.Query("span")
	require.True(t, ok)
	require.Equal(t, "Yesterday 9:15", label.Text())
}

func TestWaitForStaticDocument(t *testing.T) {
	page, err := NewPageFromHTML(fixture)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, page.WaitFor(ctx, `[data-e2e="chat-list-item"]`, time.Second))

	err = page.WaitFor(ctx, `[data-e2e="no-such-thing"]`, time.Second)
	require.ErrorIs(t, err, pagesource.ErrWaitTimeout)
}

func TestScrollExtentIsStable(t *testing.T) {
	page, err := NewPageFromHTML(fixture)
	require.NoError(t, err)

	extent, ok := page.ScrollExtent(`[class*="ChatList"]`)
	require.True(t, ok)
	require.Equal(t, int64(2), extent)

	require.True(t, page.ScrollToBottom(`[class*="ChatList"]`))
	again, _ := page.ScrollExtent(`[class*="ChatList"]`)
	require.Equal(t, extent, again)
}

func TestFallbackChain(t *testing.T) {
	page, err := NewPageFromHTML(fixture)
	require.NoError(t, err)

	chain := pagesource.Fallback{
		`[class*="conversation-list"]`,
		`[class*="ChatList"]`,
	}
	selector, ok := chain.First(page)
	require.True(t, ok)
	require.Equal(t, `[class*="ChatList"]`, selector)

	item, _ := page.Query(`[data-e2e="chat-list-item"]`)
	name, ok := pagesource.Fallback{
		`[class*="InfoNickname"]`,
		`[class*="username"]`,
	}.Query(item)
	require.True(t, ok)
	require.Equal(t, "alice", name.Text())
}
