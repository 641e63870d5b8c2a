package dmexport

import (
	"context"
	"strings"
	"time"

	"dmexport-backend/lib/pagesource"

	"go.opentelemetry.io/otel/attribute"
)

// AuthorUnknown is the sentinel author for messages whose avatar link
// never resolves.
const AuthorUnknown = "Unknown"

const (
	selMessageItem   = `[data-e2e="chat-item"]`
	selTextContainer = `[class*="TextContainer"]`
	selAvatar        = `[data-e2e="chat-avatar"]`
	selItemWrapper   = `[class*="ChatItemWrapper"]`
	selTimeLabel     = `[class*="TimeContainer"] span`
)

// the upstream markup is obfuscated and shifts between releases, so
// every field lookup degrades through a chain instead of trusting one
// selector
var (
	mediaMarkers = pagesource.Fallback{
		`[class*="VideoContainer"]`,
		`[class*="ImageContainer"]`,
	}
	textLocators = pagesource.Fallback{
		`[class*="PText"]`,
		`p`,
	}
)

// ExtractMessages turns every currently rendered message container
// into a Message, preserving rendered order. Items carrying a media
// marker, lacking a text container, or whose text trims to nothing are
// dropped; a missing author or time label degrades to a default and
// never drops the item.
func ExtractMessages(ctx context.Context, page pagesource.Page, now func() time.Time) []Message {
	ctx, span := tracer.Start(ctx, "ExtractMessages")
	defer span.End()

	items := page.QueryAll(selMessageItem)

	var messages []Message
	for _, item := range items {
		msg, ok := extractMessage(item, now)
		if !ok {
			continue
		}
		messages = append(messages, msg)
	}

	span.SetAttributes(
		attribute.Int("rendered", len(items)),
		attribute.Int("extracted", len(messages)),
	)
	return messages
}

func extractMessage(item pagesource.Element, now func() time.Time) (Message, bool) {
	// media messages carry no exportable text
	if _, ok := mediaMarkers.Query(item); ok {
		return Message{}, false
	}

	textContainer, ok := item.Query(selTextContainer)
	if !ok {
		return Message{}, false
	}
	textEl, ok := textLocators.Query(textContainer)
	if !ok {
		return Message{}, false
	}
	text := strings.TrimSpace(textEl.Text())
	if text == "" {
		return Message{}, false
	}

	return Message{
		Text:      text,
		Time:      extractTimeLabel(item),
		Author:    extractAuthor(item),
		Timestamp: now().UnixMilli(),
	}, true
}

func extractAuthor(item pagesource.Element) string {
	avatar, ok := item.Query(selAvatar)
	if !ok {
		return AuthorUnknown
	}
	link, ok := avatar.Closest("a")
	if !ok {
		return AuthorUnknown
	}
	href, ok := link.Attr("href")
	if !ok {
		return AuthorUnknown
	}
	return strings.TrimPrefix(href, "/@")
}

// timestamps render in a sibling row one level above the message
// wrapper, not inside the message container itself
func extractTimeLabel(item pagesource.Element) string {
	wrapper, ok := item.Closest(selItemWrapper)
	if !ok {
		return ""
	}
	prev, ok := wrapper.Prev()
	if !ok {
		return ""
	}
	label, ok := prev.Query(selTimeLabel)
	if !ok {
		return ""
	}
	return strings.TrimSpace(label.Text())
}
