// Package pagesource defines the narrow capability surface the export
// engine needs from a rendered page: navigation, selector queries,
// scroll control and clicks. Implementations range from a static
// goquery-backed document (tests, saved DOM snapshots) to a live
// browser session driven out of tree.
package pagesource

import (
	"context"
	"fmt"
	"time"
)

var ErrWaitTimeout = fmt.Errorf("element did not appear within the wait timeout")

// Queryable is anything that can resolve a CSS selector to its first
// matching element: a whole page or a single element's subtree.
type Queryable interface {
	Query(selector string) (Element, bool)
}

type Page interface {
	Queryable

	// Navigate loads a url, waiting at most timeout for the document
	// to be available.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	URL() string

	// WaitFor blocks until the selector matches something or the
	// timeout elapses, in which case it returns ErrWaitTimeout.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	QueryAll(selector string) []Element

	// ScrollExtent reports the scrollable extent of the first
	// container matching the selector.
	ScrollExtent(selector string) (int64, bool)
	ScrollToTop(selector string) bool
	ScrollToBottom(selector string) bool

	Click(ctx context.Context, el Element) error
}

type Element interface {
	Queryable

	QueryAll(selector string) []Element
	Text() string
	Attr(name string) (string, bool)

	// Closest walks up the ancestor chain to the nearest element
	// matching the selector.
	Closest(selector string) (Element, bool)
	// Prev returns the element's immediately preceding sibling.
	Prev() (Element, bool)
}
