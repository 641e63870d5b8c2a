// Package static implements pagesource over a fixed HTML document:
// either a literal string (tests, saved DOM snapshots) or a document
// fetched over plain HTTP. There is no script execution, the page
// shows exactly what was captured.
package static

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dmexport-backend/lib/pagesource"
	"dmexport-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Page struct {
	http *resty.Client
	doc  *goquery.Document
	url  string
}

var _ pagesource.Page = (*Page)(nil)

// NewPage returns an empty page backed by an HTTP fetcher. Navigate
// replaces the document with the fetched response body.
func NewPage() *Page {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "pagesource/static")

	return &Page{http: client}
}

// NewPageFromHTML builds a page over a literal HTML document.
func NewPageFromHTML(contents string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	if err != nil {
		return nil, err
	}
	return &Page{doc: doc}, nil
}

// SetHTML swaps the rendered document in place, keeping the current
// url. Orchestrator tests use this to simulate navigation.
func (p *Page) SetHTML(contents string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	if err != nil {
		return err
	}
	p.doc = doc
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if p.http == nil {
		// literal pages have no transport, treat navigation as a
		// no-op so one saved snapshot can serve a whole pass
		p.url = url
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := p.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("fetch %s: status %s", url, res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		return err
	}
	p.doc = doc
	p.url = url
	return nil
}

func (p *Page) URL() string {
	return p.url
}

// WaitFor on a static document cannot observe change, so the element
// is either already there or it never will be.
func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if p.doc == nil {
		return pagesource.ErrWaitTimeout
	}
	if p.doc.Find(selector).Length() == 0 {
		return pagesource.ErrWaitTimeout
	}
	return nil
}

func (p *Page) Query(selector string) (pagesource.Element, bool) {
	if p.doc == nil {
		return nil, false
	}
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return element{sel: sel}, true
}

func (p *Page) QueryAll(selector string) []pagesource.Element {
	if p.doc == nil {
		return nil
	}
	var out []pagesource.Element
	p.doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		out = append(out, element{sel: sel})
	})
	return out
}

// ScrollExtent reports the container's child count, a constant for a
// static document, so convergence polling terminates immediately.
func (p *Page) ScrollExtent(selector string) (int64, bool) {
	if p.doc == nil {
		return 0, false
	}
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return 0, false
	}
	return int64(sel.Children().Length()), true
}

func (p *Page) ScrollToTop(selector string) bool {
	return p.hasContainer(selector)
}

func (p *Page) ScrollToBottom(selector string) bool {
	return p.hasContainer(selector)
}

func (p *Page) hasContainer(selector string) bool {
	return p.doc != nil && p.doc.Find(selector).Length() > 0
}

// Click is a no-op: a static capture already renders whatever detail
// view was open when it was taken.
func (p *Page) Click(ctx context.Context, el pagesource.Element) error {
	return nil
}

type element struct {
	sel *goquery.Selection
}

var _ pagesource.Element = element{}

func (e element) Query(selector string) (pagesource.Element, bool) {
	sel := e.sel.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return element{sel: sel}, true
}

func (e element) QueryAll(selector string) []pagesource.Element {
	var out []pagesource.Element
	e.sel.Find(selector).Each(func(i int, sel *goquery.Selection) {
		out = append(out, element{sel: sel})
	})
	return out
}

func (e element) Text() string {
	return e.sel.Text()
}

func (e element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e element) Closest(selector string) (pagesource.Element, bool) {
	sel := e.sel.Closest(selector)
	if sel.Length() == 0 {
		return nil, false
	}
	return element{sel: sel}, true
}

func (e element) Prev() (pagesource.Element, bool) {
	sel := e.sel.Prev()
	if sel.Length() == 0 {
		return nil, false
	}
	return element{sel: sel}, true
}
