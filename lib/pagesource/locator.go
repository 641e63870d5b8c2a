package pagesource

// Fallback is an ordered chain of selectors tried against a query
// root, first match wins. Upstream markup is obfuscated and shifts
// between releases, so most fields are located through a chain rather
// than a single selector.
type Fallback []string

func (f Fallback) Query(root Queryable) (Element, bool) {
	for _, selector := range f {
		el, ok := root.Query(selector)
		if ok {
			return el, true
		}
	}
	return nil, false
}

// First returns the first selector in the chain that matches anything
// on the page, used for containers that are scrolled rather than read.
func (f Fallback) First(page Page) (string, bool) {
	for _, selector := range f {
		_, ok := page.Query(selector)
		if ok {
			return selector, true
		}
	}
	return "", false
}
