package engine

import (
	"net/url"
	"strings"

	"sjsage522/alkotekaworker/internal/spider"
)

// dupeFilter remembers request fingerprints for one run. It is only touched
// by the dispatch loop.
type dupeFilter struct {
	seen map[string]struct{}
}

func newDupeFilter() *dupeFilter {
	return &dupeFilter{seen: make(map[string]struct{})}
}

// Seen records req and reports whether an equivalent request was recorded before
func (f *dupeFilter) Seen(req spider.Request) bool {
	fp := fingerprint(req)
	if _, ok := f.seen[fp]; ok {
		return true
	}
	f.seen[fp] = struct{}{}
	return false
}

// fingerprint is the method plus the URL with its query sorted, so parameter
// order does not matter.
func fingerprint(req spider.Request) string {
	u, err := url.Parse(req.URL)
	if err != nil {
		return req.Method() + " " + req.URL
	}
	u.RawQuery = u.Query().Encode()
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return req.Method() + " " + u.String()
}
