package entity

import "net/url"

// FetchOutcome is the result of fetching one page. A failed fetch carries
// no links and a non-nil Err; callers treat both cases as a plain link set.
type FetchOutcome struct {
	URL   string
	Links []*url.URL
	Err   error
}

// Failed reports whether the page could not be loaded or parsed.
func (o FetchOutcome) Failed() bool {
	return o.Err != nil
}
