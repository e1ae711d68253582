package extractor

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls outbound hyperlinks out of an HTML document.
type Extractor struct {
	// ResolveRelative resolves relative hrefs against the page URL. When
	// false only absolute hrefs are kept and relative ones are dropped
	// together with unparseable ones.
	ResolveRelative bool
}

// ExtractLinks parses r as HTML and returns the target of every a[href].
// Hrefs that do not parse are discarded silently.
func (e Extractor) ExtractLinks(base *url.URL, r io.Reader) ([]*url.URL, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var links []*url.URL
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link, ok := e.parse(base, href); ok {
			links = append(links, link)
		}
	})
	return links, nil
}

func (e Extractor) parse(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, false
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	if u.IsAbs() {
		return u, true
	}
	if !e.ResolveRelative || base == nil {
		return nil, false
	}
	return base.ResolveReference(u), true
}
