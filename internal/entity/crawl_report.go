package entity

import "time"

// CrawlReport summarises one completed crawl of a domain.
type CrawlReport struct {
	ID      string
	Domain  string
	URLs    []string // every visited or recorded URL, unordered
	Rounds  int
	Fetched int
	Failed  int
	Elapsed time.Duration
}
