package repository

import (
	"context"
	"errors"

	"github.com/user/domain-crawler/internal/entity"
)

var (
	ErrFetchTimeout   = errors.New("page fetch timed out")
	ErrFetchFailed    = errors.New("page fetch failed")
	ErrBodyUnreadable = errors.New("page body could not be read")
	ErrParseFailed    = errors.New("page could not be parsed as HTML")
)

// PageFetcher retrieves a single page and extracts its outbound hyperlinks.
type PageFetcher interface {
	// Fetch never fails outward: on any error the outcome has no links and
	// Err set to one of the sentinel errors above.
	Fetch(ctx context.Context, rawURL string) entity.FetchOutcome
}
