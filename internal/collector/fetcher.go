package collector

import (
	"context"
	"errors"

	"PriceSentinel/internal/model"
)

// ErrNoPrices means the page was retrieved but no price could be determined from it.
// It is a failure, not an empty listing.
var ErrNoPrices = errors.New("no prices could be determined")

// Fetcher obtains the current price snapshot of a listing.
// A nil error with an empty snapshot means the listing has zero items.
type Fetcher interface {
	Fetch(ctx context.Context) (model.Snapshot, error)
	Name() string
}
