package stub

import (
	"context"
	"fmt"

	"tokenpulse/internal/domain"
)

// Source implements the pipeline's listing source for testing and memory
// mode. It serves either a fixed listing or a deterministic generated one.
type Source struct {
	// Listings, when set, is returned as-is (truncated to limit).
	Listings []*domain.TokenListing

	// Err, when set, is returned instead of a listing.
	Err error
}

// New creates a stub source that generates deterministic listings.
func New() *Source {
	return &Source{}
}

// TopListing returns the configured or generated listing, truncated to limit.
func (s *Source) TopListing(_ context.Context, limit int) ([]*domain.TokenListing, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	if s.Listings != nil {
		if len(s.Listings) > limit {
			return s.Listings[:limit], nil
		}
		return s.Listings, nil
	}

	listings := make([]*domain.TokenListing, 0, limit)
	for i := 1; i <= limit; i++ {
		price := 10000.0 / float64(i)
		listings = append(listings, &domain.TokenListing{
			ExternalID:        int64(i),
			Name:              fmt.Sprintf("Token %04d", i),
			Symbol:            fmt.Sprintf("TK%04d", i),
			Slug:              fmt.Sprintf("token-%04d", i),
			Tags:              []string{"stub"},
			Rank:              i,
			Price:             price,
			MarketCap:         price * 1e6,
			CirculatingSupply: 1e6,
			Volume24h:         price * 1e4,
		})
	}
	return listings, nil
}
