package marketdata

import (
	"fmt"
	"time"

	"tokenpulse/internal/domain"
)

// listingsResponse is the provider's listings payload: a status envelope plus
// the ranked data array.
type listingsResponse struct {
	Status statusEnvelope `json:"status"`
	Data   []listingEntry `json:"data"`
}

// statusEnvelope carries the provider-level error code. Zero means success
// regardless of transport status.
type statusEnvelope struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type listingEntry struct {
	ID                int64                 `json:"id"`
	Name              string                `json:"name"`
	Symbol            string                `json:"symbol"`
	Slug              string                `json:"slug"`
	Tags              []string              `json:"tags"`
	DateAdded         string                `json:"date_added"`
	Rank              int                   `json:"cmc_rank"`
	CirculatingSupply float64               `json:"circulating_supply"`
	Platform          *platformEntry        `json:"platform"`
	Quote             map[string]quoteEntry `json:"quote"`
}

type platformEntry struct {
	Name string `json:"name"`
}

type quoteEntry struct {
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`
	Volume24h float64 `json:"volume_24h"`
}

// toListing maps one wire entry into the domain shape.
func toListing(e listingEntry) (*domain.TokenListing, error) {
	listing := &domain.TokenListing{
		ExternalID:        e.ID,
		Name:              e.Name,
		Symbol:            e.Symbol,
		Slug:              e.Slug,
		Tags:              e.Tags,
		Rank:              e.Rank,
		CirculatingSupply: e.CirculatingSupply,
	}

	if e.Platform != nil && e.Platform.Name != "" {
		name := e.Platform.Name
		listing.Platform = &name
	}

	if e.DateAdded != "" {
		t, err := time.Parse(time.RFC3339, e.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("parse date_added %q: %w", e.DateAdded, err)
		}
		ms := t.UnixMilli()
		listing.DateAdded = &ms
	}

	quote, ok := e.Quote[quoteCurrency]
	if !ok {
		return nil, fmt.Errorf("listing %d (%s) has no %s quote", e.ID, e.Symbol, quoteCurrency)
	}
	listing.Price = quote.Price
	listing.MarketCap = quote.MarketCap
	listing.Volume24h = quote.Volume24h

	return listing, nil
}
