package domain

// TokenListing is one raw entry of the provider's ranked listing,
// as of a single consistent snapshot moment on the provider side.
type TokenListing struct {
	ExternalID        int64    // provider's stable id
	Name              string
	Symbol            string
	Slug              string
	Tags              []string // may be empty; empty means "no information", not "clear"
	Platform          *string  // chain/platform name (nullable)
	DateAdded         *int64   // provider launch date in ms (nullable)
	Rank              int
	MarketCap         float64
	Price             float64
	CirculatingSupply float64
	Volume24h         float64
}
