package domain

// TokenSnapshot is one immutable daily measurement of a token.
// Corresponds to token_snapshots table in PostgreSQL; the
// (token_external_id, snapshot_date) pair is unique.
type TokenSnapshot struct {
	TokenExternalID   int64   // FK to tokens.external_id
	SnapshotDate      int64   // UTC midnight of the processing day (ms)
	Rank              int     // listing rank, 1 = highest
	MarketCap         float64 // USD market capitalization
	Price             float64 // USD unit price
	CirculatingSupply float64 // zeroed when market cap or price is non-positive
	Volume24h         float64 // USD 24h trading volume
	CreatedAt         int64   // record creation timestamp (ms)
}
