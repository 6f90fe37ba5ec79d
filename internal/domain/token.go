package domain

// Token represents a tracked market token from the provider's ranked listing.
// Corresponds to tokens table in PostgreSQL.
type Token struct {
	ExternalID int64    // provider's stable id, the reconciliation key (unique)
	Name       string   // display name
	Symbol     string   // short ticker symbol
	Slug       string   // URL-safe slug
	Chain      *string  // platform/chain label (nullable)
	LaunchedAt *int64   // provider launch date in ms (nullable, never rewritten after creation)
	Categories []string // provider tags, order-irrelevant, unique within the set
	IsTracked  bool     // forced true on every reconciliation
	CreatedAt  int64    // record creation timestamp (ms)
	UpdatedAt  int64    // last reconciliation timestamp (ms)
}
