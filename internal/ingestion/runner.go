// Package ingestion implements the daily snapshot pipeline: resolve scope,
// fetch one ranked listing, reconcile every token against the catalog, and
// write at most one snapshot per token per UTC day.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

const (
	// ScopeSettingKey names the configuration entry holding how many
	// top-ranked tokens are in scope.
	ScopeSettingKey = "top_token_scope"

	// DefaultScope applies when the scope setting is absent. Absence is a
	// normal state on first run, not an error.
	DefaultScope = 1000
)

// ListingSource produces the provider's ranked listing. One call per run.
type ListingSource interface {
	TopListing(ctx context.Context, limit int) ([]*domain.TokenListing, error)
}

// Runner executes one ingestion run at a time. It holds no global state; all
// collaborators are injected.
type Runner struct {
	source    ListingSource
	tokens    storage.TokenStore
	snapshots storage.SnapshotStore
	settings  storage.SettingStore
	archive   storage.SnapshotArchive
	logger    *log.Logger
	now       func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source        ListingSource
	TokenStore    storage.TokenStore
	SnapshotStore storage.SnapshotStore
	SettingStore  storage.SettingStore

	// Archive, when set, receives created snapshots as a best-effort batch
	// mirror after the loop. Archive failures never affect the Result.
	Archive storage.SnapshotArchive

	Logger *log.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		source:    opts.Source,
		tokens:    opts.TokenStore,
		snapshots: opts.SnapshotStore,
		settings:  opts.SettingStore,
		archive:   opts.Archive,
		logger:    logger,
		now:       now,
	}
}

// Run executes one ingestion pass. The only run-aborting failures are scope
// resolution and the single upstream fetch; both happen before any write.
// Per-token failures are counted and the run continues.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := r.now()

	scope, err := r.settings.GetInt(ctx, ScopeSettingKey, DefaultScope)
	if err != nil {
		return nil, fmt.Errorf("resolve token scope: %w", err)
	}

	r.logger.Printf("Fetching top %d listing...", scope)
	listings, err := r.source.TopListing(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("fetch top listing: %w", err)
	}

	// One normalized date for the whole batch, even if the run crosses
	// midnight.
	day := domain.DayStart(start)

	result := &Result{Processed: len(listings)}
	var created []*domain.TokenSnapshot

	for _, listing := range listings {
		outcome, snap, err := r.processListing(ctx, listing, day)
		if err != nil {
			result.Errors++
			r.logger.Printf("Failed to process token %d (%s): %v", listing.ExternalID, listing.Symbol, err)
			continue
		}
		switch outcome {
		case OutcomeCreated:
			result.Created++
			created = append(created, snap)
		case OutcomeSkipped:
			result.Skipped++
		}
	}

	if r.archive != nil && len(created) > 0 {
		if err := r.archive.InsertBatch(ctx, created); err != nil {
			r.logger.Printf("Failed to archive %d snapshots: %v", len(created), err)
		}
	}

	result.DurationMs = r.now().Sub(start).Milliseconds()
	r.logger.Printf("Run complete: %d processed, %d created, %d skipped, %d errors in %dms",
		result.Processed, result.Created, result.Skipped, result.Errors, result.DurationMs)

	return result, nil
}

// processListing is one token's unit of work: reconcile, then snapshot if
// absent. An error here never reaches the caller's error return; the runner
// counts it and moves on.
func (r *Runner) processListing(ctx context.Context, listing *domain.TokenListing, day int64) (Outcome, *domain.TokenSnapshot, error) {
	token, err := r.reconcile(ctx, listing)
	if err != nil {
		return OutcomeErrored, nil, err
	}
	return r.writeSnapshot(ctx, token, listing, day)
}

// reconcile upserts the listing into the catalog. Appearing in the listing is
// itself the definition of "currently tracked".
func (r *Runner) reconcile(ctx context.Context, listing *domain.TokenListing) (*domain.Token, error) {
	token := &domain.Token{
		ExternalID: listing.ExternalID,
		Name:       listing.Name,
		Symbol:     listing.Symbol,
		Slug:       listing.Slug,
		Chain:      listing.Platform,
		LaunchedAt: listing.DateAdded,
		Categories: listing.Tags,
		IsTracked:  true,
	}

	existing, err := r.tokens.GetByExternalID(ctx, listing.ExternalID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// First sight: every mapped field comes from the listing.
	case err != nil:
		return nil, fmt.Errorf("load token: %w", err)
	default:
		// An empty tag list means "no information", never "clear the field".
		if len(listing.Tags) == 0 {
			token.Categories = existing.Categories
		}
		// Identity and launch date are immutable after creation. The store's
		// upsert also refuses to rewrite launched_at.
		token.LaunchedAt = existing.LaunchedAt
	}

	if err := r.tokens.Upsert(ctx, token); err != nil {
		return nil, fmt.Errorf("upsert token: %w", err)
	}
	return token, nil
}

// writeSnapshot records today's measurement unless one already exists.
func (r *Runner) writeSnapshot(ctx context.Context, token *domain.Token, listing *domain.TokenListing, day int64) (Outcome, *domain.TokenSnapshot, error) {
	_, err := r.snapshots.GetByTokenAndDate(ctx, token.ExternalID, day)
	switch {
	case err == nil:
		return OutcomeSkipped, nil, nil
	case !errors.Is(err, storage.ErrNotFound):
		return OutcomeErrored, nil, fmt.Errorf("look up snapshot: %w", err)
	}

	snap := &domain.TokenSnapshot{
		TokenExternalID:   token.ExternalID,
		SnapshotDate:      day,
		Rank:              listing.Rank,
		MarketCap:         listing.MarketCap,
		Price:             listing.Price,
		CirculatingSupply: effectiveSupply(listing),
		Volume24h:         listing.Volume24h,
		CreatedAt:         r.now().UnixMilli(),
	}

	if err := r.snapshots.Insert(ctx, snap); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Lost the lookup/insert race to a concurrent run. The unique
			// constraint is the enforcement point, so this is a normal skip.
			return OutcomeSkipped, nil, nil
		}
		return OutcomeErrored, nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return OutcomeCreated, snap, nil
}

// effectiveSupply reports the provider's circulating supply only when both
// market cap and price are positive. A non-positive value on either side
// marks the data point as degraded, and the supply is zeroed rather than
// recorded next to it. The condition inspects market cap and price only,
// never the supply figure itself.
func effectiveSupply(listing *domain.TokenListing) float64 {
	if listing.MarketCap > 0 && listing.Price > 0 {
		return listing.CirculatingSupply
	}
	return 0
}
