package ingestion

// Outcome classifies one token's unit of work within a run.
type Outcome int

const (
	// OutcomeCreated means a new snapshot was written for the token.
	OutcomeCreated Outcome = iota

	// OutcomeSkipped means a snapshot for today already existed. This is the
	// normal idempotent-rerun case, never an error.
	OutcomeSkipped

	// OutcomeErrored means reconciliation or snapshot writing failed for the
	// token. Other tokens in the run are unaffected.
	OutcomeErrored
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Result summarizes a single ingestion run. It is owned by the caller and
// never persisted.
type Result struct {
	Processed  int   `json:"processed"`   // tokens seen in the listing
	Created    int   `json:"created"`     // snapshots written
	Skipped    int   `json:"skipped"`     // tokens that already had today's snapshot
	Errors     int   `json:"errors"`      // tokens whose unit of work failed
	DurationMs int64 `json:"duration_ms"` // total wall-clock duration
}
