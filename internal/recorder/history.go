package recorder

import "time"

// Run outcomes.
const (
	OutcomePicked  = "PICKED"
	OutcomeNoPick  = "NO_PICK"
	OutcomeDryRun  = "DRY_RUN"
	OutcomeNoPrice = "NO_PRICE"
	OutcomeFailed  = "FAILED"
)

// RunEvent holds the outcome of one pipeline run.
type RunEvent struct {
	RunID       string
	StartedAt   time.Time
	Policy      string
	Candidates  int
	Holdings    int
	FromCache   bool
	Outcome     string
	Stage       string
	Code        string
	CompanyName string
	Sector      string
	Price       float64
	Quantity    int64
	Error       string
}

// History persists run outcomes for later review.
type History interface {
	RecordRun(evt *RunEvent) error
	Close() error
}

// NoopHistory is used when no history database is configured.
type NoopHistory struct{}

func NewNoopHistory() *NoopHistory { return &NoopHistory{} }

func (n *NoopHistory) RecordRun(_ *RunEvent) error { return nil }
func (n *NoopHistory) Close() error                { return nil }
