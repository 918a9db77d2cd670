package engine

// Status classifies an Execute result.
type Status string

const (
	StatusExecuted Status = "executed"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// SkipReason explains why a trigger did not execute. Skips are expected
// outcomes, not errors: they are never retried proactively and resolve
// naturally on the next qualifying event.
type SkipReason string

const (
	SkipNoVaultBound    SkipReason = "no vault bound, detect only"
	SkipNoFundingSource SkipReason = "no funding source configured"
	SkipBelowMinimum    SkipReason = "below minimum cost"
	SkipNoQuantity      SkipReason = "no purchase quantity"
	SkipDuplicate       SkipReason = "duplicate event"
)

// Outcome is the result of one buyback evaluation.
type Outcome struct {
	Status Status

	// Cost is the settled cost in fixed-point units, set when
	// Status == StatusExecuted.
	Cost int64

	// TxReference identifies the submitted transaction, set when
	// Status == StatusExecuted.
	TxReference string

	// Reason is set when Status == StatusSkipped.
	Reason SkipReason

	// Err is set when Status == StatusFailed.
	Err error
}

// Executed builds a successful outcome.
func Executed(cost int64, txRef string) Outcome {
	return Outcome{Status: StatusExecuted, Cost: cost, TxReference: txRef}
}

// Skipped builds an expected non-execution outcome.
func Skipped(reason SkipReason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// Failed builds an execution-failure outcome.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}
