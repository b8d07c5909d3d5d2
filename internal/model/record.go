// Package model defines the canonical data structures every imported
// transaction is normalized into.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction indicates whether money left or entered the ledger. Refunds and
// returns are income, never negative amounts.
type Direction string

// Direction constants.
const (
	DirectionExpense Direction = "expense"
	DirectionIncome  Direction = "income"
)

// RecordStatus indicates whether a record can be used for reporting.
type RecordStatus string

// Record status constants.
const (
	StatusValidated     RecordStatus = "validated"
	StatusPendingReview RecordStatus = "pending_review"
	StatusFlagged       RecordStatus = "flagged"
)

// ReviewThreshold is the confidence score below which a record should be
// surfaced for human review.
const ReviewThreshold = 0.8

// DefaultCurrency is the ISO 4217 code assumed when a source carries none.
const DefaultCurrency = "CNY"

// ValidationError reports a record invariant violated at construction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s %s", e.Field, e.Reason)
}

// Record is the single normalized representation of one ledger transaction.
// A Record is immutable once constructed: corrections produce a new record,
// preserving the original for traceability.
type Record struct {
	ID              string
	ImportTimestamp time.Time
	TransactionTime TxTime
	Amount          decimal.Decimal
	Currency        string
	Direction       Direction
	Merchant        *string
	Platform        *string
	ItemName        *string
	Quantity        *float64
	Unit            *string
	CategoryMain    *string
	CategorySub     *string
	Tags            []string
	SourceFile      string
	OriginalRow     map[string]any
	ConfidenceScore float64
	Notes           *string
	Status          RecordStatus
}

// RecordParams carries the caller-supplied fields for a new Record.
// ID and ImportTimestamp are normally left blank and generated; a
// deserializer supplies them explicitly to restore the original values.
type RecordParams struct {
	ID              string
	ImportTimestamp time.Time
	TransactionTime TxTime
	Amount          decimal.Decimal
	Currency        string
	Direction       Direction
	Merchant        *string
	Platform        *string
	ItemName        *string
	Quantity        *float64
	Unit            *string
	CategoryMain    *string
	CategorySub     *string
	Tags            []string
	SourceFile      string
	OriginalRow     map[string]any
	Confidence      *float64
	Notes           *string
	Status          RecordStatus
}

// NewRecord validates the params and constructs a Record. Invariants are
// checked fail-fast in a fixed order; the first violation is returned as a
// ValidationError. The only side effects are defaulting ID and
// ImportTimestamp when the caller did not supply them.
func NewRecord(p RecordParams) (*Record, error) {
	confidence := 1.0
	if p.Confidence != nil {
		confidence = *p.Confidence
	}

	status := p.Status
	if status == "" {
		status = StatusValidated
	}

	if !p.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: fmt.Sprintf("must be > 0, got %s", p.Amount)}
	}
	if confidence < 0 || confidence > 1 {
		return nil, &ValidationError{Field: "confidence_score", Reason: fmt.Sprintf("must be in [0, 1], got %g", confidence)}
	}
	if status == StatusPendingReview && confidence >= ReviewThreshold {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("pending_review requires confidence_score < %g, got %g", ReviewThreshold, confidence)}
	}

	switch p.Direction {
	case DirectionExpense, DirectionIncome:
	default:
		return nil, &ValidationError{Field: "direction", Reason: fmt.Sprintf("must be %q or %q", DirectionExpense, DirectionIncome)}
	}
	switch status {
	case StatusValidated, StatusPendingReview, StatusFlagged:
	default:
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	if p.SourceFile == "" {
		return nil, &ValidationError{Field: "source_file", Reason: "is required"}
	}
	if p.TransactionTime.IsZero() {
		return nil, &ValidationError{Field: "transaction_time", Reason: "is required"}
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	importedAt := p.ImportTimestamp
	if importedAt.IsZero() {
		importedAt = time.Now()
	}

	currency := p.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	return &Record{
		ID:              id,
		ImportTimestamp: importedAt,
		TransactionTime: p.TransactionTime,
		Amount:          p.Amount,
		Currency:        currency,
		Direction:       p.Direction,
		Merchant:        p.Merchant,
		Platform:        p.Platform,
		ItemName:        p.ItemName,
		Quantity:        p.Quantity,
		Unit:            p.Unit,
		CategoryMain:    p.CategoryMain,
		CategorySub:     p.CategorySub,
		Tags:            p.Tags,
		SourceFile:      p.SourceFile,
		OriginalRow:     p.OriginalRow,
		ConfidenceScore: confidence,
		Notes:           p.Notes,
		Status:          status,
	}, nil
}

// IsHighConfidence reports whether the record meets the review threshold.
func (r *Record) IsHighConfidence() bool {
	return r.ConfidenceScore >= ReviewThreshold
}

// NeedsReview reports whether a human should look at this record.
func (r *Record) NeedsReview() bool {
	return r.Status == StatusPendingReview || !r.IsHighConfidence()
}
