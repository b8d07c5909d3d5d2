package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() RecordParams {
	return RecordParams{
		TransactionTime: NewDate(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)),
		Amount:          decimal.RequireFromString("37.68"),
		Direction:       DirectionExpense,
		SourceFile:      "march.csv",
	}
}

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func TestNewRecord_Defaults(t *testing.T) {
	record, err := NewRecord(validParams())
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.False(t, record.ImportTimestamp.IsZero())
	assert.Equal(t, DefaultCurrency, record.Currency)
	assert.Equal(t, StatusValidated, record.Status)
	assert.Equal(t, 1.0, record.ConfidenceScore)
	assert.True(t, record.IsHighConfidence())
	assert.False(t, record.NeedsReview())
}

func TestNewRecord_PreservesExplicitIdentity(t *testing.T) {
	importedAt := time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC)

	p := validParams()
	p.ID = "rec-001"
	p.ImportTimestamp = importedAt

	record, err := NewRecord(p)
	require.NoError(t, err)
	assert.Equal(t, "rec-001", record.ID)
	assert.True(t, record.ImportTimestamp.Equal(importedAt))
}

func TestNewRecord_Invariants(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*RecordParams)
		wantField string
	}{
		{
			name:      "zero amount",
			mutate:    func(p *RecordParams) { p.Amount = decimal.Zero },
			wantField: "amount",
		},
		{
			name:      "negative amount",
			mutate:    func(p *RecordParams) { p.Amount = decimal.RequireFromString("-5.00") },
			wantField: "amount",
		},
		{
			name:      "confidence above one",
			mutate:    func(p *RecordParams) { p.Confidence = floatPtr(1.5) },
			wantField: "confidence_score",
		},
		{
			name:      "confidence below zero",
			mutate:    func(p *RecordParams) { p.Confidence = floatPtr(-0.1) },
			wantField: "confidence_score",
		},
		{
			name: "pending_review with high confidence",
			mutate: func(p *RecordParams) {
				p.Status = StatusPendingReview
				p.Confidence = floatPtr(0.9)
			},
			wantField: "status",
		},
		{
			name:      "unknown direction",
			mutate:    func(p *RecordParams) { p.Direction = "sideways" },
			wantField: "direction",
		},
		{
			name:      "unknown status",
			mutate:    func(p *RecordParams) { p.Status = "draft" },
			wantField: "status",
		},
		{
			name:      "missing source file",
			mutate:    func(p *RecordParams) { p.SourceFile = "" },
			wantField: "source_file",
		},
		{
			name:      "missing transaction time",
			mutate:    func(p *RecordParams) { p.TransactionTime = TxTime{} },
			wantField: "transaction_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)

			_, err := NewRecord(p)
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestNewRecord_PendingReviewBelowThreshold(t *testing.T) {
	p := validParams()
	p.Status = StatusPendingReview
	p.Confidence = floatPtr(0.5)

	record, err := NewRecord(p)
	require.NoError(t, err)
	assert.True(t, record.NeedsReview())
	assert.False(t, record.IsHighConfidence())
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	p := validParams()
	p.ID = "rec-rt"
	p.ImportTimestamp = time.Date(2025, 3, 16, 9, 30, 0, 0, time.UTC)
	p.Merchant = strPtr("Starbucks")
	p.ItemName = strPtr("Latte")
	p.Quantity = floatPtr(2)
	p.Unit = strPtr("cup")
	p.CategoryMain = strPtr("Food & Dining")
	p.CategorySub = strPtr("Coffee")
	p.Tags = []string{"work"}
	p.OriginalRow = map[string]any{"date": "2025-03-15", "amount": "37.68"}
	p.Notes = strPtr("morning run")
	p.Confidence = floatPtr(0.95)

	original, err := NewRecord(p)
	require.NoError(t, err)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored Record
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, original.ID, restored.ID)
	assert.True(t, original.ImportTimestamp.Equal(restored.ImportTimestamp))
	assert.True(t, original.TransactionTime.Equal(restored.TransactionTime))
	assert.True(t, restored.TransactionTime.IsDateOnly(),
		"a date-only time must survive the round trip as date-only")
	assert.True(t, original.Amount.Equal(restored.Amount))
	assert.Equal(t, "37.68", restored.Amount.String(), "decimal text must be preserved exactly")
	assert.Equal(t, original.Currency, restored.Currency)
	assert.Equal(t, original.Direction, restored.Direction)
	assert.Equal(t, original.Merchant, restored.Merchant)
	assert.Equal(t, original.ItemName, restored.ItemName)
	assert.Equal(t, original.Quantity, restored.Quantity)
	assert.Equal(t, original.Unit, restored.Unit)
	assert.Equal(t, original.CategoryMain, restored.CategoryMain)
	assert.Equal(t, original.CategorySub, restored.CategorySub)
	assert.Equal(t, original.Tags, restored.Tags)
	assert.Equal(t, original.SourceFile, restored.SourceFile)
	assert.Equal(t, original.OriginalRow, restored.OriginalRow)
	assert.Equal(t, original.ConfidenceScore, restored.ConfidenceScore)
	assert.Equal(t, original.Notes, restored.Notes)
	assert.Equal(t, original.Status, restored.Status)
	assert.Nil(t, restored.Platform, "absent optional fields stay absent, not empty")
}

func TestRecord_UnmarshalRejectsInvalidDocument(t *testing.T) {
	doc := `{
		"id": "rec-bad",
		"import_timestamp": "2025-03-16T09:30:00Z",
		"transaction_time": "2025-03-15",
		"amount": "-1.00",
		"currency": "CNY",
		"direction": "expense",
		"source_file": "march.csv",
		"confidence_score": 1,
		"status": "validated"
	}`

	var record Record
	err := json.Unmarshal([]byte(doc), &record)
	require.Error(t, err)

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}
