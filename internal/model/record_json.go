package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// recordDocument is the flat wire form of a Record. Amount travels as a
// decimal-preserving string and transaction_time as ISO-8601 in the form
// matching its variant.
type recordDocument struct {
	ID              string         `json:"id"`
	ImportTimestamp string         `json:"import_timestamp"`
	TransactionTime string         `json:"transaction_time"`
	Amount          string         `json:"amount"`
	Currency        string         `json:"currency"`
	Direction       string         `json:"direction"`
	Merchant        *string        `json:"merchant"`
	Platform        *string        `json:"platform"`
	ItemName        *string        `json:"item_name"`
	Quantity        *float64       `json:"quantity"`
	Unit            *string        `json:"unit"`
	CategoryMain    *string        `json:"category_main"`
	CategorySub     *string        `json:"category_sub"`
	Tags            []string       `json:"tags"`
	SourceFile      string         `json:"source_file"`
	OriginalRow     map[string]any `json:"original_row"`
	ConfidenceScore float64        `json:"confidence_score"`
	Notes           *string        `json:"notes"`
	Status          string         `json:"status"`
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordDocument{
		ID:              r.ID,
		ImportTimestamp: r.ImportTimestamp.Format(time.RFC3339Nano),
		TransactionTime: r.TransactionTime.ISO8601(),
		Amount:          r.Amount.String(),
		Currency:        r.Currency,
		Direction:       string(r.Direction),
		Merchant:        r.Merchant,
		Platform:        r.Platform,
		ItemName:        r.ItemName,
		Quantity:        r.Quantity,
		Unit:            r.Unit,
		CategoryMain:    r.CategoryMain,
		CategorySub:     r.CategorySub,
		Tags:            r.Tags,
		SourceFile:      r.SourceFile,
		OriginalRow:     r.OriginalRow,
		ConfidenceScore: r.ConfidenceScore,
		Notes:           r.Notes,
		Status:          string(r.Status),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The restored record passes
// through the same validation as a freshly constructed one, with id and
// import_timestamp restored to their original values rather than
// regenerated.
func (r *Record) UnmarshalJSON(data []byte) error {
	var doc recordDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode record document: %w", err)
	}

	importedAt, err := time.Parse(time.RFC3339Nano, doc.ImportTimestamp)
	if err != nil {
		return fmt.Errorf("invalid import_timestamp %q: %w", doc.ImportTimestamp, err)
	}
	txTime, err := ParseISO8601(doc.TransactionTime)
	if err != nil {
		return fmt.Errorf("invalid transaction_time: %w", err)
	}
	amount, err := decimal.NewFromString(doc.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", doc.Amount, err)
	}

	restored, err := NewRecord(RecordParams{
		ID:              doc.ID,
		ImportTimestamp: importedAt,
		TransactionTime: txTime,
		Amount:          amount,
		Currency:        doc.Currency,
		Direction:       Direction(doc.Direction),
		Merchant:        doc.Merchant,
		Platform:        doc.Platform,
		ItemName:        doc.ItemName,
		Quantity:        doc.Quantity,
		Unit:            doc.Unit,
		CategoryMain:    doc.CategoryMain,
		CategorySub:     doc.CategorySub,
		Tags:            doc.Tags,
		SourceFile:      doc.SourceFile,
		OriginalRow:     doc.OriginalRow,
		Confidence:      &doc.ConfidenceScore,
		Notes:           doc.Notes,
		Status:          RecordStatus(doc.Status),
	})
	if err != nil {
		return err
	}

	*r = *restored
	return nil
}
