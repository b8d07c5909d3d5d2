package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/githubledger/ledgerflow/internal/common"
	"github.com/githubledger/ledgerflow/internal/model"
)

// SaveRecords inserts a batch of records in one transaction. Records are
// append-only: there is no update path, corrections produce new records.
func (s *SQLiteStorage) SaveRecords(ctx context.Context, records []*model.Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, r := range records {
		if r == nil {
			return ErrNilRecord
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (
		id, import_timestamp, transaction_time, amount, currency, direction,
		merchant, platform, item_name, quantity, unit,
		category_main, category_sub, tags, source_file, original_row,
		confidence_score, notes, status
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		tags, err := json.Marshal(r.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags for record %s: %w", r.ID, err)
		}
		originalRow, err := json.Marshal(r.OriginalRow)
		if err != nil {
			return fmt.Errorf("failed to encode original row for record %s: %w", r.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID,
			r.ImportTimestamp.Format(time.RFC3339Nano),
			r.TransactionTime.ISO8601(),
			r.Amount.String(),
			r.Currency,
			string(r.Direction),
			nullable(r.Merchant),
			nullable(r.Platform),
			nullable(r.ItemName),
			nullableFloat(r.Quantity),
			nullable(r.Unit),
			nullable(r.CategoryMain),
			nullable(r.CategorySub),
			string(tags),
			r.SourceFile,
			string(originalRow),
			r.ConfidenceScore,
			nullable(r.Notes),
			string(r.Status),
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// GetRecordByID fetches one record.
func (s *SQLiteStorage) GetRecordByID(ctx context.Context, id string) (*model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, selectRecords+` WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	return record, err
}

// ListRecordsBySourceFile returns every record imported from one source
// file, oldest transaction first.
func (s *SQLiteStorage) ListRecordsBySourceFile(ctx context.Context, sourceFile string) ([]*model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sourceFile, "sourceFile"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectRecords+` WHERE source_file = ? ORDER BY transaction_time, id`, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// CountRecords returns the total number of stored records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// DeleteRecordsBySourceFile removes every record imported from one source
// file. This is the only delete path: undo import, keyed by the
// traceability anchor.
func (s *SQLiteStorage) DeleteRecordsBySourceFile(ctx context.Context, sourceFile string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(sourceFile, "sourceFile"); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE source_file = ?`, sourceFile)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records for %s: %w", sourceFile, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return deleted, nil
}

const selectRecords = `SELECT
	id, import_timestamp, transaction_time, amount, currency, direction,
	merchant, platform, item_name, quantity, unit,
	category_main, category_sub, tags, source_file, original_row,
	confidence_score, notes, status
FROM records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.Record, error) {
	var (
		id, importedAtRaw, txTimeRaw, amountRaw, currency, direction string
		merchant, platform, itemName, unit                           sql.NullString
		categoryMain, categorySub, notes                             sql.NullString
		quantity                                                     sql.NullFloat64
		tagsRaw, sourceFile, originalRowRaw                          string
		confidence                                                   float64
		status                                                       string
	)

	if err := row.Scan(
		&id, &importedAtRaw, &txTimeRaw, &amountRaw, &currency, &direction,
		&merchant, &platform, &itemName, &quantity, &unit,
		&categoryMain, &categorySub, &tagsRaw, &sourceFile, &originalRowRaw,
		&confidence, &notes, &status,
	); err != nil {
		return nil, err
	}

	importedAt, err := time.Parse(time.RFC3339Nano, importedAtRaw)
	if err != nil {
		return nil, fmt.Errorf("corrupt import_timestamp for record %s: %w", id, err)
	}
	txTime, err := model.ParseISO8601(txTimeRaw)
	if err != nil {
		return nil, fmt.Errorf("corrupt transaction_time for record %s: %w", id, err)
	}
	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for record %s: %w", id, err)
	}

	var tags []string
	if err := json.Unmarshal([]byte(tagsRaw), &tags); err != nil {
		return nil, fmt.Errorf("corrupt tags for record %s: %w", id, err)
	}
	var originalRow map[string]any
	if err := json.Unmarshal([]byte(originalRowRaw), &originalRow); err != nil {
		return nil, fmt.Errorf("corrupt original_row for record %s: %w", id, err)
	}

	return model.NewRecord(model.RecordParams{
		ID:              id,
		ImportTimestamp: importedAt,
		TransactionTime: txTime,
		Amount:          amount,
		Currency:        currency,
		Direction:       model.Direction(direction),
		Merchant:        fromNull(merchant),
		Platform:        fromNull(platform),
		ItemName:        fromNull(itemName),
		Quantity:        fromNullFloat(quantity),
		Unit:            fromNull(unit),
		CategoryMain:    fromNull(categoryMain),
		CategorySub:     fromNull(categorySub),
		Tags:            tags,
		SourceFile:      sourceFile,
		OriginalRow:     originalRow,
		Confidence:      &confidence,
		Notes:           fromNull(notes),
		Status:          model.RecordStatus(status),
	})
}

func scanRecords(rows *sql.Rows) ([]*model.Record, error) {
	var records []*model.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

func nullable(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
