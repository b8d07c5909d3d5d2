// Package engine applies a confirmed transformation profile to raw
// spreadsheet rows, producing validated canonical records. Raw cell
// extraction (file parsing) and persistence live outside this package.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/githubledger/ledgerflow/internal/classify"
	"github.com/githubledger/ledgerflow/internal/common"
	"github.com/githubledger/ledgerflow/internal/dedupe"
	"github.com/githubledger/ledgerflow/internal/extract"
	"github.com/githubledger/ledgerflow/internal/model"
	"github.com/githubledger/ledgerflow/internal/profile"
)

// Confidence ceilings for machine-derived values. Rule extraction is
// deterministic but still machine work; inference is capped strictly below
// 1.0 so an inferred value can never pass as human-entered.
const (
	ruleExtractionConfidence = 0.9
	inferenceConfidenceCap   = 0.99
	missConfidence           = 0.5
)

// RawRow is one source row as extracted by the (external) file reader:
// column name to verbatim cell text.
type RawRow map[string]string

// RowError records why one row failed to become a record.
type RowError struct {
	Err error
	Row int
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Result summarizes one transformation run.
type Result struct {
	Records    []*model.Record
	Failures   []RowError
	Warnings   []string
	Excluded   int
	Duplicates int
}

// Engine transforms raw rows for one user according to a profile snapshot.
// The profile is copied at construction and never mutated, so a run always
// sees a consistent set of rules.
type Engine struct {
	classifier *classify.Classifier
	extractor  *extract.Extractor
	inferencer Inferencer
	profile    profile.Profile
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithInferencer attaches an AI inference backend. Without one, inference
// gaps degrade into pending_review records instead.
func WithInferencer(inf Inferencer) Option {
	return func(e *Engine) {
		e.inferencer = inf
	}
}

// New creates an engine for a confirmed profile. An unconfirmed profile is
// rejected: unattended import requires explicit user sign-off.
func New(p *profile.Profile, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !p.Metadata.UserConfirmed {
		return nil, fmt.Errorf("%w: user %s", common.ErrProfileNotConfirmed, p.UserID)
	}

	extractor, err := extract.New(p.ParsingStrategy.MerchantExtraction.Rules)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		profile:    *p,
		classifier: classify.New(p.CategorySystem),
		extractor:  extractor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Transform applies the profile to every row. Per-row failures are
// collected, not fatal; only context cancellation aborts the run.
// Deduplication state is scoped to this call's batch.
func (e *Engine) Transform(ctx context.Context, sourceFile string, rows []RawRow) (*Result, error) {
	if sourceFile == "" {
		return nil, fmt.Errorf("%w: source file name", common.ErrMissingConfig)
	}

	slog.Info("Starting transformation",
		"source_file", sourceFile,
		"rows", len(rows),
		"user", e.profile.UserID)

	result := &Result{}
	batch := dedupe.NewPolicy(e.profile.DataCleaningRules.Deduplication).NewBatch()

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if e.isExcluded(row) {
			result.Excluded++
			continue
		}

		record, err := e.transformRow(ctx, sourceFile, row)
		if err != nil {
			result.Failures = append(result.Failures, RowError{Row: i, Err: err})
			continue
		}

		decision, ambiguities := batch.Admit(record)
		for _, amb := range ambiguities {
			slog.Warn("Deduplication ambiguity, treating candidate as distinct",
				"field", amb.Field, "candidate", amb.CandidateID)
			result.Warnings = append(result.Warnings, amb.Error())
		}
		if decision == dedupe.Duplicate {
			result.Duplicates++
			continue
		}

		result.Records = append(result.Records, record)
	}

	slog.Info("Transformation finished",
		"source_file", sourceFile,
		"records", len(result.Records),
		"excluded", result.Excluded,
		"duplicates", result.Duplicates,
		"failures", len(result.Failures))

	return result, nil
}

// isExcluded reports whether any cell carries one of the profile's excluded
// transaction-kind tokens (transfers, repayments and the like never become
// candidate records).
func (e *Engine) isExcluded(row RawRow) bool {
	for _, token := range e.profile.DataCleaningRules.ExcludeTransactions {
		for _, cell := range row {
			if strings.EqualFold(strings.TrimSpace(cell), token) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) transformRow(ctx context.Context, sourceFile string, row RawRow) (*model.Record, error) {
	cm := e.profile.ColumnMapping
	ps := e.profile.ParsingStrategy
	confidence := 1.0

	rawDate, ok := cell(row, cm.DateColumn)
	if !ok {
		return nil, fmt.Errorf("date column %q is empty or missing", cm.DateColumn)
	}
	txTime, err := model.ParseTxTime(rawDate, ps.DateFormat)
	if err != nil {
		return nil, err
	}

	rawAmount, ok := cell(row, cm.AmountColumn)
	if !ok {
		return nil, fmt.Errorf("amount column %q is empty or missing", cm.AmountColumn)
	}
	amount, direction, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	notes := optionalCell(row, cm.NotesColumn)
	merchant := optionalCell(row, cm.MerchantColumn)

	if merchant == nil && ps.MerchantExtraction.Enabled {
		switch ps.MerchantExtraction.Source {
		case profile.SourceNotes:
			if notes != nil {
				res := e.extractor.Apply(*notes)
				if res.Merchant != nil {
					merchant = res.Merchant
					confidence = min(confidence, ruleExtractionConfidence)
				}
				notes = stringPtrOrNil(res.Notes)
			}
		case profile.SourceAIInference:
			if e.inferencer != nil && notes != nil {
				name, conf, inferErr := e.inferencer.InferMerchant(ctx, *notes)
				if inferErr != nil {
					slog.Warn("Merchant inference failed", "error", inferErr)
				} else if name != "" {
					merchant = &name
					confidence = min(confidence, min(conf, inferenceConfidenceCap))
				}
			}
		case profile.SourceColumn:
			// Column-sourced extraction has nothing beyond the mapping.
		}
	}

	merchant = e.normalizeMerchant(merchant)

	itemName := optionalCell(row, cm.ItemColumn)
	status := model.StatusValidated

	rawCategory := ""
	if v := optionalCell(row, cm.CategoryColumn); v != nil {
		rawCategory = *v
	}

	classification, classifyErr := e.classifier.Classify(rawCategory)
	var miss *classify.Miss
	if errors.As(classifyErr, &miss) {
		classification, confidence, status = e.handleMiss(ctx, miss, confidence, CategoryHints{
			RawCategory: rawCategory,
			Merchant:    deref(merchant),
			ItemName:    deref(itemName),
			Notes:       deref(notes),
		})
	}

	var quantity *float64
	if v := optionalCell(row, cm.QuantityColumn); v != nil {
		q, qErr := strconv.ParseFloat(strings.TrimSpace(*v), 64)
		if qErr != nil {
			return nil, fmt.Errorf("quantity column %q: %w", *cm.QuantityColumn, qErr)
		}
		quantity = &q
	}

	originalRow := make(map[string]any, len(row))
	for k, v := range row {
		originalRow[k] = v
	}

	return model.NewRecord(model.RecordParams{
		TransactionTime: txTime,
		Amount:          amount,
		Currency:        ps.CurrencyDefault,
		Direction:       direction,
		Merchant:        merchant,
		Platform:        optionalCell(row, cm.PlatformColumn),
		ItemName:        itemName,
		Quantity:        quantity,
		CategoryMain:    classification.CategoryMain,
		CategorySub:     classification.CategorySub,
		Tags:            classification.Tags,
		SourceFile:      sourceFile,
		OriginalRow:     originalRow,
		Confidence:      &confidence,
		Notes:           notes,
		Status:          status,
	})
}

// handleMiss resolves a classification miss: inference runs only when the
// system carries a prompt and a backend is attached, and an explicit
// mapping would already have won. Otherwise the gap degrades into a
// pending_review record with confidence below the threshold.
func (e *Engine) handleMiss(ctx context.Context, miss *classify.Miss, confidence float64, hints CategoryHints) (classify.Result, float64, model.RecordStatus) {
	prompt := e.classifier.InferencePrompt()
	if prompt != nil && e.inferencer != nil {
		category, conf, err := e.inferencer.InferCategory(ctx, *prompt, hints)
		if err != nil {
			slog.Warn("Category inference failed", "raw_category", miss.RawCategory, "error", err)
		} else if category != "" {
			return classify.Result{CategoryMain: &category},
				min(confidence, min(conf, inferenceConfidenceCap)),
				model.StatusValidated
		}
	}

	slog.Debug("Unmapped category, flagging for review", "raw_category", miss.RawCategory)
	degraded := min(confidence, missConfidence)
	if t := e.profile.Metadata.ConfidenceThreshold; degraded >= t && t > 0 {
		degraded = t / 2
	}
	return classify.Result{}, degraded, model.StatusPendingReview
}

// normalizeMerchant applies the profile's merchant-name mappings. The
// mapping always wins over anything extracted or inferred.
func (e *Engine) normalizeMerchant(merchant *string) *string {
	mn := e.profile.DataCleaningRules.MerchantNormalization
	if merchant == nil || !mn.Enabled {
		return merchant
	}
	if canonical, ok := mn.Mappings[*merchant]; ok {
		return &canonical
	}
	return merchant
}

// parseAmount reads a raw amount cell into a positive decimal plus a
// direction. Negative source amounts are refunds or income, modeled as
// direction=income with the absolute value, never as a negative amount.
func parseAmount(raw string) (decimal.Decimal, model.Direction, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.NewReplacer(",", "", "¥", "", "￥", "", "$", "", "€", "", " ", "").Replace(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	if d.IsNegative() {
		return d.Neg(), model.DirectionIncome, nil
	}
	return d, model.DirectionExpense, nil
}

func cell(row RawRow, column string) (string, bool) {
	v, ok := row[column]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func optionalCell(row RawRow, column *string) *string {
	if column == nil {
		return nil
	}
	if v, ok := cell(row, *column); ok {
		return &v
	}
	return nil
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
