// Package dedupe decides whether two candidate records are the same
// transaction, per a profile's deduplication policy. Its state is scoped to
// one import batch; nothing here is shared across imports.
package dedupe

import (
	"fmt"
	"time"

	"github.com/githubledger/ledgerflow/internal/model"
	"github.com/githubledger/ledgerflow/internal/profile"
)

// Decision is the outcome for one candidate.
type Decision string

// Decision constants.
const (
	Distinct  Decision = "distinct"
	Duplicate Decision = "duplicate"
)

// Ambiguity is the non-fatal signal that a match field was absent on one
// side of a comparison. The candidate is treated as distinct and the
// caller surfaces a warning.
type Ambiguity struct {
	Field       string
	CandidateID string
}

func (e *Ambiguity) Error() string {
	return fmt.Sprintf("deduplication field %q absent on one side for candidate %s", e.Field, e.CandidateID)
}

// Policy evaluates the configured match fields against pairs of records.
type Policy struct {
	matchFields []string
	tolerance   time.Duration
	enabled     bool
}

// NewPolicy creates a policy from the profile's deduplication rules.
func NewPolicy(cfg profile.Deduplication) *Policy {
	return &Policy{
		enabled:     cfg.Enabled,
		matchFields: cfg.MatchFields,
		tolerance:   time.Duration(cfg.TimeToleranceSeconds) * time.Second,
	}
}

// Enabled reports whether duplicate suppression is on.
func (p *Policy) Enabled() bool {
	return p.enabled
}

// IsDuplicate compares two records on every configured match field. All
// fields must be equal, except transaction_time where equality is an
// absolute difference within the tolerance. A field absent on either side
// yields an Ambiguity and the pair counts as distinct.
func (p *Policy) IsDuplicate(accepted, candidate *model.Record) (bool, *Ambiguity) {
	if !p.enabled {
		return false, nil
	}

	for _, field := range p.matchFields {
		if field == "transaction_time" {
			if accepted.TransactionTime.Precision() != candidate.TransactionTime.Precision() {
				return false, &Ambiguity{Field: field, CandidateID: candidate.ID}
			}
			diff := accepted.TransactionTime.Sub(candidate.TransactionTime)
			if diff < 0 {
				diff = -diff
			}
			if diff > p.tolerance {
				return false, nil
			}
			continue
		}

		av, aok := fieldValue(accepted, field)
		cv, cok := fieldValue(candidate, field)
		if !aok || !cok {
			return false, &Ambiguity{Field: field, CandidateID: candidate.ID}
		}
		if av != cv {
			return false, nil
		}
	}

	return true, nil
}

// Batch accumulates the records already accepted for one source-file
// import. First-seen wins: a candidate that duplicates an accepted record
// is suppressed, never the other way around.
type Batch struct {
	policy   *Policy
	accepted []*model.Record
}

// NewBatch creates an empty batch for one import run.
func (p *Policy) NewBatch() *Batch {
	return &Batch{policy: p}
}

// Admit decides the candidate against every accepted record and, when
// distinct, adds it to the batch. Ambiguities encountered along the way are
// returned as warnings alongside the decision.
func (b *Batch) Admit(candidate *model.Record) (Decision, []*Ambiguity) {
	var warnings []*Ambiguity

	if b.policy.enabled {
		for _, accepted := range b.accepted {
			dup, amb := b.policy.IsDuplicate(accepted, candidate)
			if amb != nil {
				warnings = append(warnings, amb)
			}
			if dup {
				return Duplicate, warnings
			}
		}
	}

	b.accepted = append(b.accepted, candidate)
	return Distinct, warnings
}

// Accepted returns the records admitted so far, in admission order.
func (b *Batch) Accepted() []*model.Record {
	return b.accepted
}

// fieldValue maps a match-field name to a comparable string form. The
// second return reports whether the field is present on the record.
func fieldValue(r *model.Record, field string) (string, bool) {
	switch field {
	case "id":
		return r.ID, true
	case "amount":
		return r.Amount.String(), true
	case "currency":
		return r.Currency, true
	case "direction":
		return string(r.Direction), true
	case "source_file":
		return r.SourceFile, true
	case "status":
		return string(r.Status), true
	case "merchant":
		return optional(r.Merchant)
	case "platform":
		return optional(r.Platform)
	case "item_name":
		return optional(r.ItemName)
	case "unit":
		return optional(r.Unit)
	case "category_main":
		return optional(r.CategoryMain)
	case "category_sub":
		return optional(r.CategorySub)
	case "notes":
		return optional(r.Notes)
	case "quantity":
		if r.Quantity == nil {
			return "", false
		}
		return fmt.Sprintf("%g", *r.Quantity), true
	default:
		// Unknown field names behave like absent fields: distinct plus a
		// warning, never a hard failure.
		return "", false
	}
}

func optional(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return *v, true
}
