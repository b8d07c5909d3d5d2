// Package extract mines merchant names out of free-text notes using a
// profile's ordered extraction rules.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/githubledger/ledgerflow/internal/profile"
)

// Result is the outcome of running the rules against one notes string.
type Result struct {
	// Merchant is the extracted substring, nil when no extract rule matched.
	Merchant *string
	// Notes is what remains of the input after the matched text is removed.
	Notes string
}

// Extractor evaluates extraction rules in declared order, first match wins.
type Extractor struct {
	rules    []profile.ExtractionRule
	compiled []*regexp.Regexp
}

// New compiles the rules. An invalid pattern is an error: a profile that
// carries one should be rejected before any rows are processed.
func New(rules []profile.ExtractionRule) (*Extractor, error) {
	e := &Extractor{
		rules:    rules,
		compiled: make([]*regexp.Regexp, len(rules)),
	}
	for i, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid extraction rule pattern %q: %w", rule.Pattern, err)
		}
		e.compiled[i] = re
	}
	return e, nil
}

// Apply runs the rules against the notes text. The first rule whose
// pattern matches wins and the rest are not evaluated: an extract rule
// yields the matched substring as the merchant and removes it from the
// remaining notes, an ignore rule removes the match (known noise) without
// producing a merchant.
func (e *Extractor) Apply(notes string) Result {
	for i, rule := range e.rules {
		loc := e.compiled[i].FindStringIndex(notes)
		if loc == nil {
			continue
		}

		matched := notes[loc[0]:loc[1]]
		remaining := strings.TrimSpace(notes[:loc[0]] + notes[loc[1]:])

		if rule.Action == profile.ActionIgnore {
			return Result{Notes: remaining}
		}

		merchant := strings.TrimSpace(matched)
		return Result{Merchant: &merchant, Notes: remaining}
	}

	return Result{Notes: notes}
}
