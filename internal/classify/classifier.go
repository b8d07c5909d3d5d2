// Package classify applies a profile's category system to raw category
// strings, producing the two-axis classification: a mutually exclusive
// category plus free-form tags.
package classify

import (
	"fmt"
	"strings"

	"github.com/githubledger/ledgerflow/internal/profile"
)

// HierarchySeparator splits "main.sub" raw categories in hierarchical mode.
const HierarchySeparator = "."

// Miss is the non-fatal signal that no mapping entry matched. The engine
// downgrades confidence and flags the record for review instead of
// aborting.
type Miss struct {
	RawCategory string
}

func (e *Miss) Error() string {
	return fmt.Sprintf("no category mapping for %q", e.RawCategory)
}

// Result is the outcome of classifying one raw category string.
type Result struct {
	CategoryMain *string
	CategorySub  *string
	Tags         []string
}

// Classifier evaluates a category system against raw category strings. It
// holds a snapshot of the system and is safe for reuse within a
// transformation run.
type Classifier struct {
	system profile.CategorySystem
}

// New creates a classifier for the given category system.
func New(system profile.CategorySystem) *Classifier {
	return &Classifier{system: system}
}

// Classify maps a raw category string onto (category_main, category_sub,
// tags). A mapping hit always wins over inference; a miss returns a *Miss
// error so the caller can degrade gracefully. Inference itself is the
// caller's concern: it applies only when Classify misses and the system
// carries an inference prompt.
func (c *Classifier) Classify(rawCategory string) (Result, error) {
	raw := strings.TrimSpace(rawCategory)
	if raw == "" {
		return Result{}, &Miss{RawCategory: rawCategory}
	}

	switch c.system.Type {
	case profile.SystemHierarchical:
		return c.classifyHierarchical(raw)
	default:
		// Flat and dimensional_split share the verbatim lookup; the split
		// mode differs only in what the mapping entries route to.
		return c.classifyFlat(raw)
	}
}

// InferencePrompt returns the system's inference prompt, or nil when
// inference is not configured.
func (c *Classifier) InferencePrompt() *string {
	return c.system.InferencePrompt
}

func (c *Classifier) classifyFlat(raw string) (Result, error) {
	m, ok := c.system.Mapping[raw]
	if !ok {
		return Result{}, &Miss{RawCategory: raw}
	}
	return resultFrom(m), nil
}

// classifyHierarchical tries the full raw string first, then splits on the
// separator and looks up the main component. An exact entry for "A.B"
// therefore always beats an entry for "A".
func (c *Classifier) classifyHierarchical(raw string) (Result, error) {
	if m, ok := c.system.Mapping[raw]; ok {
		return resultFrom(m), nil
	}

	main, sub, found := strings.Cut(raw, HierarchySeparator)
	if !found {
		return Result{}, &Miss{RawCategory: raw}
	}

	m, ok := c.system.Mapping[strings.TrimSpace(main)]
	if !ok {
		return Result{}, &Miss{RawCategory: raw}
	}

	res := resultFrom(m)
	if res.CategorySub == nil {
		if s := strings.TrimSpace(sub); s != "" {
			res.CategorySub = &s
		}
	}
	return res, nil
}

func resultFrom(m profile.CategoryMapping) Result {
	main := m.CategoryMain
	res := Result{CategoryMain: &main, CategorySub: m.CategorySub}
	if len(m.Tags) > 0 {
		res.Tags = append([]string(nil), m.Tags...)
	}
	return res
}
