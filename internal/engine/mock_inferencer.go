package engine

import "context"

// MockInferencer is a deterministic Inferencer for tests. Responses are
// keyed by the raw category (for categories) or the notes text (for
// merchants).
type MockInferencer struct {
	Categories    map[string]string
	Merchants     map[string]string
	FailWithErr   error
	Confidence    float64
	CategoryCalls int
	MerchantCalls int
}

// NewMockInferencer creates a mock with the given confidence for every
// response.
func NewMockInferencer(confidence float64) *MockInferencer {
	return &MockInferencer{
		Categories: make(map[string]string),
		Merchants:  make(map[string]string),
		Confidence: confidence,
	}
}

// InferCategory implements Inferencer.
func (m *MockInferencer) InferCategory(_ context.Context, _ string, hints CategoryHints) (string, float64, error) {
	m.CategoryCalls++
	if m.FailWithErr != nil {
		return "", 0, m.FailWithErr
	}
	return m.Categories[hints.RawCategory], m.Confidence, nil
}

// InferMerchant implements Inferencer.
func (m *MockInferencer) InferMerchant(_ context.Context, notes string) (string, float64, error) {
	m.MerchantCalls++
	if m.FailWithErr != nil {
		return "", 0, m.FailWithErr
	}
	return m.Merchants[notes], m.Confidence, nil
}
