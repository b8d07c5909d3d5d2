package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githubledger/ledgerflow/internal/profile"
)

func TestNew_RejectsInvalidPattern(t *testing.T) {
	_, err := New([]profile.ExtractionRule{
		{Pattern: `([unclosed`, Action: profile.ActionExtract},
	})
	require.Error(t, err)
}

func TestApply_FirstMatchWins(t *testing.T) {
	e, err := New([]profile.ExtractionRule{
		{Pattern: `^\[扫码付款\]`, Action: profile.ActionIgnore},
		{Pattern: `付款给(\S+)`, Action: profile.ActionExtract},
	})
	require.NoError(t, err)

	tests := []struct {
		name         string
		notes        string
		wantMerchant *string
		wantNotes    string
	}{
		{
			name:         "ignore rule strips noise and yields no merchant",
			notes:        "[扫码付款] 付款给老王烧烤",
			wantMerchant: nil,
			wantNotes:    "付款给老王烧烤",
		},
		{
			name:         "extract rule yields the matched text",
			notes:        "微信 付款给老王烧烤 谢谢惠顾",
			wantMerchant: strPtr("付款给老王烧烤"),
			wantNotes:    "微信  谢谢惠顾",
		},
		{
			name:         "no rule matches",
			notes:        "monthly subscription",
			wantMerchant: nil,
			wantNotes:    "monthly subscription",
		},
		{
			name:         "empty notes",
			notes:        "",
			wantMerchant: nil,
			wantNotes:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Apply(tt.notes)
			assert.Equal(t, tt.wantMerchant, res.Merchant)
			assert.Equal(t, tt.wantNotes, res.Notes)
		})
	}
}

func TestApply_LaterRulesNotEvaluatedAfterMatch(t *testing.T) {
	e, err := New([]profile.ExtractionRule{
		{Pattern: `@\S+`, Action: profile.ActionExtract},
		{Pattern: `.+`, Action: profile.ActionExtract},
	})
	require.NoError(t, err)

	res := e.Apply("paid @Starbucks downtown")
	require.NotNil(t, res.Merchant)
	assert.Equal(t, "@Starbucks", *res.Merchant)
	assert.Equal(t, "paid  downtown", res.Notes)
}

func TestApply_NoRules(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	res := e.Apply("anything at all")
	assert.Nil(t, res.Merchant)
	assert.Equal(t, "anything at all", res.Notes)
}

func strPtr(s string) *string { return &s }
