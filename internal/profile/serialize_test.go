package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// fullProfile builds a profile with every optional section populated, the
// worst case for round-trip fidelity.
func fullProfile(t *testing.T) *Profile {
	t.Helper()

	p, err := New("user_a", "交易时间", "金额")
	require.NoError(t, err)
	p.CreatedAt = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	p.SourceFiles = []SourceFileInfo{
		{FileName: "march.csv", FileHash: "sha256:abc123", SampleRows: 50},
	}
	p.ColumnMapping.MerchantColumn = strPtr("商家")
	p.ColumnMapping.CategoryColumn = strPtr("分类")
	p.ColumnMapping.NotesColumn = strPtr("备注")

	p.ParsingStrategy.Mode = ModeMixedNotes
	p.ParsingStrategy.DateFormat = "%Y-%m-%d %H:%M:%S"
	p.ParsingStrategy.MerchantExtraction = MerchantExtraction{
		Enabled: true,
		Source:  SourceNotes,
		Rules: []ExtractionRule{
			{Pattern: `^\[.*\]`, Action: ActionIgnore},
			{Pattern: `@(\S+)`, Action: ActionExtract},
		},
	}

	p.CategorySystem.Type = SystemDimensionalSplit
	p.CategorySystem.Mapping = map[string]CategoryMapping{
		"餐饮": {CategoryMain: "Food & Dining", CategorySub: strPtr("Restaurants"), Tags: []string{}},
		"daughter's expenses": {CategoryMain: "Uncategorized", Tags: []string{"daughter"}},
	}
	p.CategorySystem.InferencePrompt = strPtr("Classify this transaction.")

	p.DataCleaningRules.ExcludeTransactions = []string{"transfer", "repayment"}
	p.DataCleaningRules.MerchantNormalization = MerchantNormalization{
		Enabled:  true,
		Mappings: map[string]string{"STARBUCKS #1234": "Starbucks"},
	}
	p.DataCleaningRules.Deduplication = Deduplication{
		Enabled:              true,
		MatchFields:          []string{"amount", "transaction_time", "merchant"},
		TimeToleranceSeconds: 60,
	}

	p.Metadata.UserConfirmed = true
	p.Metadata.Notes = strPtr("confirmed 2025-03-16")

	return p
}

func TestSerializeDeserialize_RoundTripIdentity(t *testing.T) {
	original := fullProfile(t)

	data, err := Serialize(original)
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)

	require.True(t, restored.CreatedAt.Equal(original.CreatedAt))
	restored.CreatedAt = original.CreatedAt
	assert.Equal(t, original, restored)
}

func TestSerializeDeserialize_RoundTripPreservesNilTags(t *testing.T) {
	// A mapping entry with no tags serializes as null and comes back as an
	// empty list, never the other way around.
	original := fullProfile(t)

	data, err := Serialize(original)
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)

	entry, ok := restored.CategorySystem.Mapping["daughter's expenses"]
	require.True(t, ok)
	assert.NotNil(t, entry.Tags)
	assert.Equal(t, []string{"daughter"}, entry.Tags)
}

func TestDeserialize_MinimalDocumentGetsDefaults(t *testing.T) {
	doc := `{
		"user_id": "user_b",
		"column_mapping": {"date_column": "Date", "amount_column": "Amount"}
	}`

	p, err := Deserialize([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "user_b", p.UserID)
	assert.Equal(t, DefaultProfileVersion, p.ProfileVersion)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Empty(t, p.SourceFiles)

	assert.Equal(t, ModeStandard, p.ParsingStrategy.Mode)
	assert.Equal(t, DefaultDateFormat, p.ParsingStrategy.DateFormat)
	assert.Equal(t, DefaultCurrency, p.ParsingStrategy.CurrencyDefault)
	assert.False(t, p.ParsingStrategy.MerchantExtraction.Enabled)
	assert.Equal(t, SourceColumn, p.ParsingStrategy.MerchantExtraction.Source)

	assert.Equal(t, SystemFlat, p.CategorySystem.Type)
	assert.Empty(t, p.CategorySystem.Mapping)
	assert.Nil(t, p.CategorySystem.InferencePrompt)

	assert.Equal(t, DefaultExcludeTransactions(), p.DataCleaningRules.ExcludeTransactions)
	assert.False(t, p.DataCleaningRules.MerchantNormalization.Enabled)
	assert.False(t, p.DataCleaningRules.Deduplication.Enabled)
	assert.Equal(t, DefaultDeduplicationMatchFields(), p.DataCleaningRules.Deduplication.MatchFields)
	assert.Zero(t, p.DataCleaningRules.Deduplication.TimeToleranceSeconds)

	assert.Equal(t, DefaultAIModel, p.Metadata.AIModel)
	assert.Equal(t, DefaultConfidenceThreshold, p.Metadata.ConfidenceThreshold)
	assert.False(t, p.Metadata.UserConfirmed)
}

func TestDeserialize_AbsentDistinctFromZero(t *testing.T) {
	// An explicitly empty exclusion list must stay empty rather than being
	// replaced with the default tokens.
	doc := `{
		"user_id": "user_b",
		"column_mapping": {"date_column": "Date", "amount_column": "Amount"},
		"data_cleaning_rules": {"exclude_transactions": []}
	}`

	p, err := Deserialize([]byte(doc))
	require.NoError(t, err)
	assert.NotNil(t, p.DataCleaningRules.ExcludeTransactions)
	assert.Empty(t, p.DataCleaningRules.ExcludeTransactions)
}

func TestDeserialize_StructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{
			name:     "not json",
			doc:      `{not json`,
			wantPath: "$",
		},
		{
			name:     "missing user_id",
			doc:      `{"column_mapping": {"date_column": "d", "amount_column": "a"}}`,
			wantPath: "user_id",
		},
		{
			name:     "missing column_mapping",
			doc:      `{"user_id": "u"}`,
			wantPath: "column_mapping",
		},
		{
			name:     "missing date_column",
			doc:      `{"user_id": "u", "column_mapping": {"amount_column": "a"}}`,
			wantPath: "column_mapping.date_column",
		},
		{
			name:     "missing amount_column",
			doc:      `{"user_id": "u", "column_mapping": {"date_column": "d"}}`,
			wantPath: "column_mapping.amount_column",
		},
		{
			name: "unknown parsing mode",
			doc: `{"user_id": "u", "column_mapping": {"date_column": "d", "amount_column": "a"},
				"parsing_strategy": {"mode": "telepathic"}}`,
			wantPath: "parsing_strategy.mode",
		},
		{
			name: "unknown category system type",
			doc: `{"user_id": "u", "column_mapping": {"date_column": "d", "amount_column": "a"},
				"category_system": {"type": "nested"}}`,
			wantPath: "category_system.type",
		},
		{
			name: "mapping entry without main category",
			doc: `{"user_id": "u", "column_mapping": {"date_column": "d", "amount_column": "a"},
				"category_system": {"category_mapping": {"x": {"tags": ["t"]}}}}`,
			wantPath: `category_system.category_mapping["x"].category_main`,
		},
		{
			name: "rule without pattern",
			doc: `{"user_id": "u", "column_mapping": {"date_column": "d", "amount_column": "a"},
				"parsing_strategy": {"merchant_extraction": {"rules": [{"action": "extract"}]}}}`,
			wantPath: "parsing_strategy.merchant_extraction.rules[0].pattern",
		},
		{
			name: "negative time tolerance",
			doc: `{"user_id": "u", "column_mapping": {"date_column": "d", "amount_column": "a"},
				"data_cleaning_rules": {"deduplication": {"time_tolerance_seconds": -5}}}`,
			wantPath: "data_cleaning_rules.deduplication.time_tolerance_seconds",
		},
		{
			name: "source file without hash",
			doc: `{"user_id": "u", "column_mapping": {"date_column": "d", "amount_column": "a"},
				"source_files": [{"file_name": "march.csv"}]}`,
			wantPath: "source_files[0].file_hash",
		},
		{
			name: "malformed created_at",
			doc: `{"user_id": "u", "column_mapping": {"date_column": "d", "amount_column": "a"},
				"created_at": "yesterday"}`,
			wantPath: "created_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize([]byte(tt.doc))
			require.Error(t, err)

			var sErr *StructuralError
			require.ErrorAs(t, err, &sErr)
			assert.Equal(t, tt.wantPath, sErr.Path)
		})
	}
}

func TestDeserialize_RuleActionDefaultsToExtract(t *testing.T) {
	doc := `{
		"user_id": "u",
		"column_mapping": {"date_column": "d", "amount_column": "a"},
		"parsing_strategy": {"merchant_extraction": {"enabled": true, "source": "notes",
			"rules": [{"pattern": "@(\\S+)"}]}}
	}`

	p, err := Deserialize([]byte(doc))
	require.NoError(t, err)

	rules := p.ParsingStrategy.MerchantExtraction.Rules
	require.Len(t, rules, 1)
	assert.Equal(t, ActionExtract, rules[0].Action)
}
