// Package profile defines the transformation profile: a reusable, per-user
// recipe describing how a raw spreadsheet export is normalized into
// canonical records. Profiles are generated once (typically by an AI step),
// confirmed by the user, and treated as read-only during a transformation
// run.
package profile

import (
	"fmt"
	"time"
)

// ColumnMapping tells the engine which source column feeds which canonical
// field. Only the date and amount columns are required; a nil optional
// column means that field is never populated from a column.
type ColumnMapping struct {
	DateColumn     string  `json:"date_column"`
	AmountColumn   string  `json:"amount_column"`
	MerchantColumn *string `json:"merchant_column"`
	CategoryColumn *string `json:"category_column"`
	NotesColumn    *string `json:"notes_column"`
	PlatformColumn *string `json:"platform_column"`
	ItemColumn     *string `json:"item_column"`
	QuantityColumn *string `json:"quantity_column"`
}

// ParsingMode governs how aggressively free text is mined.
type ParsingMode string

// Parsing mode constants.
const (
	ModeStandard   ParsingMode = "standard"
	ModeMixedNotes ParsingMode = "mixed_notes"
	ModeFullNLP    ParsingMode = "full_nlp"
)

// ExtractionSource says where the merchant name comes from.
type ExtractionSource string

// Extraction source constants.
const (
	SourceColumn      ExtractionSource = "column"
	SourceNotes       ExtractionSource = "notes"
	SourceAIInference ExtractionSource = "ai_inference"
)

// RuleAction is what an extraction rule does with its match.
type RuleAction string

// Rule action constants.
const (
	ActionExtract RuleAction = "extract"
	ActionIgnore  RuleAction = "ignore"
)

// ExtractionRule matches a pattern against notes text. Rules are evaluated
// in declared order, first match wins.
type ExtractionRule struct {
	Pattern string     `json:"pattern"`
	Action  RuleAction `json:"action"`
}

// MerchantExtraction configures how merchant names are mined from notes.
type MerchantExtraction struct {
	Enabled bool             `json:"enabled"`
	Source  ExtractionSource `json:"source"`
	Rules   []ExtractionRule `json:"rules"`
}

// ParsingStrategy configures how raw cell values are interpreted.
type ParsingStrategy struct {
	Mode               ParsingMode        `json:"mode"`
	DateFormat         string             `json:"date_format"`
	CurrencyDefault    string             `json:"currency_default"`
	MerchantExtraction MerchantExtraction `json:"merchant_extraction"`
}

// CategorySystemType selects the classification mode.
type CategorySystemType string

// Category system type constants.
const (
	// SystemFlat looks the raw category string up verbatim.
	SystemFlat CategorySystemType = "flat"
	// SystemHierarchical splits "main.sub" strings before lookup.
	SystemHierarchical CategorySystemType = "hierarchical"
	// SystemDimensionalSplit routes relational labels into a generic
	// category plus descriptive tags, keeping the category axis clean.
	SystemDimensionalSplit CategorySystemType = "dimensional_split"
)

// CategoryMapping is the target of one raw-category-string mapping entry.
type CategoryMapping struct {
	CategoryMain string   `json:"category_main"`
	CategorySub  *string  `json:"category_sub"`
	Tags         []string `json:"tags"`
}

// CategorySystem maps a user's raw categories onto the two-axis scheme.
type CategorySystem struct {
	Type            CategorySystemType         `json:"type"`
	Mapping         map[string]CategoryMapping `json:"category_mapping"`
	InferencePrompt *string                    `json:"inference_prompt"`
}

// MerchantNormalization maps literal merchant spellings onto canonical ones.
type MerchantNormalization struct {
	Enabled  bool              `json:"enabled"`
	Mappings map[string]string `json:"mappings"`
}

// Deduplication decides whether two candidate records are the same
// transaction.
type Deduplication struct {
	Enabled              bool     `json:"enabled"`
	MatchFields          []string `json:"match_fields"`
	TimeToleranceSeconds int      `json:"time_tolerance_seconds"`
}

// DataCleaningRules groups the cleaning policies applied before and after
// record construction.
type DataCleaningRules struct {
	ExcludeTransactions   []string              `json:"exclude_transactions"`
	MerchantNormalization MerchantNormalization `json:"merchant_normalization"`
	Deduplication         Deduplication         `json:"deduplication"`
}

// SourceFileInfo records the provenance of the profile itself.
type SourceFileInfo struct {
	FileName   string `json:"file_name"`
	FileHash   string `json:"file_hash"`
	SampleRows int    `json:"sample_rows"`
}

// Metadata carries profile bookkeeping. A profile may not be used for
// unattended import until UserConfirmed is true.
type Metadata struct {
	AIModel             string  `json:"ai_model"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	UserConfirmed       bool    `json:"user_confirmed"`
	Notes               *string `json:"notes"`
}

// Profile is a complete transformation recipe for one user.
type Profile struct {
	UserID            string            `json:"user_id"`
	ProfileVersion    string            `json:"profile_version"`
	CreatedAt         time.Time         `json:"created_at"`
	SourceFiles       []SourceFileInfo  `json:"source_files"`
	ColumnMapping     ColumnMapping     `json:"column_mapping"`
	ParsingStrategy   ParsingStrategy   `json:"parsing_strategy"`
	CategorySystem    CategorySystem    `json:"category_system"`
	DataCleaningRules DataCleaningRules `json:"data_cleaning_rules"`
	Metadata          Metadata          `json:"metadata"`
}

// New creates a profile with every optional section at its default.
func New(userID, dateColumn, amountColumn string) (*Profile, error) {
	p := &Profile{
		UserID:            userID,
		ProfileVersion:    DefaultProfileVersion,
		CreatedAt:         time.Now(),
		ColumnMapping:     ColumnMapping{DateColumn: dateColumn, AmountColumn: amountColumn},
		ParsingStrategy:   defaultParsingStrategy(),
		CategorySystem:    defaultCategorySystem(),
		DataCleaningRules: defaultDataCleaningRules(),
		Metadata:          defaultMetadata(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the profile's own invariants. Structural completeness of
// a serialized document is enforced separately by Deserialize.
func (p *Profile) Validate() error {
	if p.UserID == "" {
		return &StructuralError{Path: "user_id", Reason: "is required"}
	}
	if p.ColumnMapping.DateColumn == "" {
		return &StructuralError{Path: "column_mapping.date_column", Reason: "is required"}
	}
	if p.ColumnMapping.AmountColumn == "" {
		return &StructuralError{Path: "column_mapping.amount_column", Reason: "is required"}
	}
	for raw, m := range p.CategorySystem.Mapping {
		if m.CategoryMain == "" {
			return &StructuralError{
				Path:   fmt.Sprintf("category_system.category_mapping[%q].category_main", raw),
				Reason: "is required",
			}
		}
	}
	if t := p.Metadata.ConfidenceThreshold; t < 0 || t > 1 {
		return &StructuralError{
			Path:   "metadata.confidence_threshold",
			Reason: fmt.Sprintf("must be in [0, 1], got %g", t),
		}
	}
	return nil
}
