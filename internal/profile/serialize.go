package profile

import (
	"encoding/json"
	"fmt"
	"time"
)

// Serialize renders the profile as its canonical JSON document. Serialize
// and Deserialize compose to the identity on every valid profile.
func Serialize(p *Profile) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize profile: %w", err)
	}
	return data, nil
}

// Shadow document types: every optional leaf is a pointer so absence can be
// told apart from a zero value, and the default table is consulted exactly
// once per absent field. Required fields take a distinct path that fails
// loudly on absence.
type profileDoc struct {
	UserID            *string            `json:"user_id"`
	ProfileVersion    *string            `json:"profile_version"`
	CreatedAt         *string            `json:"created_at"`
	SourceFiles       []sourceFileDoc    `json:"source_files"`
	ColumnMapping     *columnMappingDoc  `json:"column_mapping"`
	ParsingStrategy   *parsingDoc        `json:"parsing_strategy"`
	CategorySystem    *categorySystemDoc `json:"category_system"`
	DataCleaningRules *cleaningDoc       `json:"data_cleaning_rules"`
	Metadata          *metadataDoc       `json:"metadata"`
}

type sourceFileDoc struct {
	FileName   *string `json:"file_name"`
	FileHash   *string `json:"file_hash"`
	SampleRows *int    `json:"sample_rows"`
}

type columnMappingDoc struct {
	DateColumn     *string `json:"date_column"`
	AmountColumn   *string `json:"amount_column"`
	MerchantColumn *string `json:"merchant_column"`
	CategoryColumn *string `json:"category_column"`
	NotesColumn    *string `json:"notes_column"`
	PlatformColumn *string `json:"platform_column"`
	ItemColumn     *string `json:"item_column"`
	QuantityColumn *string `json:"quantity_column"`
}

type parsingDoc struct {
	Mode               *string        `json:"mode"`
	DateFormat         *string        `json:"date_format"`
	CurrencyDefault    *string        `json:"currency_default"`
	MerchantExtraction *extractionDoc `json:"merchant_extraction"`
}

type extractionDoc struct {
	Enabled *bool     `json:"enabled"`
	Source  *string   `json:"source"`
	Rules   []ruleDoc `json:"rules"`
}

type ruleDoc struct {
	Pattern *string `json:"pattern"`
	Action  *string `json:"action"`
}

type categorySystemDoc struct {
	Type            *string                       `json:"type"`
	Mapping         map[string]categoryMappingDoc `json:"category_mapping"`
	InferencePrompt *string                       `json:"inference_prompt"`
}

type categoryMappingDoc struct {
	CategoryMain *string  `json:"category_main"`
	CategorySub  *string  `json:"category_sub"`
	Tags         []string `json:"tags"`
}

type cleaningDoc struct {
	ExcludeTransactions   []string          `json:"exclude_transactions"`
	MerchantNormalization *normalizationDoc `json:"merchant_normalization"`
	Deduplication         *deduplicationDoc `json:"deduplication"`
}

type normalizationDoc struct {
	Enabled  *bool             `json:"enabled"`
	Mappings map[string]string `json:"mappings"`
}

type deduplicationDoc struct {
	Enabled              *bool    `json:"enabled"`
	MatchFields          []string `json:"match_fields"`
	TimeToleranceSeconds *int     `json:"time_tolerance_seconds"`
}

type metadataDoc struct {
	AIModel             *string  `json:"ai_model"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	UserConfirmed       *bool    `json:"user_confirmed"`
	Notes               *string  `json:"notes"`
}

// Deserialize parses a profile document. Any optional section may be absent
// and is substituted from the default table; a missing required field is a
// StructuralError.
func Deserialize(data []byte) (*Profile, error) {
	var doc profileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &StructuralError{Path: "$", Reason: fmt.Sprintf("malformed document: %v", err)}
	}

	if doc.UserID == nil || *doc.UserID == "" {
		return nil, &StructuralError{Path: "user_id", Reason: "is required"}
	}

	p := &Profile{
		UserID:         *doc.UserID,
		ProfileVersion: stringOr(doc.ProfileVersion, DefaultProfileVersion),
	}

	createdAt, err := parseCreatedAt(doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = createdAt

	p.SourceFiles = make([]SourceFileInfo, 0, len(doc.SourceFiles))
	for i, sf := range doc.SourceFiles {
		if sf.FileName == nil {
			return nil, &StructuralError{Path: fmt.Sprintf("source_files[%d].file_name", i), Reason: "is required"}
		}
		if sf.FileHash == nil {
			return nil, &StructuralError{Path: fmt.Sprintf("source_files[%d].file_hash", i), Reason: "is required"}
		}
		p.SourceFiles = append(p.SourceFiles, SourceFileInfo{
			FileName:   *sf.FileName,
			FileHash:   *sf.FileHash,
			SampleRows: intOr(sf.SampleRows, DefaultSampleRows),
		})
	}

	cm, err := buildColumnMapping(doc.ColumnMapping)
	if err != nil {
		return nil, err
	}
	p.ColumnMapping = cm

	ps, err := buildParsingStrategy(doc.ParsingStrategy)
	if err != nil {
		return nil, err
	}
	p.ParsingStrategy = ps

	cs, err := buildCategorySystem(doc.CategorySystem)
	if err != nil {
		return nil, err
	}
	p.CategorySystem = cs

	dcr, err := buildCleaningRules(doc.DataCleaningRules)
	if err != nil {
		return nil, err
	}
	p.DataCleaningRules = dcr

	p.Metadata = buildMetadata(doc.Metadata)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func buildColumnMapping(doc *columnMappingDoc) (ColumnMapping, error) {
	if doc == nil {
		return ColumnMapping{}, &StructuralError{Path: "column_mapping", Reason: "is required"}
	}
	if doc.DateColumn == nil || *doc.DateColumn == "" {
		return ColumnMapping{}, &StructuralError{Path: "column_mapping.date_column", Reason: "is required"}
	}
	if doc.AmountColumn == nil || *doc.AmountColumn == "" {
		return ColumnMapping{}, &StructuralError{Path: "column_mapping.amount_column", Reason: "is required"}
	}
	return ColumnMapping{
		DateColumn:     *doc.DateColumn,
		AmountColumn:   *doc.AmountColumn,
		MerchantColumn: doc.MerchantColumn,
		CategoryColumn: doc.CategoryColumn,
		NotesColumn:    doc.NotesColumn,
		PlatformColumn: doc.PlatformColumn,
		ItemColumn:     doc.ItemColumn,
		QuantityColumn: doc.QuantityColumn,
	}, nil
}

func buildParsingStrategy(doc *parsingDoc) (ParsingStrategy, error) {
	ps := defaultParsingStrategy()
	if doc == nil {
		return ps, nil
	}

	if doc.Mode != nil {
		switch m := ParsingMode(*doc.Mode); m {
		case ModeStandard, ModeMixedNotes, ModeFullNLP:
			ps.Mode = m
		default:
			return ParsingStrategy{}, &StructuralError{Path: "parsing_strategy.mode", Reason: fmt.Sprintf("unknown mode %q", *doc.Mode)}
		}
	}
	if doc.DateFormat != nil {
		ps.DateFormat = *doc.DateFormat
	}
	if doc.CurrencyDefault != nil {
		ps.CurrencyDefault = *doc.CurrencyDefault
	}

	if doc.MerchantExtraction != nil {
		me := defaultMerchantExtraction()
		ext := doc.MerchantExtraction
		if ext.Enabled != nil {
			me.Enabled = *ext.Enabled
		}
		if ext.Source != nil {
			switch s := ExtractionSource(*ext.Source); s {
			case SourceColumn, SourceNotes, SourceAIInference:
				me.Source = s
			default:
				return ParsingStrategy{}, &StructuralError{
					Path:   "parsing_strategy.merchant_extraction.source",
					Reason: fmt.Sprintf("unknown source %q", *ext.Source),
				}
			}
		}
		for i, r := range ext.Rules {
			if r.Pattern == nil {
				return ParsingStrategy{}, &StructuralError{
					Path:   fmt.Sprintf("parsing_strategy.merchant_extraction.rules[%d].pattern", i),
					Reason: "is required",
				}
			}
			action := ActionExtract
			if r.Action != nil {
				switch a := RuleAction(*r.Action); a {
				case ActionExtract, ActionIgnore:
					action = a
				default:
					return ParsingStrategy{}, &StructuralError{
						Path:   fmt.Sprintf("parsing_strategy.merchant_extraction.rules[%d].action", i),
						Reason: fmt.Sprintf("unknown action %q", *r.Action),
					}
				}
			}
			me.Rules = append(me.Rules, ExtractionRule{Pattern: *r.Pattern, Action: action})
		}
		ps.MerchantExtraction = me
	}

	return ps, nil
}

func buildCategorySystem(doc *categorySystemDoc) (CategorySystem, error) {
	cs := defaultCategorySystem()
	if doc == nil {
		return cs, nil
	}

	if doc.Type != nil {
		switch t := CategorySystemType(*doc.Type); t {
		case SystemFlat, SystemHierarchical, SystemDimensionalSplit:
			cs.Type = t
		default:
			return CategorySystem{}, &StructuralError{Path: "category_system.type", Reason: fmt.Sprintf("unknown type %q", *doc.Type)}
		}
	}
	for raw, m := range doc.Mapping {
		if m.CategoryMain == nil || *m.CategoryMain == "" {
			return CategorySystem{}, &StructuralError{
				Path:   fmt.Sprintf("category_system.category_mapping[%q].category_main", raw),
				Reason: "is required",
			}
		}
		tags := m.Tags
		if tags == nil {
			tags = []string{}
		}
		cs.Mapping[raw] = CategoryMapping{
			CategoryMain: *m.CategoryMain,
			CategorySub:  m.CategorySub,
			Tags:         tags,
		}
	}
	cs.InferencePrompt = doc.InferencePrompt

	return cs, nil
}

func buildCleaningRules(doc *cleaningDoc) (DataCleaningRules, error) {
	dcr := defaultDataCleaningRules()
	if doc == nil {
		return dcr, nil
	}

	if doc.ExcludeTransactions != nil {
		dcr.ExcludeTransactions = doc.ExcludeTransactions
	}
	if mn := doc.MerchantNormalization; mn != nil {
		if mn.Enabled != nil {
			dcr.MerchantNormalization.Enabled = *mn.Enabled
		}
		if mn.Mappings != nil {
			dcr.MerchantNormalization.Mappings = mn.Mappings
		}
	}
	if dd := doc.Deduplication; dd != nil {
		if dd.Enabled != nil {
			dcr.Deduplication.Enabled = *dd.Enabled
		}
		if dd.MatchFields != nil {
			dcr.Deduplication.MatchFields = dd.MatchFields
		}
		if dd.TimeToleranceSeconds != nil {
			if *dd.TimeToleranceSeconds < 0 {
				return DataCleaningRules{}, &StructuralError{
					Path:   "data_cleaning_rules.deduplication.time_tolerance_seconds",
					Reason: "must not be negative",
				}
			}
			dcr.Deduplication.TimeToleranceSeconds = *dd.TimeToleranceSeconds
		}
	}

	return dcr, nil
}

func buildMetadata(doc *metadataDoc) Metadata {
	md := defaultMetadata()
	if doc == nil {
		return md
	}
	if doc.AIModel != nil {
		md.AIModel = *doc.AIModel
	}
	if doc.ConfidenceThreshold != nil {
		md.ConfidenceThreshold = *doc.ConfidenceThreshold
	}
	if doc.UserConfirmed != nil {
		md.UserConfirmed = *doc.UserConfirmed
	}
	md.Notes = doc.Notes
	return md
}

func parseCreatedAt(raw *string) (time.Time, error) {
	if raw == nil {
		return time.Now(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &StructuralError{Path: "created_at", Reason: fmt.Sprintf("not an ISO-8601 timestamp: %q", *raw)}
}

func stringOr(v *string, def string) string {
	if v != nil {
		return *v
	}
	return def
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}
