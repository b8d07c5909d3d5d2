package profile

// Defaults consulted once per optional field during deserialization. These
// are compiled-in constants; the list-valued ones are copied fresh into
// each profile so no two profiles share backing arrays.
const (
	DefaultProfileVersion      = "2.0"
	DefaultDateFormat          = "%Y-%m-%d"
	DefaultCurrency            = "CNY"
	DefaultAIModel             = "gpt-4o"
	DefaultConfidenceThreshold = 0.8
	DefaultSampleRows          = 50
)

// DefaultExcludeTransactions returns a fresh copy of the transaction-kind
// tokens dropped before they ever become candidate records.
func DefaultExcludeTransactions() []string {
	return []string{"transfer", "repayment", "redpacket"}
}

// DefaultDeduplicationMatchFields returns a fresh copy of the fields
// compared when deciding whether two candidates are the same transaction.
func DefaultDeduplicationMatchFields() []string {
	return []string{"amount", "transaction_time", "merchant"}
}

func defaultMerchantExtraction() MerchantExtraction {
	return MerchantExtraction{
		Enabled: false,
		Source:  SourceColumn,
		Rules:   []ExtractionRule{},
	}
}

func defaultParsingStrategy() ParsingStrategy {
	return ParsingStrategy{
		Mode:               ModeStandard,
		DateFormat:         DefaultDateFormat,
		CurrencyDefault:    DefaultCurrency,
		MerchantExtraction: defaultMerchantExtraction(),
	}
}

func defaultCategorySystem() CategorySystem {
	return CategorySystem{
		Type:    SystemFlat,
		Mapping: map[string]CategoryMapping{},
	}
}

func defaultDataCleaningRules() DataCleaningRules {
	return DataCleaningRules{
		ExcludeTransactions: DefaultExcludeTransactions(),
		MerchantNormalization: MerchantNormalization{
			Enabled:  false,
			Mappings: map[string]string{},
		},
		Deduplication: Deduplication{
			Enabled:              false,
			MatchFields:          DefaultDeduplicationMatchFields(),
			TimeToleranceSeconds: 0,
		},
	}
}

func defaultMetadata() Metadata {
	return Metadata{
		AIModel:             DefaultAIModel,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		UserConfirmed:       false,
	}
}
