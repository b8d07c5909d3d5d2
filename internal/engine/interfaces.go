package engine

import "context"

// CategoryHints carries the row context an inferencer may use when guessing
// a category.
type CategoryHints struct {
	RawCategory string
	Merchant    string
	ItemName    string
	Notes       string
}

// Inferencer is the boundary to AI inference. Implementations live outside
// this core; the contract is only that inferred values carry a confidence
// strictly below 1.0.
type Inferencer interface {
	// InferCategory guesses a category_main for an unmapped raw category.
	// An empty category means the inferencer declined to guess.
	InferCategory(ctx context.Context, prompt string, hints CategoryHints) (category string, confidence float64, err error)

	// InferMerchant extracts a merchant name from free-form notes text.
	// An empty merchant means none could be found.
	InferMerchant(ctx context.Context, notes string) (merchant string, confidence float64, err error)
}
