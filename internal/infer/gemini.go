// Package infer provides the Gemini-backed implementation of the engine's
// inference boundary. Everything here is best-effort: results carry a
// confidence strictly below 1.0 and callers degrade gracefully on error.
package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/githubledger/ledgerflow/internal/engine"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Inferred values never claim human-entered certainty.
const maxInferredConfidence = 0.85

// Gemini calls the GenAI API for category and merchant inference.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a client using ambient API credentials
// (GEMINI_API_KEY or application default credentials).
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

type inferenceReply struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// InferCategory implements engine.Inferencer.
func (g *Gemini) InferCategory(ctx context.Context, prompt string, hints engine.CategoryHints) (string, float64, error) {
	fullPrompt := prompt + "\n\n" +
		"Context for this transaction:\n" +
		fmt.Sprintf("- raw category: %q\n", hints.RawCategory) +
		fmt.Sprintf("- merchant: %q\n", hints.Merchant) +
		fmt.Sprintf("- item: %q\n", hints.ItemName) +
		fmt.Sprintf("- notes: %q\n\n", hints.Notes) +
		"Reply with STRICT JSON only, no code fences:\n" +
		`{"value": "<category or empty string>", "confidence": <0.0-1.0>}`

	return g.generate(ctx, fullPrompt)
}

// InferMerchant implements engine.Inferencer.
func (g *Gemini) InferMerchant(ctx context.Context, notes string) (string, float64, error) {
	prompt := "Extract the merchant (seller) name from this transaction note, " +
		"if one is present. Ignore prices, dates and quantities.\n\n" +
		fmt.Sprintf("Note: %q\n\n", notes) +
		"Reply with STRICT JSON only, no code fences:\n" +
		`{"value": "<merchant or empty string>", "confidence": <0.0-1.0>}`

	return g.generate(ctx, prompt)
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, float64, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", 0, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return "", 0, fmt.Errorf("empty response from model")
	}

	var reply inferenceReply
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &reply); err != nil {
		return "", 0, fmt.Errorf("unmarshal model reply: %w\nraw response: %s", err, raw)
	}

	confidence := reply.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > maxInferredConfidence {
		confidence = maxInferredConfidence
	}
	return strings.TrimSpace(reply.Value), confidence, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk that models
// emit despite instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
