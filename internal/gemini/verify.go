// Package gemini talks to the Gemini API directly; doctor uses it to check
// that the key in .env is accepted.
package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// KeyVerifier checks an API key against a model.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, apiKey, model string) error
}

// Verifier checks keys with a model metadata lookup, which costs no tokens.
type Verifier struct {
	Timeout time.Duration // zero means ctx only
}

// VerifyKey returns nil when the API accepts apiKey and knows model.
func (v *Verifier) VerifyKey(ctx context.Context, apiKey, model string) error {
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}
	if _, err := client.Models.Get(ctx, model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", model, err)
	}
	return nil
}
