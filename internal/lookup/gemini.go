// Package lookup provides the optional external-lookup capability for
// the enrichment engine, backed by Google Gemini.
package lookup

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini answers enrichment queries with a Gemini model. Every call
// is bounded by the caller's context; the engine passes a deadline and
// treats any error as no-result.
type Gemini struct {
	model       string
	temperature float32
}

// NewGemini returns a Gemini lookup provider.
func NewGemini(model string) *Gemini {
	return &Gemini{
		model:       model,
		temperature: 0.1,
	}
}

// Lookup sends the query and returns the model's answer, or an empty
// string when the model has nothing.
func (g *Gemini) Lookup(ctx context.Context, query string) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(query))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return strings.TrimSpace(string(txt)), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}
