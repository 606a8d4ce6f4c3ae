package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiAdvisor implements Advisor using Google's Gemini models.
type GeminiAdvisor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAdvisor initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiAdvisor(ctx context.Context, apiKey string) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Use Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.4)

	return &GeminiAdvisor{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (a *GeminiAdvisor) Close() {
	a.client.Close()
}

const dispatchSystemPrompt = "You are a dispatch analyst for a home-services marketplace. " +
	"Briefly explain why the top candidates are good matches. 2-3 sentences max."

// DispatchSummary asks the model to narrate the ranking. Callers should fall
// back to FallbackSummary on any error.
func (a *GeminiAdvisor) DispatchSummary(ctx context.Context, dc DispatchContext) (string, error) {
	payload, err := json.Marshal(dc.Matches)
	if err != nil {
		return "", fmt.Errorf("encode matches: %w", err)
	}

	prompt := fmt.Sprintf("%s\n\nJob: %s in %s. Top matches: %s",
		dispatchSystemPrompt, dc.ServiceType, dc.City, payload)

	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	summary := strings.TrimSpace(out.String())
	if summary == "" {
		return "", fmt.Errorf("empty summary from Gemini")
	}
	return summary, nil
}
