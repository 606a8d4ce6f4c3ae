package ai

import (
	"context"
)

// Advisor defines the contract for match summarization.
// This interface allows for swapping different AI providers (Gemini, OpenAI, etc.) in the future.
type Advisor interface {
	// DispatchSummary explains in two or three sentences why the top-ranked
	// candidates fit the job.
	DispatchSummary(ctx context.Context, dc DispatchContext) (string, error)
}
