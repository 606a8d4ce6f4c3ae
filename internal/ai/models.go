package ai

// DispatchContext describes a ranked match result for summarization.
type DispatchContext struct {
	// ServiceType is the requested service, e.g. "junk_removal".
	ServiceType string `json:"serviceType"`

	// City is the pickup city, used purely for prose flavor.
	City string `json:"city"`

	// Matches holds the top-ranked candidates, best first.
	Matches []MatchSummary `json:"matches"`
}

// MatchSummary is the per-candidate slice of data the model sees. Keep it
// small; the model needs signal, not the whole profile.
type MatchSummary struct {
	Name   string  `json:"name"`
	Miles  float64 `json:"dist"`
	Rating float64 `json:"rating"`
	Score  float64 `json:"score"`
}

// FallbackSummary is returned to callers when the model is unavailable or
// misbehaves. Dispatch never blocks on the summarizer.
const FallbackSummary = "Ranked by composite score (distance, rating, experience, specialization)."
