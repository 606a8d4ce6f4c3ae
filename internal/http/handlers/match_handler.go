// README: Match handler ranks pros for a job and narrates the result.
package handlers

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pronto/internal/ai"
	"pronto/internal/geo"
	"pronto/internal/modules/matching"
	"pronto/internal/types"
)

// Matcher ranks candidate pros for a request.
type Matcher interface {
	Match(ctx context.Context, c matching.MatchCriteria) ([]matching.RankedPro, error)
}

type MatchHandler struct {
	matching Matcher
	advisor  ai.Advisor
}

// NewMatchHandler wires the matcher and an optional advisor; a nil advisor
// means every response carries the fallback reasoning.
func NewMatchHandler(matcher Matcher, advisor ai.Advisor) *MatchHandler {
	return &MatchHandler{matching: matcher, advisor: advisor}
}

type pointReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type matchReq struct {
	ServiceType       string    `json:"service_type"`
	LoadSize          string    `json:"load_size"`
	Pickup            *pointReq `json:"pickup"`
	City              string    `json:"city"`
	PreferVerifiedPro bool      `json:"prefer_verified_pro"`
	PreferredLanguage string    `json:"preferred_language"`
	IsPriority        bool      `json:"is_priority"`
}

type matchedPro struct {
	ProID         string  `json:"proId"`
	Name          string  `json:"name"`
	Score         float64 `json:"score"`
	Rating        float64 `json:"rating"`
	JobsCompleted int     `json:"jobsCompleted"`
	Distance      float64 `json:"distance"`
	Verified      bool    `json:"verified"`
}

// Match handles POST /api/match.
func (h *MatchHandler) Match(c *gin.Context) {
	var req matchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ServiceType == "" {
		writeError(c, http.StatusBadRequest, "missing service_type")
		return
	}

	criteria := matching.MatchCriteria{
		ServiceType:       types.ServiceType(req.ServiceType),
		Load:              types.LoadSize(req.LoadSize),
		VerifiedOnly:      req.PreferVerifiedPro,
		PreferredLanguage: req.PreferredLanguage,
		PriorityOnly:      req.IsPriority,
	}
	if req.Pickup != nil {
		criteria.Pickup = &types.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng}
	}

	ranked, err := h.matching.Match(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	matches := make([]matchedPro, 0, len(ranked))
	for _, r := range ranked {
		matches = append(matches, matchedPro{
			ProID:         string(r.Pro.ID),
			Name:          r.Pro.Name,
			Score:         r.Score,
			Rating:        r.Pro.Rating,
			JobsCompleted: r.Pro.JobsCompleted,
			Distance:      candidateMiles(criteria.Pickup, r.Pro.Location),
			Verified:      r.Pro.Verified,
		})
	}

	writeJSON(c, http.StatusOK, gin.H{
		"matches":         matches,
		"reasoning":       h.reasoning(c.Request.Context(), req, matches),
		"totalCandidates": len(matches),
	})
}

// reasoning asks the advisor about the top three matches and degrades to the
// canned line when the advisor is missing or slow.
func (h *MatchHandler) reasoning(ctx context.Context, req matchReq, matches []matchedPro) string {
	if h.advisor == nil || len(matches) == 0 {
		return ai.FallbackSummary
	}

	top := matches
	if len(top) > 3 {
		top = top[:3]
	}
	dc := ai.DispatchContext{ServiceType: req.ServiceType, City: req.City}
	for _, m := range top {
		dc.Matches = append(dc.Matches, ai.MatchSummary{
			Name:   m.Name,
			Miles:  m.Distance,
			Rating: m.Rating,
			Score:  m.Score,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	summary, err := h.advisor.DispatchSummary(ctx, dc)
	if err != nil {
		return ai.FallbackSummary
	}
	return summary
}

func candidateMiles(pickup *types.Point, loc *types.Point) float64 {
	if pickup == nil || loc == nil {
		return 0
	}
	return math.Round(geo.Miles(*pickup, *loc)*10) / 10
}
