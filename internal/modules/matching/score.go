// README: Composite match scoring. Additive, every factor non-negative, so a
// plain descending sort is a safe top-k selection.
package matching

import (
	"pronto/internal/geo"
	"pronto/internal/modules/directory"
)

const (
	// defaultRating stands in for pros with no reviews yet.
	defaultRating = 4.0

	ratingWeight     = 20.0 // rating 0-5 -> 0-100
	completionWeight = 10.0
	completionCap    = 50.0
	verifiedBonus    = 15.0
	proximityRange   = 30.0 // miles; closer pros score up to 30
	vehicleBonus     = 10.0
	languageBonus    = 25.0
	loyaltyBonus     = 20.0
)

// Score computes the composite match score for one candidate. Increasing any
// "better" attribute (rating, completion ratio, verified, proximity, vehicle
// capacity, language match, loyalty boost) never lowers the result.
func Score(c MatchCriteria, p directory.Pro) float64 {
	rating := p.Rating
	if rating == 0 {
		rating = defaultRating
	}
	score := rating * ratingWeight

	reviews := p.ReviewCount
	if reviews < 1 {
		reviews = 1
	}
	completion := float64(p.JobsCompleted) / float64(reviews) * completionWeight
	if completion > completionCap {
		completion = completionCap
	}
	score += completion

	if p.Verified {
		score += verifiedBonus
	}

	if c.Pickup != nil && p.Location != nil {
		if d := geo.Miles(*c.Pickup, *p.Location); d < proximityRange {
			score += proximityRange - d
		}
	}

	if rank := p.VehicleType.CapacityRank(); rank > 0 && rank >= c.Load.Rank() {
		score += vehicleBonus
	}

	if c.PreferredLanguage != "" && p.Speaks(c.PreferredLanguage) {
		score += languageBonus
	}

	if p.PriorityBoost {
		score += loyaltyBonus
	}

	return score
}
