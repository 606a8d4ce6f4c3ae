// README: Insurance policy read model; gates matching eligibility only.
package insurance

import (
	"time"

	"pronto/internal/types"
)

type Policy struct {
	ProID      types.ID
	PolicyType string
	Verified   bool
	ExpiresAt  time.Time
}

// Current reports whether the policy covers work at the given instant.
func (p Policy) Current(now time.Time) bool {
	return p.Verified && !p.ExpiresAt.Before(now)
}
