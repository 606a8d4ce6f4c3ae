// README: InsuranceGate decides whether a pro may accept jobs right now.
package insurance

import (
	"context"
	"errors"
	"time"

	"pronto/internal/types"
)

type Gate struct {
	policies PolicyReader
	clock    func() time.Time
}

func NewGate(policies PolicyReader) *Gate {
	return &Gate{policies: policies, clock: time.Now}
}

// IsEligible reports whether the pro is cleared to take jobs. A pro with no
// policy on file rides on the platform's blanket coverage and is eligible.
//
// Lookup failures FAIL OPEN: a datastore hiccup never blocks a job. That is a
// confirmed business decision (availability over strict compliance), and a
// known risk — do not "fix" this to fail closed without a product sign-off.
func (g *Gate) IsEligible(ctx context.Context, proID types.ID) bool {
	p, err := g.policies.GeneralLiability(ctx, proID)
	if errors.Is(err, ErrNoPolicy) {
		return true
	}
	if err != nil {
		return true
	}
	return p.Current(g.clock())
}
