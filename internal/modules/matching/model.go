// README: Matching criteria, ranked results, and match attempt records.
package matching

import (
	"time"

	"pronto/internal/modules/directory"
	"pronto/internal/types"
)

type MatchCriteria struct {
	ServiceType       types.ServiceType
	Load              types.LoadSize
	Pickup            *types.Point
	VerifiedOnly      bool
	PreferredLanguage string
	PriorityOnly      bool
}

// RankedPro pairs a candidate with its composite score.
type RankedPro struct {
	Pro   directory.Pro
	Score float64
}

type AttemptStatus string

const (
	AttemptPending  AttemptStatus = "pending"
	AttemptAccepted AttemptStatus = "accepted"
	AttemptDeclined AttemptStatus = "declined"
	AttemptExpired  AttemptStatus = "expired"
)

// MatchAttempt is one candidate notification tied to a request. It is created
// pending here and driven to a terminal status by acceptance or by the
// external expiry timer.
type MatchAttempt struct {
	ID        types.ID
	RequestID types.ID
	ProID     types.ID
	Status    AttemptStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

const (
	// attemptTTL is how long a notified pro has to respond.
	attemptTTL = 5 * time.Minute
	// dispatchKeyTTL bounds the redis dispatch markers (requests resolve well
	// within a week).
	dispatchKeyTTL = 7 * 24 * time.Hour
)
