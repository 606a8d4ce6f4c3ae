// README: Service request aggregate and status definitions.
package request

import (
	"time"

	"github.com/shopspring/decimal"

	"pronto/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusMatching   Status = "matching"
	StatusMatched    Status = "matched"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

type ServiceRequest struct {
	ID            types.ID
	CustomerID    types.ID
	ServiceType   types.ServiceType
	Load          types.LoadSize
	VehicleType   types.VehicleType
	Pickup        types.Point
	Destination   *types.Point
	Status        Status
	StatusVersion int
	AssignedProID *types.ID
	QuotedPrice   decimal.Decimal
	FinalPrice    *decimal.Decimal
	// GuaranteedCeiling is an optional cap on the charge, honored by the
	// payment layer; dispatch carries it but never reads it.
	GuaranteedCeiling *decimal.Decimal
	ScheduledFor      *time.Time
	CreatedAt         time.Time
	AcceptedAt        *time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      *string
}

type Event struct {
	ID         int64
	RequestID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the request state flow (diagram) as code.
// Cancellation and expiry are reachable from every pre-acceptance status;
// once accepted, the pro assignment is final and only the work flow remains.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusMatching, StatusMatched, StatusAccepted, StatusCancelled, StatusExpired},
	StatusMatching:   {StatusMatched, StatusAccepted, StatusCancelled, StatusExpired},
	StatusMatched:    {StatusAccepted, StatusCancelled, StatusExpired},
	StatusAccepted:   {StatusInProgress},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// PreAcceptance reports whether a request can still be claimed by a pro.
func PreAcceptance(s Status) bool {
	switch s {
	case StatusPending, StatusMatching, StatusMatched:
		return true
	}
	return false
}
