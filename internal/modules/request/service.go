// README: Request service implements the booking state machine and the
// acceptance arbitration that binds exactly one pro to a request.
package request

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pronto/internal/types"
)

var (
	ErrNotFound      = errors.New("service request not found")
	ErrAlreadyTaken  = errors.New("service request already taken")
	ErrInvalidState  = errors.New("invalid state transition")
	ErrActiveRequest = errors.New("customer has an active request")
	ErrBadRequest    = errors.New("bad request")
)

// RequestStore persists service requests. Claim is the concurrency-critical
// method; its conditional write is the authority on who wins an acceptance
// race.
type RequestStore interface {
	Create(ctx context.Context, r *ServiceRequest) error
	Get(ctx context.Context, id types.ID) (*ServiceRequest, error)
	Claim(ctx context.Context, id, proID types.ID, finalPrice *decimal.Decimal) (bool, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error)
}

// AttemptResolver settles outstanding match attempts once a winner is bound.
type AttemptResolver interface {
	ResolveOutcome(ctx context.Context, requestID, winnerProID types.ID) error
}

type Service struct {
	store    RequestStore
	attempts AttemptResolver
}

func NewService(store RequestStore, attempts AttemptResolver) *Service {
	return &Service{store: store, attempts: attempts}
}

type CreateCommand struct {
	CustomerID        types.ID
	ServiceType       types.ServiceType
	Load              types.LoadSize
	VehicleType       types.VehicleType
	Pickup            types.Point
	Destination       *types.Point
	QuotedPrice       decimal.Decimal
	GuaranteedCeiling *decimal.Decimal
	ScheduledFor      *time.Time
}

type AcceptCommand struct {
	RequestID  types.ID
	ProID      types.ID
	FinalPrice *decimal.Decimal
}

type StartCommand struct {
	RequestID types.ID
	ProID     types.ID
}

type CompleteCommand struct {
	RequestID types.ID
	ProID     types.ID
}

type CancelCommand struct {
	RequestID types.ID
	ActorType string
	Reason    string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.CustomerID == "" || cmd.ServiceType == "" {
		return "", ErrBadRequest
	}
	if !cmd.Load.Valid() {
		return "", ErrBadRequest
	}
	if badCoord(cmd.Pickup) || (cmd.Destination != nil && badCoord(*cmd.Destination)) {
		return "", ErrBadRequest
	}
	active, err := s.store.HasActiveByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return "", err
	}
	if active {
		return "", ErrActiveRequest
	}

	id := types.ID(uuid.NewString())
	now := time.Now().UTC()
	r := &ServiceRequest{
		ID:                id,
		CustomerID:        cmd.CustomerID,
		ServiceType:       cmd.ServiceType,
		Load:              cmd.Load,
		VehicleType:       cmd.VehicleType,
		Pickup:            cmd.Pickup,
		Destination:       cmd.Destination,
		Status:            StatusPending,
		QuotedPrice:       cmd.QuotedPrice,
		GuaranteedCeiling: cmd.GuaranteedCeiling,
		ScheduledFor:      cmd.ScheduledFor,
		CreatedAt:         now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  id,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "customer",
		ActorID:    &cmd.CustomerID,
		CreatedAt:  now,
	})
	return id, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*ServiceRequest, error) {
	return s.store.Get(ctx, id)
}

// MarkMatching moves a freshly dispatched request into matching. Losing the
// race to an accept or a cancel is fine; the request has simply moved on.
func (s *Service) MarkMatching(ctx context.Context, id types.ID) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.Status == StatusMatching {
		return nil
	}
	if !CanTransition(r.Status, StatusMatching) {
		return nil
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusMatching, r.StatusVersion, nil)
	if err != nil || !ok {
		return err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  r.ID,
		FromStatus: r.Status,
		ToStatus:   StatusMatching,
		ActorType:  "system",
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// Accept binds a pro to a request. Exactly one concurrent caller wins; every
// other caller gets ErrAlreadyTaken, which is an expected outcome and must
// not be retried.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*ServiceRequest, error) {
	if cmd.ProID == "" {
		return nil, ErrBadRequest
	}
	r, err := s.store.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if r.AcceptedAt != nil || r.CancelledAt != nil || !PreAcceptance(r.Status) {
		return nil, ErrAlreadyTaken
	}

	won, err := s.store.Claim(ctx, cmd.RequestID, cmd.ProID, cmd.FinalPrice)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyTaken
	}

	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  r.ID,
		FromStatus: r.Status,
		ToStatus:   StatusAccepted,
		ActorType:  "pro",
		ActorID:    &cmd.ProID,
		CreatedAt:  time.Now().UTC(),
	})
	if s.attempts != nil {
		_ = s.attempts.ResolveOutcome(ctx, cmd.RequestID, cmd.ProID)
	}
	return s.store.Get(ctx, cmd.RequestID)
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	return s.advance(ctx, cmd.RequestID, cmd.ProID, StatusInProgress)
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	return s.advance(ctx, cmd.RequestID, cmd.ProID, StatusCompleted)
}

// advance moves an assigned request along the work flow. Only the assigned
// pro may move it.
func (s *Service) advance(ctx context.Context, id, proID types.ID, to Status) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.AssignedProID == nil || *r.AssignedProID != proID {
		return ErrBadRequest
	}
	if !CanTransition(r.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, to, r.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  r.ID,
		FromStatus: r.Status,
		ToStatus:   to,
		ActorType:  "pro",
		ActorID:    &proID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	r, err := s.store.Get(ctx, cmd.RequestID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return ErrInvalidState
	}
	reason := cmd.Reason
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusCancelled, r.StatusVersion, &reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	actorID := r.AssignedProID
	if cmd.ActorType == "customer" {
		actorID = &r.CustomerID
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  r.ID,
		FromStatus: r.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		ActorID:    actorID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// Expire times out a request that never found a pro.
func (s *Service) Expire(ctx context.Context, id types.ID) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusExpired) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusExpired, r.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  r.ID,
		FromStatus: r.Status,
		ToStatus:   StatusExpired,
		ActorType:  "system",
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func badCoord(p types.Point) bool {
	return math.IsNaN(p.Lat) || math.IsNaN(p.Lng) ||
		p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180
}
