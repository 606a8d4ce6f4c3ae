// README: Request service tests (state machine + flows + invalid requests).
package request

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pronto/internal/types"
)

// memStore implements RequestStore with the same conditional-write semantics
// as the SQL store, so the arbitration logic is testable without a database.
type memStore struct {
	mu       sync.Mutex
	requests map[types.ID]*ServiceRequest
	events   []Event
}

func newMemStore() *memStore {
	return &memStore{requests: map[types.ID]*ServiceRequest{}}
}

func (m *memStore) Create(ctx context.Context, r *ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *memStore) Get(ctx context.Context, id types.ID) (*ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) Claim(ctx context.Context, id, proID types.ID, finalPrice *decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return false, nil
	}
	if !PreAcceptance(r.Status) || r.AcceptedAt != nil || r.CancelledAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	r.Status = StatusAccepted
	r.StatusVersion++
	r.AssignedProID = &proID
	r.AcceptedAt = &now
	if finalPrice != nil {
		fp := *finalPrice
		r.FinalPrice = &fp
	}
	return true, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != from || r.StatusVersion != version {
		return false, nil
	}
	now := time.Now().UTC()
	r.Status = to
	r.StatusVersion++
	switch to {
	case StatusInProgress:
		r.StartedAt = &now
	case StatusCompleted:
		r.CompletedAt = &now
	case StatusCancelled:
		r.CancelledAt = &now
	}
	if reason != nil {
		v := *reason
		r.CancelReason = &v
	}
	return true, nil
}

func (m *memStore) AppendEvent(ctx context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memStore) HasActiveByCustomer(ctx context.Context, customerID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.CustomerID != customerID {
			continue
		}
		switch r.Status {
		case StatusPending, StatusMatching, StatusMatched, StatusAccepted, StatusInProgress:
			return true, nil
		}
	}
	return false, nil
}

type mockResolver struct {
	mu       sync.Mutex
	resolved []types.ID
}

func (m *mockResolver) ResolveOutcome(ctx context.Context, requestID, winnerProID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, winnerProID)
	return nil
}

func mustCreateRequest(t *testing.T, svc *Service, customerID types.ID) types.ID {
	t.Helper()
	id, err := svc.Create(context.Background(), CreateCommand{
		CustomerID:  customerID,
		ServiceType: types.ServiceJunkRemoval,
		Load:        types.LoadMedium,
		Pickup:      types.Point{Lat: 28.5383, Lng: -81.3792},
		QuotedPrice: decimal.RequireFromString("127.50"),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return id
}

func assertStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	r, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if r.Status != want {
		t.Fatalf("status = %s, want %s", r.Status, want)
	}
}

// TestCanTransition verifies the state machine transition table.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusMatching, true},
		{StatusMatching, StatusMatched, true},
		{StatusMatched, StatusAccepted, true},
		{StatusAccepted, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		// acceptance straight from pending or matching
		{StatusPending, StatusAccepted, true},
		{StatusMatching, StatusAccepted, true},
		// cancel and expire from every pre-acceptance state
		{StatusPending, StatusCancelled, true},
		{StatusMatching, StatusCancelled, true},
		{StatusMatched, StatusCancelled, true},
		{StatusPending, StatusExpired, true},
		{StatusMatching, StatusExpired, true},
		{StatusMatched, StatusExpired, true},
		// accepted is terminal with respect to assignment
		{StatusAccepted, StatusCancelled, false},
		{StatusAccepted, StatusExpired, false},
		{StatusAccepted, StatusMatched, false},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusExpired, StatusMatching, false},
		// invalid: skipping states
		{StatusPending, StatusInProgress, false},
		{StatusMatched, StatusCompleted, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestRequestFlowHappyPath(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	id := mustCreateRequest(t, svc, "c_happy")
	assertStatus(t, svc, id, StatusPending)

	if err := svc.MarkMatching(ctx, id); err != nil {
		t.Fatalf("mark matching: %v", err)
	}
	assertStatus(t, svc, id, StatusMatching)

	r, err := svc.Accept(ctx, AcceptCommand{RequestID: id, ProID: "pro-1"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if r.AssignedProID == nil || *r.AssignedProID != "pro-1" {
		t.Fatalf("assignedProID = %v, want pro-1", r.AssignedProID)
	}
	if r.AcceptedAt == nil {
		t.Fatal("acceptedAt not set")
	}
	assertStatus(t, svc, id, StatusAccepted)

	if err := svc.Start(ctx, StartCommand{RequestID: id, ProID: "pro-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	assertStatus(t, svc, id, StatusInProgress)

	if err := svc.Complete(ctx, CompleteCommand{RequestID: id, ProID: "pro-1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStatus(t, svc, id, StatusCompleted)
}

func TestAcceptUnknownRequest(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	_, err := svc.Accept(context.Background(), AcceptCommand{RequestID: "nope", ProID: "pro-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAcceptCancelledRequest(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	id := mustCreateRequest(t, svc, "c_cancel")
	if err := svc.Cancel(ctx, CancelCommand{RequestID: id, ActorType: "customer", Reason: "changed my mind"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := svc.Accept(ctx, AcceptCommand{RequestID: id, ProID: "pro-1"})
	if !errors.Is(err, ErrAlreadyTaken) {
		t.Fatalf("err = %v, want ErrAlreadyTaken", err)
	}
}

func TestSecondAcceptIsAlreadyTaken(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	id := mustCreateRequest(t, svc, "c_second")
	if _, err := svc.Accept(ctx, AcceptCommand{RequestID: id, ProID: "pro-1"}); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	_, err := svc.Accept(ctx, AcceptCommand{RequestID: id, ProID: "pro-2"})
	if !errors.Is(err, ErrAlreadyTaken) {
		t.Fatalf("err = %v, want ErrAlreadyTaken", err)
	}

	r, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.AssignedProID == nil || *r.AssignedProID != "pro-1" {
		t.Fatalf("assignedProID = %v, want pro-1", r.AssignedProID)
	}
}

func TestAcceptBindsFinalPrice(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	price := decimal.RequireFromString("102.50")

	id := mustCreateRequest(t, svc, "c_price")
	r, err := svc.Accept(context.Background(), AcceptCommand{RequestID: id, ProID: "pro-1", FinalPrice: &price})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if r.FinalPrice == nil || !r.FinalPrice.Equal(price) {
		t.Fatalf("finalPrice = %v, want %s", r.FinalPrice, price)
	}
}

func TestAcceptResolvesMatchAttempts(t *testing.T) {
	resolver := &mockResolver{}
	svc := NewService(newMemStore(), resolver)

	id := mustCreateRequest(t, svc, "c_attempts")
	if _, err := svc.Accept(context.Background(), AcceptCommand{RequestID: id, ProID: "pro-7"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(resolver.resolved) != 1 || resolver.resolved[0] != "pro-7" {
		t.Fatalf("resolved = %v, want [pro-7]", resolver.resolved)
	}
}

func TestStartByUnassignedPro(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	id := mustCreateRequest(t, svc, "c_wrongpro")
	if _, err := svc.Accept(ctx, AcceptCommand{RequestID: id, ProID: "pro-1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	err := svc.Start(ctx, StartCommand{RequestID: id, ProID: "pro-2"})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestCancelCompletedRequest(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	id := mustCreateRequest(t, svc, "c_done")
	if _, err := svc.Accept(ctx, AcceptCommand{RequestID: id, ProID: "pro-1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.Start(ctx, StartCommand{RequestID: id, ProID: "pro-1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Complete(ctx, CompleteCommand{RequestID: id, ProID: "pro-1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	err := svc.Cancel(ctx, CancelCommand{RequestID: id, ActorType: "customer", Reason: "too late"})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestExpirePendingRequest(t *testing.T) {
	svc := NewService(newMemStore(), nil)

	id := mustCreateRequest(t, svc, "c_expire")
	if err := svc.Expire(context.Background(), id); err != nil {
		t.Fatalf("expire: %v", err)
	}
	assertStatus(t, svc, id, StatusExpired)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  CreateCommand
		want error
	}{
		{
			name: "missing customer",
			cmd:  CreateCommand{ServiceType: types.ServiceJunkRemoval, Load: types.LoadSmall},
			want: ErrBadRequest,
		},
		{
			name: "missing service type",
			cmd:  CreateCommand{CustomerID: "c1", Load: types.LoadSmall},
			want: ErrBadRequest,
		},
		{
			name: "invalid load",
			cmd:  CreateCommand{CustomerID: "c1", ServiceType: types.ServiceJunkRemoval, Load: "colossal"},
			want: ErrBadRequest,
		},
		{
			name: "out of range pickup",
			cmd: CreateCommand{
				CustomerID: "c1", ServiceType: types.ServiceJunkRemoval, Load: types.LoadSmall,
				Pickup: types.Point{Lat: 120, Lng: 0},
			},
			want: ErrBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.cmd)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateCarriesGuaranteedCeiling(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), nil)

	ceiling := decimal.RequireFromString("150.00")
	id, err := svc.Create(ctx, CreateCommand{
		CustomerID:        "c_ceiling",
		ServiceType:       types.ServiceJunkRemoval,
		Load:              types.LoadMedium,
		Pickup:            types.Point{Lat: 28.5383, Lng: -81.3792},
		QuotedPrice:       decimal.RequireFromString("127.50"),
		GuaranteedCeiling: &ceiling,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	r, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if r.GuaranteedCeiling == nil || !r.GuaranteedCeiling.Equal(ceiling) {
		t.Fatalf("guaranteedCeiling = %v, want %s", r.GuaranteedCeiling, ceiling)
	}

	// The cap is informational; acceptance and completion ignore it.
	if _, err := svc.Accept(ctx, AcceptCommand{RequestID: id, ProID: "pro-1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	r, err = svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if r.GuaranteedCeiling == nil || !r.GuaranteedCeiling.Equal(ceiling) {
		t.Fatal("guaranteedCeiling lost across acceptance")
	}
}

func TestCreateRejectsSecondActiveRequest(t *testing.T) {
	svc := NewService(newMemStore(), nil)

	mustCreateRequest(t, svc, "c_busy")
	_, err := svc.Create(context.Background(), CreateCommand{
		CustomerID:  "c_busy",
		ServiceType: types.ServiceJunkRemoval,
		Load:        types.LoadSmall,
		Pickup:      types.Point{Lat: 28.5383, Lng: -81.3792},
	})
	if !errors.Is(err, ErrActiveRequest) {
		t.Fatalf("err = %v, want ErrActiveRequest", err)
	}
}
