// README: Handler tests for the acceptance wire contract and quote errors.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pronto/internal/http/handlers"
	"pronto/internal/modules/matching"
	"pronto/internal/modules/pricing"
	"pronto/internal/modules/request"
	"pronto/internal/types"
)

type stubRequests struct {
	req       *request.ServiceRequest
	acceptErr error
}

func (s *stubRequests) Create(ctx context.Context, cmd request.CreateCommand) (types.ID, error) {
	return "req-1", nil
}

func (s *stubRequests) Get(ctx context.Context, id types.ID) (*request.ServiceRequest, error) {
	if s.req == nil || s.req.ID != id {
		return nil, request.ErrNotFound
	}
	return s.req, nil
}

func (s *stubRequests) Accept(ctx context.Context, cmd request.AcceptCommand) (*request.ServiceRequest, error) {
	if s.acceptErr != nil {
		return nil, s.acceptErr
	}
	if s.req == nil || s.req.ID != cmd.RequestID {
		return nil, request.ErrNotFound
	}
	out := *s.req
	out.Status = request.StatusAccepted
	out.AssignedProID = &cmd.ProID
	now := time.Now()
	out.AcceptedAt = &now
	return &out, nil
}

func (s *stubRequests) Start(ctx context.Context, cmd request.StartCommand) error { return nil }

func (s *stubRequests) Complete(ctx context.Context, cmd request.CompleteCommand) error {
	return nil
}

func (s *stubRequests) Cancel(ctx context.Context, cmd request.CancelCommand) error { return nil }

type stubDispatcher struct{}

func (stubDispatcher) Dispatch(ctx context.Context, requestID types.ID, c matching.MatchCriteria) ([]matching.RankedPro, error) {
	return nil, nil
}

type stubAttempts struct {
	attempts []matching.MatchAttempt
}

func (s *stubAttempts) ListByRequest(ctx context.Context, requestID types.ID) ([]matching.MatchAttempt, error) {
	return s.attempts, nil
}

type stubDispatchLog struct {
	at         time.Time
	dispatched bool
}

func (s *stubDispatchLog) GetDispatchedAt(ctx context.Context, requestID types.ID) (time.Time, bool, error) {
	return s.at, s.dispatched, nil
}

func buildRequestRouter(svc handlers.RequestService) *gin.Engine {
	return buildRequestRouterWith(svc, &stubAttempts{}, &stubDispatchLog{})
}

func buildRequestRouterWith(svc handlers.RequestService, attempts handlers.AttemptReader, log handlers.DispatchLog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewRequestHandler(svc, stubDispatcher{}, attempts, log)
	r.POST("/api/requests", h.Create)
	r.GET("/api/requests/:id", h.Get)
	r.GET("/api/requests/:id/dispatch", h.DispatchStatus)
	r.POST("/api/requests/:id/accept", h.Accept)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pendingRequest(id types.ID) *request.ServiceRequest {
	return &request.ServiceRequest{
		ID:          id,
		CustomerID:  "cust-1",
		ServiceType: types.ServiceJunkRemoval,
		Load:        types.LoadMedium,
		Status:      request.StatusPending,
		QuotedPrice: decimal.RequireFromString("127.50"),
	}
}

func TestAccept_Winner(t *testing.T) {
	r := buildRequestRouter(&stubRequests{req: pendingRequest("req-1")})

	w := doJSON(t, r, http.MethodPost, "/api/requests/req-1/accept", map[string]any{"pro_id": "pro-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["assigned_pro_id"] != "pro-1" {
		t.Errorf("assigned_pro_id = %v, want pro-1", resp["assigned_pro_id"])
	}
	if resp["status"] != string(request.StatusAccepted) {
		t.Errorf("status = %v, want accepted", resp["status"])
	}
}

func TestAccept_AlreadyTaken(t *testing.T) {
	r := buildRequestRouter(&stubRequests{req: pendingRequest("req-1"), acceptErr: request.ErrAlreadyTaken})

	w := doJSON(t, r, http.MethodPost, "/api/requests/req-1/accept", map[string]any{"pro_id": "pro-2"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "already_taken" {
		t.Errorf("error = %v, want already_taken", resp["error"])
	}
}

func TestAccept_NotFound(t *testing.T) {
	r := buildRequestRouter(&stubRequests{})

	w := doJSON(t, r, http.MethodPost, "/api/requests/nope/accept", map[string]any{"pro_id": "pro-1"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "not_found" {
		t.Errorf("error = %v, want not_found", resp["error"])
	}
}

func TestAccept_MissingProID(t *testing.T) {
	r := buildRequestRouter(&stubRequests{req: pendingRequest("req-1")})

	w := doJSON(t, r, http.MethodPost, "/api/requests/req-1/accept", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateRequest(t *testing.T) {
	r := buildRequestRouter(&stubRequests{})

	w := doJSON(t, r, http.MethodPost, "/api/requests", map[string]any{
		"customer_id":  "cust-1",
		"service_type": "junk_removal",
		"load_size":    "medium",
		"pickup":       map[string]float64{"lat": 28.5383, "lng": -81.3792},
		"quoted_price": "127.50",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
}

func TestDispatchStatus(t *testing.T) {
	dispatchedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	attempts := &stubAttempts{attempts: []matching.MatchAttempt{
		{RequestID: "req-1", ProID: "pro-1", Status: matching.AttemptAccepted},
		{RequestID: "req-1", ProID: "pro-2", Status: matching.AttemptExpired},
	}}
	r := buildRequestRouterWith(
		&stubRequests{req: pendingRequest("req-1")},
		attempts,
		&stubDispatchLog{at: dispatchedAt, dispatched: true},
	)

	w := doJSON(t, r, http.MethodGet, "/api/requests/req-1/dispatch", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Dispatched   bool      `json:"dispatched"`
		DispatchedAt time.Time `json:"dispatched_at"`
		Attempts     []struct {
			ProID  string `json:"pro_id"`
			Status string `json:"status"`
		} `json:"attempts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Dispatched || !resp.DispatchedAt.Equal(dispatchedAt) {
		t.Errorf("dispatched = %v at %v, want true at %v", resp.Dispatched, resp.DispatchedAt, dispatchedAt)
	}
	if len(resp.Attempts) != 2 || resp.Attempts[0].ProID != "pro-1" || resp.Attempts[1].Status != "expired" {
		t.Errorf("unexpected attempts: %+v", resp.Attempts)
	}
}

func TestDispatchStatus_UnknownRequest(t *testing.T) {
	r := buildRequestRouter(&stubRequests{})
	w := doJSON(t, r, http.MethodGet, "/api/requests/ghost/dispatch", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}

type stubQuoter struct{}

func (stubQuoter) Quote(ctx context.Context, req pricing.QuoteRequest) (pricing.Quote, error) {
	if !req.Load.Valid() {
		return pricing.Quote{}, pricing.ErrBadRequest
	}
	return pricing.Quote{TotalPrice: decimal.RequireFromString("127.50")}, nil
}

func TestQuote_InvalidLoadIsBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewQuoteHandler(stubQuoter{}, nil)
	r.POST("/api/quotes", h.Quote)

	w := doJSON(t, r, http.MethodPost, "/api/quotes", map[string]any{
		"service_type": "junk_removal",
		"load_size":    "colossal",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestQuote_OK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewQuoteHandler(stubQuoter{}, nil)
	r.POST("/api/quotes", h.Quote)

	w := doJSON(t, r, http.MethodPost, "/api/quotes", map[string]any{
		"service_type": "junk_removal",
		"load_size":    "medium",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["totalPrice"] != "127.5" {
		t.Errorf("totalPrice = %v, want 127.5", resp["totalPrice"])
	}
}
