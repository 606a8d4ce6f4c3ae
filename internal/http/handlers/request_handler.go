// README: Service request handlers for booking lifecycle and acceptance.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pronto/internal/modules/matching"
	"pronto/internal/modules/request"
	"pronto/internal/types"
)

// RequestService drives the booking state machine.
type RequestService interface {
	Create(ctx context.Context, cmd request.CreateCommand) (types.ID, error)
	Get(ctx context.Context, id types.ID) (*request.ServiceRequest, error)
	Accept(ctx context.Context, cmd request.AcceptCommand) (*request.ServiceRequest, error)
	Start(ctx context.Context, cmd request.StartCommand) error
	Complete(ctx context.Context, cmd request.CompleteCommand) error
	Cancel(ctx context.Context, cmd request.CancelCommand) error
}

// Dispatcher fans a request out to ranked candidates.
type Dispatcher interface {
	Dispatch(ctx context.Context, requestID types.ID, c matching.MatchCriteria) ([]matching.RankedPro, error)
}

// AttemptReader lists the match attempts recorded for a request.
type AttemptReader interface {
	ListByRequest(ctx context.Context, requestID types.ID) ([]matching.MatchAttempt, error)
}

// DispatchLog reads the dispatch marker for a request.
type DispatchLog interface {
	GetDispatchedAt(ctx context.Context, requestID types.ID) (time.Time, bool, error)
}

type RequestHandler struct {
	requests    RequestService
	dispatcher  Dispatcher
	attempts    AttemptReader
	dispatchLog DispatchLog
}

func NewRequestHandler(requests RequestService, dispatcher Dispatcher, attempts AttemptReader, dispatchLog DispatchLog) *RequestHandler {
	return &RequestHandler{
		requests:    requests,
		dispatcher:  dispatcher,
		attempts:    attempts,
		dispatchLog: dispatchLog,
	}
}

type createRequestReq struct {
	CustomerID  string    `json:"customer_id"`
	ServiceType string    `json:"service_type"`
	LoadSize    string    `json:"load_size"`
	VehicleType string    `json:"vehicle_type"`
	Pickup      *pointReq `json:"pickup"`
	Destination *pointReq `json:"destination"`
	QuotedPrice string    `json:"quoted_price"`
	// GuaranteedCeiling caps what the customer can be charged; carried on the
	// request for the payment layer, never consulted by dispatch itself.
	GuaranteedCeiling string `json:"guaranteed_ceiling"`
	ScheduledFor      string `json:"scheduled_for"`
}

// Create handles POST /api/requests.
func (h *RequestHandler) Create(c *gin.Context) {
	var req createRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Pickup == nil {
		writeError(c, http.StatusBadRequest, "missing pickup")
		return
	}

	cmd := request.CreateCommand{
		CustomerID:  types.ID(req.CustomerID),
		ServiceType: types.ServiceType(req.ServiceType),
		Load:        types.LoadSize(req.LoadSize),
		VehicleType: types.VehicleType(req.VehicleType),
		Pickup:      types.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng},
	}
	if req.Destination != nil {
		cmd.Destination = &types.Point{Lat: req.Destination.Lat, Lng: req.Destination.Lng}
	}
	if req.QuotedPrice != "" {
		price, err := decimal.NewFromString(req.QuotedPrice)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid quoted_price")
			return
		}
		cmd.QuotedPrice = price
	}
	if req.GuaranteedCeiling != "" {
		ceiling, err := decimal.NewFromString(req.GuaranteedCeiling)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid guaranteed_ceiling")
			return
		}
		cmd.GuaranteedCeiling = &ceiling
	}
	if req.ScheduledFor != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid scheduled_for, want RFC3339")
			return
		}
		cmd.ScheduledFor = &t
	}

	id, err := h.requests.Create(c.Request.Context(), cmd)
	if err != nil {
		writeRequestError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"request_id": id, "status": request.StatusPending})
}

// Get handles GET /api/requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	r, err := h.requests.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRequestError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, requestView(r))
}

// Dispatch handles POST /api/requests/:id/dispatch.
func (h *RequestHandler) Dispatch(c *gin.Context) {
	id := types.ID(c.Param("id"))
	r, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		writeRequestError(c, err)
		return
	}

	criteria := matching.MatchCriteria{
		ServiceType: r.ServiceType,
		Load:        r.Load,
		Pickup:      &r.Pickup,
	}
	ranked, err := h.dispatcher.Dispatch(c.Request.Context(), id, criteria)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	notified := make([]string, 0, len(ranked))
	for _, m := range ranked {
		notified = append(notified, string(m.Pro.ID))
	}
	writeJSON(c, http.StatusOK, gin.H{
		"request_id": id,
		"candidates": notified,
	})
}

// DispatchStatus handles GET /api/requests/:id/dispatch: when the request was
// fanned out and where each notified pro's attempt stands.
func (h *RequestHandler) DispatchStatus(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if _, err := h.requests.Get(c.Request.Context(), id); err != nil {
		writeRequestError(c, err)
		return
	}

	attempts, err := h.attempts.ListByRequest(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	dispatchedAt, dispatched, err := h.dispatchLog.GetDispatchedAt(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	views := make([]gin.H, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, gin.H{
			"pro_id":     a.ProID,
			"status":     a.Status,
			"expires_at": a.ExpiresAt,
		})
	}
	resp := gin.H{
		"request_id": id,
		"dispatched": dispatched,
		"attempts":   views,
	}
	if dispatched {
		resp["dispatched_at"] = dispatchedAt
	}
	writeJSON(c, http.StatusOK, resp)
}

type acceptReq struct {
	ProID      string `json:"pro_id"`
	FinalPrice string `json:"final_price"`
}

// Accept handles POST /api/requests/:id/accept. Exactly one pro wins; the
// rest receive 409 already_taken.
func (h *RequestHandler) Accept(c *gin.Context) {
	var req acceptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProID == "" {
		writeError(c, http.StatusBadRequest, "missing pro_id")
		return
	}

	cmd := request.AcceptCommand{
		RequestID: types.ID(c.Param("id")),
		ProID:     types.ID(req.ProID),
	}
	if req.FinalPrice != "" {
		price, err := decimal.NewFromString(req.FinalPrice)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid final_price")
			return
		}
		cmd.FinalPrice = &price
	}

	r, err := h.requests.Accept(c.Request.Context(), cmd)
	if err != nil {
		writeRequestError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, requestView(r))
}

type proActionReq struct {
	ProID string `json:"pro_id"`
}

// Start handles POST /api/requests/:id/start.
func (h *RequestHandler) Start(c *gin.Context) {
	var req proActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProID == "" {
		writeError(c, http.StatusBadRequest, "missing pro_id")
		return
	}
	err := h.requests.Start(c.Request.Context(), request.StartCommand{
		RequestID: types.ID(c.Param("id")),
		ProID:     types.ID(req.ProID),
	})
	if err != nil {
		writeRequestError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": request.StatusInProgress})
}

// Complete handles POST /api/requests/:id/complete.
func (h *RequestHandler) Complete(c *gin.Context) {
	var req proActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProID == "" {
		writeError(c, http.StatusBadRequest, "missing pro_id")
		return
	}
	err := h.requests.Complete(c.Request.Context(), request.CompleteCommand{
		RequestID: types.ID(c.Param("id")),
		ProID:     types.ID(req.ProID),
	})
	if err != nil {
		writeRequestError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": request.StatusCompleted})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/requests/:id/cancel.
func (h *RequestHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "user_cancel"
	}
	err := h.requests.Cancel(c.Request.Context(), request.CancelCommand{
		RequestID: types.ID(c.Param("id")),
		ActorType: "customer",
		Reason:    req.Reason,
	})
	if err != nil {
		writeRequestError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": request.StatusCancelled})
}

func requestView(r *request.ServiceRequest) gin.H {
	v := gin.H{
		"request_id":   r.ID,
		"customer_id":  r.CustomerID,
		"service_type": r.ServiceType,
		"load_size":    r.Load,
		"status":       r.Status,
		"quoted_price": r.QuotedPrice,
		"created_at":   r.CreatedAt,
	}
	if r.AssignedProID != nil {
		v["assigned_pro_id"] = *r.AssignedProID
	}
	if r.FinalPrice != nil {
		v["final_price"] = *r.FinalPrice
	}
	if r.GuaranteedCeiling != nil {
		v["guaranteed_ceiling"] = *r.GuaranteedCeiling
	}
	if r.AcceptedAt != nil {
		v["accepted_at"] = *r.AcceptedAt
	}
	if r.CancelReason != nil {
		v["cancel_reason"] = *r.CancelReason
	}
	return v
}
