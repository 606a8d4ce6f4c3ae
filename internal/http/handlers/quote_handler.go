// README: Quote handlers for plain and promotional pricing.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pronto/internal/modules/pricing"
	"pronto/internal/modules/promotions"
	"pronto/internal/types"
)

// Quoter computes an itemized price.
type Quoter interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (pricing.Quote, error)
}

// PromoApplier decorates a priced quote with promotions.
type PromoApplier interface {
	Apply(ctx context.Context, base pricing.Quote, in promotions.ApplyInput) (pricing.Quote, error)
}

type QuoteHandler struct {
	pricing    Quoter
	promotions PromoApplier
}

func NewQuoteHandler(quoter Quoter, promos PromoApplier) *QuoteHandler {
	return &QuoteHandler{pricing: quoter, promotions: promos}
}

type quoteReq struct {
	ServiceType     string    `json:"service_type"`
	LoadSize        string    `json:"load_size"`
	VehicleType     string    `json:"vehicle_type"`
	Pickup          *pointReq `json:"pickup"`
	Destination     *pointReq `json:"destination"`
	SurgeMultiplier float64   `json:"surge_multiplier"`
}

type promoQuoteReq struct {
	quoteReq
	CustomerID   string `json:"customer_id"`
	PromoCode    string `json:"promo_code"`
	IsAppBooking bool   `json:"is_app_booking"`
	ScheduledFor string `json:"scheduled_for"`
}

func (r quoteReq) toPricing() pricing.QuoteRequest {
	req := pricing.QuoteRequest{
		ServiceType:     types.ServiceType(r.ServiceType),
		Load:            types.LoadSize(r.LoadSize),
		VehicleType:     types.VehicleType(r.VehicleType),
		SurgeMultiplier: r.SurgeMultiplier,
	}
	if r.Pickup != nil {
		req.Pickup = &types.Point{Lat: r.Pickup.Lat, Lng: r.Pickup.Lng}
	}
	if r.Destination != nil {
		req.Destination = &types.Point{Lat: r.Destination.Lat, Lng: r.Destination.Lng}
	}
	return req
}

// Quote handles POST /api/quotes.
func (h *QuoteHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	q, err := h.pricing.Quote(c.Request.Context(), req.toPricing())
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

// PromotionalQuote handles POST /api/quotes/promotional.
func (h *QuoteHandler) PromotionalQuote(c *gin.Context) {
	var req promoQuoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	var scheduledFor *time.Time
	if req.ScheduledFor != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid scheduled_for, want RFC3339")
			return
		}
		scheduledFor = &t
	}

	base, err := h.pricing.Quote(c.Request.Context(), req.toPricing())
	if err != nil {
		writeQuoteError(c, err)
		return
	}

	q, err := h.promotions.Apply(c.Request.Context(), base, promotions.ApplyInput{
		CustomerID:   types.ID(req.CustomerID),
		PromoCode:    req.PromoCode,
		IsAppBooking: req.IsAppBooking,
		ScheduledFor: scheduledFor,
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, q)
}
