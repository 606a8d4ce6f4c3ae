// README: Quote value object and quote request input.
package pricing

import (
	"github.com/shopspring/decimal"

	"pronto/internal/types"
)

type QuoteRequest struct {
	ServiceType types.ServiceType
	Load        types.LoadSize
	VehicleType types.VehicleType
	Pickup      *types.Point
	Destination *types.Point
	// SurgeMultiplier is supplied by the caller's demand signal; 0 means
	// "consult the surge provider" (which defaults to 1.0).
	SurgeMultiplier float64
}

type BreakdownItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Quote is a value object: never persisted by the core, produced fresh on
// every pricing call, deterministic for identical inputs and surge.
type Quote struct {
	BasePrice        decimal.Decimal `json:"basePrice"`
	DistanceCharge   decimal.Decimal `json:"distanceCharge"`
	DistanceMiles    float64         `json:"distanceMiles"`
	LoadMultiplier   decimal.Decimal `json:"loadSizeMultiplier"`
	VehicleSurcharge decimal.Decimal `json:"vehicleSurcharge"`
	DisposalFee      decimal.Decimal `json:"disposalFee"`
	SurgeMultiplier  decimal.Decimal `json:"surgeMultiplier"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	PriceMin         decimal.Decimal `json:"priceMin"`
	PriceMax         decimal.Decimal `json:"priceMax"`
	Confidence       float64         `json:"confidence"`
	Breakdown        []BreakdownItem `json:"breakdown"`

	// Promotion fields, filled by the promotions decorator only.
	FirstJobDiscount  decimal.Decimal `json:"firstJobDiscount"`
	PromoDiscount     decimal.Decimal `json:"promoDiscount"`
	PromoCodeApplied  string          `json:"promoCodeApplied,omitempty"`
	PromoReason       string          `json:"promoReason,omitempty"`
	HasPriorityAccess bool            `json:"hasPriorityAccess"`
}

// Rate is a configured override row keyed by (serviceType, loadSize).
type Rate struct {
	ServiceType types.ServiceType
	Load        types.LoadSize
	BaseRate    decimal.Decimal
	PerMileRate decimal.Decimal
}
