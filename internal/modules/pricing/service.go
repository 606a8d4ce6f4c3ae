// README: Pricing engine. Deterministic given identical inputs and surge;
// reads rate overrides and an optional road-distance provider, mutates nothing.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"pronto/internal/geo"
	"pronto/internal/types"
)

var (
	ErrBadRequest = errors.New("invalid quote request")
	ErrNoRate     = errors.New("no configured rate")
)

// RateSource looks up configured (serviceType, loadSize) rate overrides.
// ErrNoRate falls back to the default tables.
type RateSource interface {
	GetRate(ctx context.Context, st types.ServiceType, load types.LoadSize) (*Rate, error)
}

// DistanceProvider returns road miles between two points. Optional; any error
// falls back to great-circle distance.
type DistanceProvider interface {
	RoadMiles(ctx context.Context, origin, dest types.Point) (float64, error)
}

// SurgeProvider supplies the current demand multiplier, 1.0 when quiet.
type SurgeProvider interface {
	Current(ctx context.Context) float64
}

type Service struct {
	rates    RateSource
	distance DistanceProvider
	surge    SurgeProvider
	perMile  decimal.Decimal
}

func NewService(rates RateSource, distance DistanceProvider, surge SurgeProvider, perMileRate float64) *Service {
	perMile := decimal.NewFromFloat(perMileRate)
	if perMile.Sign() <= 0 {
		perMile = decimal.NewFromInt(1)
	}
	return &Service{rates: rates, distance: distance, surge: surge, perMile: perMile}
}

var (
	bandConfidence = 0.85
	bandLow        = decimal.RequireFromString("0.85")
	bandHigh       = decimal.RequireFromString("1.15")
)

// Quote computes the itemized price for a request.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if !req.Load.Valid() {
		return Quote{}, fmt.Errorf("%w: unknown load size %q", ErrBadRequest, req.Load)
	}
	if err := validCoord(req.Pickup); err != nil {
		return Quote{}, fmt.Errorf("%w: pickup: %v", ErrBadRequest, err)
	}
	if err := validCoord(req.Destination); err != nil {
		return Quote{}, fmt.Errorf("%w: destination: %v", ErrBadRequest, err)
	}
	// Coordinates come as a pair or not at all; a lone endpoint is an
	// integrity error, not a zero-mile trip.
	if (req.Pickup == nil) != (req.Destination == nil) {
		return Quote{}, fmt.Errorf("%w: pickup and destination must be given together", ErrBadRequest)
	}
	if req.SurgeMultiplier < 0 || math.IsNaN(req.SurgeMultiplier) {
		return Quote{}, fmt.Errorf("%w: surge multiplier %f", ErrBadRequest, req.SurgeMultiplier)
	}

	basePrice, perMile := s.resolveRate(ctx, req)

	var miles float64
	if isMileageService(req.ServiceType) && req.Pickup != nil && req.Destination != nil {
		miles = geo.ClampMiles(s.miles(ctx, *req.Pickup, *req.Destination))
	}
	miles = math.Round(miles*10) / 10
	distanceCharge := decimal.NewFromFloat(miles).Mul(perMile).Round(2)

	loadMult := loadMultipliers[req.Load]
	vehicleSurcharge := decimal.Zero
	if req.VehicleType != "" {
		vehicleSurcharge = vehicleSurcharges[req.VehicleType]
	}
	fee := decimal.Zero
	if isDisposalService(req.ServiceType) {
		fee = disposalFee
	}

	surge := req.SurgeMultiplier
	if surge == 0 && s.surge != nil {
		surge = s.surge.Current(ctx)
	}
	if surge <= 0 {
		surge = 1.0
	}
	surgeDec := decimal.NewFromFloat(surge)

	// (base + distance + vehicle) scale with load; the disposal fee never does.
	loadAdjusted := basePrice.Add(distanceCharge).Add(vehicleSurcharge).Mul(loadMult)
	subtotal := loadAdjusted.Add(fee)
	total := subtotal.Mul(surgeDec).Round(2)

	q := Quote{
		BasePrice:        basePrice,
		DistanceCharge:   distanceCharge,
		DistanceMiles:    miles,
		LoadMultiplier:   loadMult,
		VehicleSurcharge: vehicleSurcharge,
		DisposalFee:      fee,
		SurgeMultiplier:  surgeDec,
		TotalPrice:       total,
		PriceMin:         total.Mul(bandLow).Round(2),
		PriceMax:         total.Mul(bandHigh).Round(2),
		Confidence:       bandConfidence,
	}

	q.Breakdown = append(q.Breakdown, BreakdownItem{Label: "Base rate", Amount: basePrice})
	if distanceCharge.Sign() > 0 {
		q.Breakdown = append(q.Breakdown, BreakdownItem{
			Label:  fmt.Sprintf("Distance (%.1f mi @ $%s/mi)", miles, perMile.String()),
			Amount: distanceCharge,
		})
	}
	if fee.Sign() > 0 {
		q.Breakdown = append(q.Breakdown, BreakdownItem{Label: "Disposal fee", Amount: fee})
	}
	if vehicleSurcharge.Sign() > 0 {
		q.Breakdown = append(q.Breakdown, BreakdownItem{Label: "Vehicle surcharge", Amount: vehicleSurcharge})
	}
	if loadMult.GreaterThan(decimal.NewFromInt(1)) {
		q.Breakdown = append(q.Breakdown, BreakdownItem{
			Label:  fmt.Sprintf("Load size (%s)", req.Load),
			Amount: loadAdjusted.Sub(basePrice).Sub(distanceCharge).Sub(vehicleSurcharge).Round(2),
		})
	}
	if surgeDec.GreaterThan(decimal.NewFromInt(1)) {
		q.Breakdown = append(q.Breakdown, BreakdownItem{
			Label:  fmt.Sprintf("Surge pricing (%sx)", surgeDec.String()),
			Amount: total.Sub(subtotal).Round(2),
		})
	}
	return q, nil
}

func (s *Service) resolveRate(ctx context.Context, req QuoteRequest) (base, perMile decimal.Decimal) {
	base, ok := defaultBaseRates[req.ServiceType]
	if !ok {
		base = fallbackBaseRate
	}
	perMile = s.perMile

	if s.rates == nil {
		return base, perMile
	}
	rate, err := s.rates.GetRate(ctx, req.ServiceType, req.Load)
	if err != nil {
		// Rate-table misses and store failures both fall back to defaults; a
		// quote is never blocked on rate configuration.
		return base, perMile
	}
	if rate.BaseRate.Sign() > 0 {
		base = rate.BaseRate
	}
	if rate.PerMileRate.Sign() > 0 {
		perMile = rate.PerMileRate
	}
	return base, perMile
}

func (s *Service) miles(ctx context.Context, origin, dest types.Point) float64 {
	if s.distance != nil {
		if m, err := s.distance.RoadMiles(ctx, origin, dest); err == nil {
			return m
		}
	}
	return geo.Miles(origin, dest)
}

func validCoord(p *types.Point) error {
	if p == nil {
		return nil
	}
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) ||
		p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("coordinate out of range (%f, %f)", p.Lat, p.Lng)
	}
	return nil
}
