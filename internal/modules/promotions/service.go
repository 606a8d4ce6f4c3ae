// README: Promotion decorator. Wraps a priced quote with first-job, promo
// code, and priority slot adjustments without mutating the pricing engine's
// output. Stacked discounts clamp at the quote's flat fees, never below.
package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pronto/internal/modules/pricing"
	"pronto/internal/types"
)

// CodeStore reads and records promo code state.
type CodeStore interface {
	GetByCode(ctx context.Context, code string) (*PromoCode, error)
	HasUsed(ctx context.Context, promoID, customerID types.ID) (bool, error)
	RecordUsage(ctx context.Context, promoID, customerID types.ID, discount decimal.Decimal) error
}

// CustomerHistory answers first-job eligibility.
type CustomerHistory interface {
	CompletedJobs(ctx context.Context, customerID types.ID) (int, error)
	HasFirstJobDiscount(ctx context.Context, customerID types.ID) (bool, error)
	RecordFirstJobDiscount(ctx context.Context, customerID types.ID, amount decimal.Decimal) error
}

// SlotReserver holds priority slots for app bookings.
type SlotReserver interface {
	ReserveSlot(ctx context.Context, customerID types.ID, slot time.Time) error
	HeldBy(ctx context.Context, slot time.Time) (types.ID, error)
}

type Decorator struct {
	codes    CodeStore
	history  CustomerHistory
	slots    SlotReserver
	firstJob decimal.Decimal
	now      func() time.Time
}

func NewDecorator(codes CodeStore, history CustomerHistory, slots SlotReserver, firstJobDiscount decimal.Decimal) *Decorator {
	return &Decorator{
		codes:    codes,
		history:  history,
		slots:    slots,
		firstJob: firstJobDiscount,
		now:      time.Now,
	}
}

var (
	bandLow  = decimal.RequireFromString("0.85")
	bandHigh = decimal.RequireFromString("1.15")

	// Discounts never push a total below the quote's flat fees; a quote with
	// no flat fees still keeps a positive total.
	minimumTotal = decimal.RequireFromString("0.01")
)

// Apply decorates a priced quote. The base quote is copied, never mutated.
// Code rejections come back on the quote's PromoReason field; an error means
// the promotion stores themselves failed.
func (d *Decorator) Apply(ctx context.Context, base pricing.Quote, in ApplyInput) (pricing.Quote, error) {
	out := base
	out.Breakdown = append([]pricing.BreakdownItem(nil), base.Breakdown...)

	floor := discountFloor(base)
	available := base.TotalPrice.Sub(floor)
	if available.Sign() < 0 {
		available = decimal.Zero
	}

	if in.CustomerID != "" && d.firstJobEligible(ctx, in.CustomerID) {
		amount := decimal.Min(d.firstJob, available)
		if amount.Sign() > 0 {
			if err := d.history.RecordFirstJobDiscount(ctx, in.CustomerID, amount); err == nil {
				out.FirstJobDiscount = amount
				available = available.Sub(amount)
				out.Breakdown = append(out.Breakdown, pricing.BreakdownItem{
					Label:  "First job discount",
					Amount: amount.Neg(),
				})
			}
		}
	}

	if in.PromoCode != "" {
		promo, res, err := d.validate(ctx, in.PromoCode, in.CustomerID, base.TotalPrice, in.IsAppBooking)
		if err != nil {
			return pricing.Quote{}, err
		}
		if !res.Valid {
			out.PromoReason = res.Reason
		} else {
			amount := decimal.Min(res.Discount, available)
			out.PromoCodeApplied = promo.Code
			out.PromoDiscount = amount
			if amount.Sign() > 0 {
				if err := d.codes.RecordUsage(ctx, promo.ID, in.CustomerID, amount); err != nil {
					return pricing.Quote{}, err
				}
				available = available.Sub(amount)
				out.Breakdown = append(out.Breakdown, pricing.BreakdownItem{
					Label:  fmt.Sprintf("Promo code (%s)", promo.Code),
					Amount: amount.Neg(),
				})
			}
		}
	}

	if in.IsAppBooking && in.ScheduledFor != nil && isPrioritySlot(d.now(), *in.ScheduledFor) {
		out.HasPriorityAccess = true
		if d.slots != nil && in.CustomerID != "" {
			// A slot already held by someone else is gone; holding it again
			// for the same customer is a no-op.
			if holder, err := d.slots.HeldBy(ctx, *in.ScheduledFor); err == nil && holder != "" && holder != in.CustomerID {
				out.HasPriorityAccess = false
			} else {
				_ = d.slots.ReserveSlot(ctx, in.CustomerID, *in.ScheduledFor)
			}
		}
	}

	total := base.TotalPrice.Sub(out.FirstJobDiscount).Sub(out.PromoDiscount)
	out.TotalPrice = total
	out.PriceMin = total.Mul(bandLow).Round(2)
	out.PriceMax = total.Mul(bandHigh).Round(2)
	return out, nil
}

// ValidateCode checks a promo code against its rules in order and computes
// the raw discount for the given order amount. Every rejection is a
// PromoResult with a reason, not an error.
func (d *Decorator) ValidateCode(ctx context.Context, code string, customerID types.ID, orderAmount decimal.Decimal, isApp bool) (PromoResult, error) {
	_, res, err := d.validate(ctx, code, customerID, orderAmount, isApp)
	return res, err
}

func (d *Decorator) validate(ctx context.Context, code string, customerID types.ID, orderAmount decimal.Decimal, isApp bool) (*PromoCode, PromoResult, error) {
	promo, err := d.codes.GetByCode(ctx, code)
	if errors.Is(err, ErrNoCode) {
		return nil, PromoResult{Reason: ReasonInvalidCode}, nil
	}
	if err != nil {
		return nil, PromoResult{}, err
	}

	now := d.now()
	switch {
	case !promo.Active:
		return promo, PromoResult{Reason: ReasonInactive}, nil
	case promo.AppOnly && !isApp:
		return promo, PromoResult{Reason: ReasonAppOnly}, nil
	case promo.ValidFrom != nil && promo.ValidFrom.After(now):
		return promo, PromoResult{Reason: ReasonNotYetValid}, nil
	case promo.ValidUntil != nil && promo.ValidUntil.Before(now):
		return promo, PromoResult{Reason: ReasonExpired}, nil
	case promo.MaxUses > 0 && promo.CurrentUses >= promo.MaxUses:
		return promo, PromoResult{Reason: ReasonUsageLimit}, nil
	case promo.MinOrderAmount.Sign() > 0 && orderAmount.LessThan(promo.MinOrderAmount):
		return promo, PromoResult{Reason: fmt.Sprintf("Minimum order amount is $%s", promo.MinOrderAmount)}, nil
	}

	used, err := d.codes.HasUsed(ctx, promo.ID, customerID)
	if err != nil {
		return nil, PromoResult{}, err
	}
	if used {
		return promo, PromoResult{Reason: ReasonAlreadyUsed}, nil
	}

	if promo.FirstTimeOnly {
		completed, err := d.history.CompletedJobs(ctx, customerID)
		if err != nil {
			return nil, PromoResult{}, err
		}
		if completed > 0 {
			return promo, PromoResult{Reason: ReasonFirstTimeOnly}, nil
		}
	}

	var discount decimal.Decimal
	switch promo.DiscountType {
	case DiscountFixed:
		discount = decimal.Min(promo.DiscountAmount, orderAmount)
	case DiscountPercent:
		discount = orderAmount.Mul(promo.DiscountAmount).Div(decimal.NewFromInt(100)).Round(2)
	}
	return promo, PromoResult{Valid: true, Discount: discount}, nil
}

// firstJobEligible is best-effort: a history read failure skips the discount
// rather than failing the quote.
func (d *Decorator) firstJobEligible(ctx context.Context, customerID types.ID) bool {
	completed, err := d.history.CompletedJobs(ctx, customerID)
	if err != nil || completed > 0 {
		return false
	}
	used, err := d.history.HasFirstJobDiscount(ctx, customerID)
	if err != nil || used {
		return false
	}
	return true
}

func discountFloor(q pricing.Quote) decimal.Decimal {
	floor := q.DisposalFee.Add(q.VehicleSurcharge)
	if floor.Sign() <= 0 {
		return minimumTotal
	}
	return floor
}

// Same-day and weekend bookings made through the app get priority access.
func isPrioritySlot(now, slot time.Time) bool {
	ny, nm, nd := now.Date()
	sy, sm, sd := slot.Date()
	sameDay := ny == sy && nm == sm && nd == sd
	weekend := slot.Weekday() == time.Saturday || slot.Weekday() == time.Sunday
	return sameDay || weekend
}
