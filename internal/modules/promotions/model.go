// README: Promo code model and the structured validation result.
package promotions

import (
	"time"

	"github.com/shopspring/decimal"

	"pronto/internal/types"
)

type DiscountType string

const (
	DiscountFixed   DiscountType = "fixed"
	DiscountPercent DiscountType = "percent"
)

type PromoCode struct {
	ID             types.ID
	Code           string
	Description    string
	DiscountType   DiscountType
	DiscountAmount decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxUses        int
	CurrentUses    int
	AppOnly        bool
	FirstTimeOnly  bool
	Active         bool
	ValidFrom      *time.Time
	ValidUntil     *time.Time
}

// PromoResult carries the outcome of code validation. Rejections are expected
// business outcomes with a reason string, never errors.
type PromoResult struct {
	Valid    bool
	Discount decimal.Decimal
	Reason   string
}

const (
	ReasonInvalidCode   = "Invalid promo code"
	ReasonInactive      = "Promo code is no longer active"
	ReasonAppOnly       = "This promo code is only valid in the app"
	ReasonNotYetValid   = "Promo code is not yet valid"
	ReasonExpired       = "Promo code has expired"
	ReasonUsageLimit    = "Promo code has reached its usage limit"
	ReasonAlreadyUsed   = "You have already used this promo code"
	ReasonFirstTimeOnly = "This promo code is only for first-time customers"
)

// ApplyInput identifies the caller and booking context for quote decoration.
// Every field is optional; a zero ApplyInput decorates nothing.
type ApplyInput struct {
	CustomerID   types.ID
	PromoCode    string
	IsAppBooking bool
	ScheduledFor *time.Time
}

// Same-day and weekend slots are held for app bookings for this long.
const slotHoldDuration = 2 * time.Hour
