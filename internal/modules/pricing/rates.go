// README: Default rate tables and service-class shape of a quote.
package pricing

import (
	"github.com/shopspring/decimal"

	"pronto/internal/types"
)

var defaultBaseRates = map[types.ServiceType]decimal.Decimal{
	types.ServiceJunkRemoval:     decimal.NewFromInt(75),
	types.ServiceFurnitureMoving: decimal.NewFromInt(95),
	types.ServiceGarageCleanout:  decimal.NewFromInt(179),
	types.ServiceEstateCleanout:  decimal.NewFromInt(150),
}

// fallbackBaseRate prices a service type we have no rate for. A data-quality
// gap, not a failure: the booking still gets a number.
var fallbackBaseRate = decimal.NewFromInt(75)

var loadMultipliers = map[types.LoadSize]decimal.Decimal{
	types.LoadSmall:      decimal.NewFromInt(1),
	types.LoadMedium:     decimal.RequireFromString("1.5"),
	types.LoadLarge:      decimal.NewFromInt(2),
	types.LoadExtraLarge: decimal.NewFromInt(3),
}

// Flat surcharges applied before the load multiplier.
var vehicleSurcharges = map[types.VehicleType]decimal.Decimal{
	types.VehiclePickupTruck: decimal.Zero,
	types.VehicleCargoVan:    decimal.NewFromInt(15),
	types.VehicleBoxTruck:    decimal.NewFromInt(35),
	types.VehicleFlatbed:     decimal.NewFromInt(50),
}

// disposalFee is flat: the dump trip costs the same whatever the load size.
var disposalFee = decimal.NewFromInt(15)

// Disposal services end at the dump; the pro handles that trip, so the
// customer sees a disposal fee and no distance charge.
func isDisposalService(st types.ServiceType) bool {
	switch st {
	case types.ServiceJunkRemoval, types.ServiceGarageCleanout, types.ServiceEstateCleanout:
		return true
	}
	return false
}

// Mileage services move goods A to B and charge the computed distance.
func isMileageService(st types.ServiceType) bool {
	return st == types.ServiceFurnitureMoving
}
