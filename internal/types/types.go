// README: Common identifier and coordinate types shared across modules.
package types

type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ServiceType string

const (
	ServiceJunkRemoval     ServiceType = "junk_removal"
	ServiceFurnitureMoving ServiceType = "furniture_moving"
	ServiceGarageCleanout  ServiceType = "garage_cleanout"
	ServiceEstateCleanout  ServiceType = "estate_cleanout"
)

type LoadSize string

const (
	LoadSmall      LoadSize = "small"
	LoadMedium     LoadSize = "medium"
	LoadLarge      LoadSize = "large"
	LoadExtraLarge LoadSize = "extra_large"
)

// LoadRank orders load sizes for vehicle-capacity checks. Zero means unknown.
func (l LoadSize) Rank() int {
	switch l {
	case LoadSmall:
		return 1
	case LoadMedium:
		return 2
	case LoadLarge:
		return 3
	case LoadExtraLarge:
		return 4
	}
	return 0
}

func (l LoadSize) Valid() bool { return l.Rank() != 0 }

type VehicleType string

const (
	VehiclePickupTruck VehicleType = "pickup_truck"
	VehicleCargoVan    VehicleType = "cargo_van"
	VehicleBoxTruck    VehicleType = "box_truck"
	VehicleFlatbed     VehicleType = "flatbed"
	VehicleTrailer     VehicleType = "trailer"
)

// CapacityRank orders vehicles by hauling capacity. Zero means unknown.
func (v VehicleType) CapacityRank() int {
	switch v {
	case VehiclePickupTruck:
		return 1
	case VehicleCargoVan:
		return 2
	case VehicleBoxTruck:
		return 3
	case VehicleFlatbed:
		return 4
	case VehicleTrailer:
		return 5
	}
	return 0
}
