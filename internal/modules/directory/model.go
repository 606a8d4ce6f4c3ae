// README: Read-only pro profile model; owned by the pro-profile subsystem.
package directory

import "pronto/internal/types"

type Pro struct {
	ID            types.ID
	Name          string
	Location      *types.Point
	Available     bool
	ServiceTypes  []types.ServiceType
	VehicleType   types.VehicleType
	Languages     []string
	Rating        float64 // 0 means unrated
	JobsCompleted int
	ReviewCount   int
	Verified      bool
	PriorityBoost bool
}

func (p Pro) Serves(st types.ServiceType) bool {
	for _, s := range p.ServiceTypes {
		if s == st {
			return true
		}
	}
	return false
}

func (p Pro) Speaks(lang string) bool {
	for _, l := range p.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
