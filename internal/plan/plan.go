package plan

import "freightops/internal/model"

// RoutePoint is one pickup or delivery stop derived from a load. The
// originating load's weight/volume/price are duplicated onto both stage
// points; aggregation counts the pickup stage only.
type RoutePoint struct {
	ID       PointID         `json:"id"`
	Name     string          `json:"name,omitempty"`
	Address  string          `json:"address"`
	City     string          `json:"city,omitempty"`
	Coords   *model.GeoPoint `json:"coords,omitempty"` // nil when geocoding is unavailable
	Order    int             `json:"order"`
	Weight   float64         `json:"weightKg"`
	Volume   float64         `json:"volumeM3"`
	Price    float64         `json:"price"`
	Deadline string          `json:"deadline,omitempty"`
}

// RoutePlan is a per-driver (or unassigned) ordered list of route points
// plus the vehicle bound to it. Optimized records that the current ordering
// came from the sequencing heuristic; any mutation clears it.
type RoutePlan struct {
	Key       PlanKey          `json:"key"`
	Driver    *model.DriverRef `json:"driver,omitempty"`
	Vehicle   *model.Vehicle   `json:"vehicle,omitempty"`
	Points    []RoutePoint     `json:"points"`
	Optimized bool             `json:"optimized"`
}

func pickupPoint(ld model.Load) RoutePoint {
	return RoutePoint{
		ID:       PointID{LoadID: ld.ID, Stage: StagePickup},
		Name:     ld.Title,
		Address:  ld.PickupAddress,
		City:     ld.PickupCity,
		Coords:   ld.PickupLocation,
		Weight:   ld.Weight,
		Volume:   ld.Volume,
		Price:    ld.Price,
		Deadline: ld.Deadline,
	}
}

func deliveryPoint(ld model.Load) RoutePoint {
	return RoutePoint{
		ID:       PointID{LoadID: ld.ID, Stage: StageDelivery},
		Name:     ld.Title,
		Address:  ld.DeliveryAddress,
		City:     ld.DeliveryCity,
		Coords:   ld.DeliveryLocation,
		Weight:   ld.Weight,
		Volume:   ld.Volume,
		Price:    ld.Price,
		Deadline: ld.Deadline,
	}
}

func (p *RoutePlan) hasLoad(loadID string) bool {
	for i := range p.Points {
		if p.Points[i].ID.LoadID == loadID {
			return true
		}
	}
	return false
}

// pickupTotals sums weight and volume over pickup-stage points.
func (p *RoutePlan) pickupTotals() (weight, volume float64) {
	for i := range p.Points {
		if p.Points[i].ID.Stage == StagePickup {
			weight += p.Points[i].Weight
			volume += p.Points[i].Volume
		}
	}
	return weight, volume
}

// renumber restores the contiguous 1-based order invariant after any
// mutation of the point list.
func (p *RoutePlan) renumber() {
	for i := range p.Points {
		p.Points[i].Order = i + 1
	}
}

// clone returns a deep copy safe to hand outside the session lock.
func (p *RoutePlan) clone() *RoutePlan {
	out := &RoutePlan{Key: p.Key, Optimized: p.Optimized}
	if p.Driver != nil {
		d := *p.Driver
		out.Driver = &d
	}
	if p.Vehicle != nil {
		v := *p.Vehicle
		out.Vehicle = &v
	}
	out.Points = make([]RoutePoint, len(p.Points))
	copy(out.Points, p.Points)
	for i := range out.Points {
		if out.Points[i].Coords != nil {
			c := *out.Points[i].Coords
			out.Points[i].Coords = &c
		}
	}
	return out
}
