package plan

import (
	"sync"

	"freightops/internal/model"
)

// Session is the process-scoped planning state for one carrier: the set of
// route plans keyed by driver identity (or unassigned), the active plan
// selection, the known load/vehicle/driver sets and per-driver corridors.
// It lives from planner entry until teardown; the only way out is an
// explicit save through the serializer.
//
// All mutation goes through the session mutex, so plan invariants (point
// pairing, contiguous order) never observe a half-applied change.
type Session struct {
	ID        string
	CarrierID string

	mu        sync.Mutex
	plans     map[PlanKey]*RoutePlan
	planOrder []PlanKey
	active    PlanKey
	vehicles  []model.Vehicle
	drivers   map[string]model.Driver
	loads     map[string]model.Load
	corridors map[string]*model.Corridor
	autoplace map[string]*autoPlaceState
}

// NewSession creates a session with the unassigned plan present and active.
func NewSession(id, carrierID string) *Session {
	s := &Session{
		ID:        id,
		CarrierID: carrierID,
		plans:     map[PlanKey]*RoutePlan{},
		drivers:   map[string]model.Driver{},
		loads:     map[string]model.Load{},
		corridors: map[string]*model.Corridor{},
		autoplace: map[string]*autoPlaceState{},
	}
	s.plans[Unassigned] = &RoutePlan{Key: Unassigned, Points: []RoutePoint{}}
	s.planOrder = []PlanKey{Unassigned}
	s.active = Unassigned
	return s
}

// SetFleet replaces the known vehicle snapshot set.
func (s *Session) SetFleet(vehicles []model.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = append([]model.Vehicle(nil), vehicles...)
}

func (s *Session) Fleet() []model.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Vehicle(nil), s.vehicles...)
}

func (s *Session) VehicleByID(id string) (model.Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return model.Vehicle{}, false
}

func (s *Session) SetDrivers(drivers []model.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range drivers {
		s.drivers[d.ID] = d
	}
}

func (s *Session) Driver(id string) (model.Driver, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	return d, ok
}

// AddLoads merges fetched loads into the known set.
func (s *Session) AddLoads(loads []model.Load) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ld := range loads {
		s.loads[ld.ID] = ld
	}
}

func (s *Session) Load(id string) (model.Load, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ld, ok := s.loads[id]
	return ld, ok
}

// SetCorridor records the last-resolved corridor for a driver. A nil
// corridor is remembered too: it means the driver has no active assignment.
func (s *Session) SetCorridor(driverID string, c *model.Corridor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == nil {
		s.corridors[driverID] = nil
		return
	}
	cc := *c
	s.corridors[driverID] = &cc
}

func (s *Session) Corridor(driverID string) (*model.Corridor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.corridors[driverID]
	if c == nil {
		return nil, ok
	}
	cc := *c
	return &cc, ok
}

// ensurePlanLocked returns the plan for key, creating it on first
// reference. A newly created plan inherits the caller-supplied vehicle,
// falling back to the active plan's vehicle.
func (s *Session) ensurePlanLocked(key PlanKey, vehicle *model.Vehicle) *RoutePlan {
	if p, ok := s.plans[key]; ok {
		return p
	}
	p := &RoutePlan{Key: key, Points: []RoutePoint{}}
	if !key.IsUnassigned() {
		ref := &model.DriverRef{ID: key.DriverID()}
		if d, ok := s.drivers[key.DriverID()]; ok {
			ref.Name = d.Name
		}
		p.Driver = ref
	}
	switch {
	case vehicle != nil:
		v := *vehicle
		p.Vehicle = &v
	case s.plans[s.active] != nil && s.plans[s.active].Vehicle != nil:
		v := *s.plans[s.active].Vehicle
		p.Vehicle = &v
	}
	s.plans[key] = p
	s.planOrder = append(s.planOrder, key)
	return p
}

// Plan returns a deep copy of one plan.
func (s *Session) Plan(key PlanKey) (*RoutePlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[key]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// Plans returns deep copies of all plans in creation order.
func (s *Session) Plans() []*RoutePlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*RoutePlan, 0, len(s.planOrder))
	for _, key := range s.planOrder {
		out = append(out, s.plans[key].clone())
	}
	return out
}

// SetActive selects the active plan, creating it on first reference.
func (s *Session) SetActive(key PlanKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensurePlanLocked(key, nil)
	s.active = key
}

func (s *Session) Active() PlanKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetVehicle binds a vehicle to a plan, creating the plan if needed.
func (s *Session) SetVehicle(key PlanKey, v model.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensurePlanLocked(key, &v)
	vv := v
	p.Vehicle = &vv
}

// Close releases pending deep-link markers so a future session can retry
// loads whose resolution was cut off by teardown.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range s.autoplace {
		if st.status == autoPlacePending {
			delete(s.autoplace, id)
		}
	}
}
