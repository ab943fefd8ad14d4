package plan

import "freightops/internal/model"

// InsertLoad places a load into the plan resolved from its assigned driver
// (or the unassigned bucket), creating the plan on first reference. The
// plan is left untouched on every rejection path.
func (s *Session) InsertLoad(ld model.Load, vehicle *model.Vehicle) (PlanKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[ld.ID] = ld
	key := KeyForLoad(&ld)
	return key, s.insertLocked(key, ld, vehicle)
}

// InsertLoadInto places a load into an explicit plan regardless of its
// driver reference. Used when the caller drags a load onto a chosen plan.
func (s *Session) InsertLoadInto(key PlanKey, ld model.Load, vehicle *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[ld.ID] = ld
	return s.insertLocked(key, ld, vehicle)
}

func (s *Session) insertLocked(key PlanKey, ld model.Load, vehicle *model.Vehicle) error {
	p := s.ensurePlanLocked(key, vehicle)
	if vehicle != nil && (p.Vehicle == nil || p.Vehicle.ID != vehicle.ID) {
		v := *vehicle
		p.Vehicle = &v
	}
	// A load may never appear twice in the same plan.
	if p.hasLoad(ld.ID) {
		return ErrDuplicateLoad
	}
	curW, curV := p.pickupTotals()
	if err := CanInsert(p.Vehicle, curW, curV, ld.Weight, ld.Volume); err != nil {
		return err
	}
	p.Points = append(p.Points, pickupPoint(ld), deliveryPoint(ld))
	p.renumber()
	p.Optimized = false
	return nil
}

// RemoveLoad drops both stage points of a load from a plan in one step and
// renumbers the remainder, so the plan never holds an orphaned half-load.
func (s *Session) RemoveLoad(key PlanKey, loadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[key]
	if !ok {
		return ErrPlanNotFound
	}
	kept := p.Points[:0:0]
	for _, pt := range p.Points {
		if pt.ID.LoadID != loadID {
			kept = append(kept, pt)
		}
	}
	if len(kept) == len(p.Points) {
		return ErrLoadNotInPlan
	}
	p.Points = kept
	if p.Points == nil {
		p.Points = []RoutePoint{}
	}
	p.renumber()
	p.Optimized = false
	return nil
}

// RemovePoint removes the whole load a point belongs to, whichever stage
// the caller referenced.
func (s *Session) RemovePoint(key PlanKey, id PointID) error {
	return s.RemoveLoad(key, id.LoadID)
}
