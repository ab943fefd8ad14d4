package plan

// Optimize reorders a plan so every pickup precedes every delivery, keeping
// the relative order within each stage (a stable partition). This is a
// feasibility heuristic, not a distance minimizer: Optimized means "has
// been through the sequencing pass", nothing stronger. Any later insertion
// or removal clears the flag.
func (s *Session) Optimize(key PlanKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[key]
	if !ok {
		return ErrPlanNotFound
	}
	ordered := make([]RoutePoint, 0, len(p.Points))
	for _, pt := range p.Points {
		if pt.ID.Stage == StagePickup {
			ordered = append(ordered, pt)
		}
	}
	for _, pt := range p.Points {
		if pt.ID.Stage == StageDelivery {
			ordered = append(ordered, pt)
		}
	}
	p.Points = ordered
	p.renumber()
	p.Optimized = true
	return nil
}
