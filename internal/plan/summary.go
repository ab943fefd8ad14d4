package plan

import (
	"freightops/internal/geo"
	"freightops/internal/model"
)

// Summarize computes a plan's derived totals. Weight and earnings are
// summed over pickup-stage points so each load counts once. Distance walks
// consecutive point pairs in list order and skips any pair with a missing
// coordinate, so partially geocoded routes under-report distance instead
// of failing.
func Summarize(p *RoutePlan) model.PlanSummary {
	sum := model.PlanSummary{Optimized: p.Optimized}
	for i := range p.Points {
		if p.Points[i].ID.Stage == StagePickup {
			sum.TotalWeight += p.Points[i].Weight
			sum.TotalEarnings += p.Points[i].Price
		}
	}
	for i := 0; i+1 < len(p.Points); i++ {
		a, b := p.Points[i].Coords, p.Points[i+1].Coords
		if a == nil || b == nil {
			continue
		}
		sum.TotalDistanceKm += geo.HaversineKm(*a, *b)
	}
	return sum
}

// Summary returns the totals for one plan in the session.
func (s *Session) Summary(key PlanKey) (model.PlanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[key]
	if !ok {
		return model.PlanSummary{}, ErrPlanNotFound
	}
	return Summarize(p), nil
}
