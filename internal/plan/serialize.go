package plan

import "freightops/internal/model"

// SerializePlans converts plans into a persistence payload. Plans with no
// points are dropped; the derived load-id set is re-checked afterwards as a
// guard even though the first filter should make it impossible to be empty.
// Zero surviving plans is ErrNothingToSave so callers fail fast instead of
// issuing an empty save.
func SerializePlans(plans []*RoutePlan) (model.SaveRequest, error) {
	out := model.SaveRequest{Plans: []model.PlanPayload{}}
	for _, p := range plans {
		if len(p.Points) == 0 {
			continue
		}
		seen := map[string]struct{}{}
		loadIDs := []string{}
		for _, pt := range p.Points {
			if _, ok := seen[pt.ID.LoadID]; ok {
				continue
			}
			seen[pt.ID.LoadID] = struct{}{}
			loadIDs = append(loadIDs, pt.ID.LoadID)
		}
		if len(loadIDs) == 0 {
			continue
		}
		points := make([]model.SavedPoint, 0, len(p.Points))
		for i, pt := range p.Points {
			points = append(points, model.SavedPoint{
				ID:       pt.ID.String(),
				Order:    i + 1,
				Stage:    string(pt.ID.Stage),
				Address:  pt.Address,
				Name:     pt.Name,
				Weight:   pt.Weight,
				Volume:   pt.Volume,
				Price:    pt.Price,
				Deadline: pt.Deadline,
			})
		}
		payload := model.PlanPayload{
			Key:     p.Key.String(),
			LoadIDs: loadIDs,
			Points:  points,
			Summary: Summarize(p),
		}
		if !p.Key.IsUnassigned() {
			payload.DriverID = p.Key.DriverID()
		}
		if p.Vehicle != nil {
			v := *p.Vehicle
			payload.Vehicle = &v
		}
		out.Plans = append(out.Plans, payload)
	}
	if len(out.Plans) == 0 {
		return model.SaveRequest{}, ErrNothingToSave
	}
	return out, nil
}

// Serialize snapshots the whole session for saving.
func (s *Session) Serialize() (model.SaveRequest, error) {
	return SerializePlans(s.Plans())
}
