package plan

import (
	"context"
	"sort"
	"strings"

	"freightops/internal/model"
)

// Deep-link auto-insertion: when the planner is opened focused on a
// specific load, pick the best-fit vehicle and insert the load once.
// The per-load state machine (pending -> done | failed) lives in the
// session so repeated triggers from the same navigation context run the
// placement at most once.

type autoPlaceStatus string

const (
	autoPlacePending autoPlaceStatus = "pending"
	autoPlaceDone    autoPlaceStatus = "done"
	autoPlaceFailed  autoPlaceStatus = "failed"
)

type autoPlaceState struct {
	status autoPlaceStatus
	err    error
}

// LoadResolver fetches detail for loads missing from the session's known
// set, including optional vehicle hints. Implemented by the marketplace
// client.
type LoadResolver interface {
	ShipmentDetail(ctx context.Context, loadID string) (*model.Load, *model.VehicleHints, error)
}

// AutoPlaceResult reports what one auto-placement run did.
type AutoPlaceResult struct {
	LoadID  string         `json:"loadId"`
	Status  string         `json:"status"` // placed, skipped, already_processed
	PlanKey PlanKey        `json:"planKey"`
	Vehicle *model.Vehicle `json:"vehicle,omitempty"`
}

// AutoPlace runs the one-shot placement flow for a target load id. Failures
// are terminal and distinguishable: ErrLoadNotFound when the load cannot be
// resolved, ErrNoCapacityAvailable when no vehicle fits. A run cut off by
// context cancellation releases the pending marker so a later session entry
// can retry.
func (s *Session) AutoPlace(ctx context.Context, loadID string, resolver LoadResolver) (AutoPlaceResult, error) {
	res := AutoPlaceResult{LoadID: loadID}

	s.mu.Lock()
	if st, ok := s.autoplace[loadID]; ok {
		s.mu.Unlock()
		res.Status = "already_processed"
		return res, st.err
	}
	s.autoplace[loadID] = &autoPlaceState{status: autoPlacePending}
	ld, known := s.loads[loadID]
	s.mu.Unlock()

	var hints *model.VehicleHints
	if !known {
		got, h, err := resolver.ShipmentDetail(ctx, loadID)
		if err != nil || got == nil {
			s.mu.Lock()
			if ctx.Err() != nil {
				// torn down mid-resolution: release the marker for retry
				delete(s.autoplace, loadID)
				s.mu.Unlock()
				return res, ctx.Err()
			}
			s.autoplace[loadID] = &autoPlaceState{status: autoPlaceFailed, err: ErrLoadNotFound}
			s.mu.Unlock()
			return res, ErrLoadNotFound
		}
		ld, hints = *got, h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[ld.ID] = ld
	key := KeyForLoad(&ld)
	res.PlanKey = key
	p := s.ensurePlanLocked(key, nil)

	// Only auto-populate an empty plan, never override one in progress.
	if len(p.Points) > 0 {
		s.autoplace[loadID] = &autoPlaceState{status: autoPlaceDone}
		res.Status = "skipped"
		return res, nil
	}

	curW, curV := p.pickupTotals()
	var activeVeh *model.Vehicle
	if ap := s.plans[s.active]; ap != nil {
		activeVeh = ap.Vehicle
	}
	chosen := chooseVehicle(s.vehicles, activeVeh, curW, curV, ld, hints)
	if chosen == nil {
		s.autoplace[loadID] = &autoPlaceState{status: autoPlaceFailed, err: ErrNoCapacityAvailable}
		return res, ErrNoCapacityAvailable
	}

	if err := s.insertLocked(key, ld, chosen); err != nil {
		s.autoplace[loadID] = &autoPlaceState{status: autoPlaceFailed, err: err}
		return res, err
	}
	s.autoplace[loadID] = &autoPlaceState{status: autoPlaceDone}
	res.Status = "placed"
	res.Vehicle = chosen
	return res, nil
}

// CancelAutoPlace releases a pending marker without recording an outcome.
func (s *Session) CancelAutoPlace(loadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.autoplace[loadID]; ok && st.status == autoPlacePending {
		delete(s.autoplace, loadID)
	}
}

// chooseVehicle picks the best-fit vehicle for a load given the target
// plan's current totals. Preference tiers: the active plan's vehicle when
// it fits and satisfies whichever hints are present; fitting vehicles
// matching both hints; fitting vehicles matching the type hint; any fitting
// vehicle. Ties break toward the smallest maxWeight, then maxVolume, then
// lowest id, keeping larger vehicles free for loads that need them.
func chooseVehicle(fleet []model.Vehicle, activeVeh *model.Vehicle, curW, curV float64, ld model.Load, hints *model.VehicleHints) *model.Vehicle {
	fits := func(v *model.Vehicle) bool {
		return CanInsert(v, curW, curV, ld.Weight, ld.Volume) == nil
	}
	hasType := hints != nil && hints.VehicleType != ""
	hasPlate := hints != nil && hints.Plate != ""
	typeMatch := func(v *model.Vehicle) bool {
		return strings.EqualFold(v.Type, hints.VehicleType)
	}
	plateMatch := func(v *model.Vehicle) bool {
		return strings.EqualFold(v.Plate, hints.Plate)
	}
	hintsSatisfied := func(v *model.Vehicle) bool {
		if hasType && !typeMatch(v) {
			return false
		}
		if hasPlate && !plateMatch(v) {
			return false
		}
		return true
	}

	if activeVeh != nil && fits(activeVeh) && hintsSatisfied(activeVeh) {
		v := *activeVeh
		return &v
	}

	fitting := []model.Vehicle{}
	for _, v := range fleet {
		if fits(&v) {
			fitting = append(fitting, v)
		}
	}
	if len(fitting) == 0 {
		return nil
	}

	tiers := [][]model.Vehicle{}
	if hasType && hasPlate {
		both := []model.Vehicle{}
		for _, v := range fitting {
			if typeMatch(&v) && plateMatch(&v) {
				both = append(both, v)
			}
		}
		tiers = append(tiers, both)
	}
	if hasType {
		byType := []model.Vehicle{}
		for _, v := range fitting {
			if typeMatch(&v) {
				byType = append(byType, v)
			}
		}
		tiers = append(tiers, byType)
	}
	tiers = append(tiers, fitting)

	for _, tier := range tiers {
		if len(tier) == 0 {
			continue
		}
		sort.Slice(tier, func(i, j int) bool {
			if tier[i].MaxWeight != tier[j].MaxWeight {
				return tier[i].MaxWeight < tier[j].MaxWeight
			}
			if tier[i].MaxVolume != tier[j].MaxVolume {
				return tier[i].MaxVolume < tier[j].MaxVolume
			}
			return tier[i].ID < tier[j].ID
		})
		v := tier[0]
		return &v
	}
	return nil
}
