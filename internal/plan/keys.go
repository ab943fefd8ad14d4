package plan

import (
	"fmt"
	"strings"

	"freightops/internal/model"
)

// Stage marks a route point as the pickup or delivery half of a load.
type Stage string

const (
	StagePickup   Stage = "pickup"
	StageDelivery Stage = "delivery"
)

// PointID identifies a route point by its originating load and stage.
// The wire form is "{stage}-{loadId}"; in memory the tuple is kept
// structured so the load id never has to be recovered by string parsing.
type PointID struct {
	LoadID string
	Stage  Stage
}

func (id PointID) String() string { return string(id.Stage) + "-" + id.LoadID }

func ParsePointID(s string) (PointID, error) {
	stage, loadID, ok := strings.Cut(s, "-")
	if !ok || loadID == "" {
		return PointID{}, fmt.Errorf("invalid point id: %q", s)
	}
	switch Stage(stage) {
	case StagePickup, StageDelivery:
		return PointID{LoadID: loadID, Stage: Stage(stage)}, nil
	}
	return PointID{}, fmt.Errorf("invalid point stage: %q", stage)
}

func (id PointID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *PointID) UnmarshalText(b []byte) error {
	parsed, err := ParsePointID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// PlanKey identifies a plan: either a concrete driver or the shared
// unassigned bucket. The zero value is the unassigned bucket, so a map
// keyed by PlanKey holds exactly one plan per driver by construction.
type PlanKey struct {
	driverID string
}

// Unassigned is the bucket for loads without an assigned driver.
var Unassigned = PlanKey{}

func KeyForDriver(driverID string) PlanKey { return PlanKey{driverID: driverID} }

// KeyForLoad resolves the target plan key from the load's driver reference.
func KeyForLoad(ld *model.Load) PlanKey {
	if ld == nil || ld.Driver == nil || ld.Driver.ID == "" {
		return Unassigned
	}
	return PlanKey{driverID: ld.Driver.ID}
}

func (k PlanKey) IsUnassigned() bool { return k.driverID == "" }

func (k PlanKey) DriverID() string { return k.driverID }

func (k PlanKey) String() string {
	if k.driverID == "" {
		return "unassigned"
	}
	return "driver:" + k.driverID
}

func ParsePlanKey(s string) (PlanKey, error) {
	if s == "unassigned" {
		return Unassigned, nil
	}
	if id, ok := strings.CutPrefix(s, "driver:"); ok && id != "" {
		return PlanKey{driverID: id}, nil
	}
	return PlanKey{}, fmt.Errorf("invalid plan key: %q", s)
}

func (k PlanKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PlanKey) UnmarshalText(b []byte) error {
	parsed, err := ParsePlanKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
