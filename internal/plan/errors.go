package plan

import (
	"errors"
	"fmt"
)

// CapacityKind distinguishes which vehicle limit an insertion would break.
type CapacityKind string

const (
	WeightExceeded CapacityKind = "weight_exceeded"
	VolumeExceeded CapacityKind = "volume_exceeded"
)

// CapacityError reports a refused insertion together with the vehicle limit
// and the total the insertion would have produced, so callers can present
// an actionable message.
type CapacityError struct {
	Kind      CapacityKind
	Limit     float64
	Attempted float64
}

func (e *CapacityError) Error() string {
	unit := "kg"
	if e.Kind == VolumeExceeded {
		unit = "m3"
	}
	return fmt.Sprintf("%s: %.2f%s over limit %.2f%s", e.Kind, e.Attempted, unit, e.Limit, unit)
}

var (
	// ErrNoVehicle rejects an insertion into a plan with no bound vehicle.
	ErrNoVehicle = errors.New("no vehicle selected for plan")
	// ErrDuplicateLoad signals a benign no-op: the load is already planned.
	ErrDuplicateLoad = errors.New("load already present in plan")
	// ErrNothingToSave means serialization produced zero non-empty plans.
	ErrNothingToSave = errors.New("no route points to save")
	// ErrLoadNotFound terminates auto-placement: the target load could not
	// be resolved locally or upstream.
	ErrLoadNotFound = errors.New("target load not found")
	// ErrNoCapacityAvailable terminates auto-placement: no vehicle in the
	// fleet can fit the target load.
	ErrNoCapacityAvailable = errors.New("no vehicle can fit the target load")

	ErrPlanNotFound    = errors.New("plan not found")
	ErrLoadNotInPlan   = errors.New("load not present in plan")
	ErrSessionNotFound = errors.New("planning session not found")
)
