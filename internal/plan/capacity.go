package plan

import "freightops/internal/model"

// CanInsert decides whether adding one more load to a plan with the given
// pickup-stage totals stays within the vehicle's limits. Weight is checked
// before volume; a missing vehicle is its own rejection, never a silent pass.
func CanInsert(v *model.Vehicle, curWeight, curVolume, loadWeight, loadVolume float64) error {
	if v == nil {
		return ErrNoVehicle
	}
	if w := curWeight + loadWeight; w > v.MaxWeight {
		return &CapacityError{Kind: WeightExceeded, Limit: v.MaxWeight, Attempted: w}
	}
	if vol := curVolume + loadVolume; vol > v.MaxVolume {
		return &CapacityError{Kind: VolumeExceeded, Limit: v.MaxVolume, Attempted: vol}
	}
	return nil
}
