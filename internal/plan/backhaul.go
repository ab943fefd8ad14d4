package plan

import (
	"strings"

	"freightops/internal/model"
)

// BackhaulMatches filters candidate loads to those whose pickup city lies
// in the corridor's destination city, so a driver finishing a delivery can
// be offered a return-direction load instead of driving back empty. City
// comparison is case-insensitive. Matching never inserts anything; callers
// still go through the explicit insertion path.
func BackhaulMatches(c *model.Corridor, candidates []model.Load) []model.Load {
	out := []model.Load{}
	if c == nil || c.DeliveryCity == "" {
		return out
	}
	for _, ld := range candidates {
		if strings.EqualFold(strings.TrimSpace(ld.PickupCity), strings.TrimSpace(c.DeliveryCity)) {
			out = append(out, ld)
		}
	}
	return out
}
