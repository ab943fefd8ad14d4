package plan

import (
    "errors"
    "testing"

    "freightops/internal/model"
)

func TestSerializeEmptyInputs(t *testing.T) {
    if _, err := SerializePlans(nil); !errors.Is(err, ErrNothingToSave) {
        t.Fatalf("nil plans: want ErrNothingToSave, got %v", err)
    }
    empty := &RoutePlan{Key: Unassigned, Points: []RoutePoint{}}
    if _, err := SerializePlans([]*RoutePlan{empty}); !errors.Is(err, ErrNothingToSave) {
        t.Fatalf("empty plan: want ErrNothingToSave, got %v", err)
    }
}

func TestSerializeFiltersAndRenumbers(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    if _, err := s.InsertLoad(testLoad("a", 100, 1), &veh); err != nil { t.Fatalf("insert a: %v", err) }
    ld := testLoad("b", 200, 2)
    ld.Driver = &model.DriverRef{ID: "drv1"}
    if _, err := s.InsertLoad(ld, &veh); err != nil { t.Fatalf("insert b: %v", err) }
    // an extra empty plan must be filtered out
    s.SetActive(KeyForDriver("idle"))

    req, err := s.Serialize()
    if err != nil { t.Fatalf("serialize: %v", err) }
    if len(req.Plans) != 2 { t.Fatalf("plans: %d, want 2 (empty filtered)", len(req.Plans)) }

    byKey := map[string]model.PlanPayload{}
    for _, p := range req.Plans {
        byKey[p.Key] = p
        if p.Vehicle == nil || p.Vehicle.ID != veh.ID {
            t.Fatalf("plan %s vehicle snapshot missing", p.Key)
        }
        for i, pt := range p.Points {
            if pt.Order != i+1 { t.Fatalf("plan %s point order: %d at %d", p.Key, pt.Order, i) }
        }
        if len(p.LoadIDs) == 0 { t.Fatalf("plan %s has empty load id list", p.Key) }
    }
    un, ok := byKey["unassigned"]
    if !ok { t.Fatalf("missing unassigned payload: %v", byKey) }
    if len(un.LoadIDs) != 1 || un.LoadIDs[0] != "a" { t.Fatalf("unassigned loads: %v", un.LoadIDs) }
    dr, ok := byKey["driver:drv1"]
    if !ok { t.Fatalf("missing driver payload") }
    if dr.DriverID != "drv1" { t.Fatalf("driverId: %q", dr.DriverID) }
    if dr.Points[0].ID != "pickup-b" || dr.Points[0].Stage != "pickup" {
        t.Fatalf("point wire form: %+v", dr.Points[0])
    }
    if dr.Summary.TotalWeight != 200 { t.Fatalf("summary weight: %v", dr.Summary.TotalWeight) }
}

func TestSerializeNoVehicleIsNull(t *testing.T) {
    p := &RoutePlan{Key: Unassigned, Points: []RoutePoint{
        {ID: PointID{LoadID: "a", Stage: StagePickup}, Address: "x"},
        {ID: PointID{LoadID: "a", Stage: StageDelivery}, Address: "y"},
    }}
    req, err := SerializePlans([]*RoutePlan{p})
    if err != nil { t.Fatalf("serialize: %v", err) }
    if req.Plans[0].Vehicle != nil { t.Fatalf("vehicle should be null") }
}
