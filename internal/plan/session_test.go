package plan

import (
    "errors"
    "reflect"
    "testing"

    "freightops/internal/model"
)

func testVehicle() model.Vehicle {
    return model.Vehicle{ID: "veh1", Label: "Box truck", Type: "box", MaxWeight: 5000, MaxVolume: 20}
}

func testLoad(id string, weight, volume float64) model.Load {
    return model.Load{
        ID:              id,
        Title:           "Load " + id,
        PickupAddress:   "12 Dock Rd",
        PickupCity:      "Phoenix",
        DeliveryAddress: "99 Yard Ave",
        DeliveryCity:    "Tucson",
        Weight:          weight,
        Volume:          volume,
        Price:           150,
    }
}

func TestInsertCreatesPairedPoints(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    key, err := s.InsertLoad(testLoad("ld1", 3000, 10), &veh)
    if err != nil { t.Fatalf("insert: %v", err) }
    if key != Unassigned { t.Fatalf("key: got %v", key) }
    p, ok := s.Plan(key)
    if !ok { t.Fatalf("plan missing") }
    if len(p.Points) != 2 { t.Fatalf("points: got %d, want 2", len(p.Points)) }
    if p.Points[0].ID != (PointID{LoadID: "ld1", Stage: StagePickup}) {
        t.Fatalf("first point: %v", p.Points[0].ID)
    }
    if p.Points[1].ID != (PointID{LoadID: "ld1", Stage: StageDelivery}) {
        t.Fatalf("second point: %v", p.Points[1].ID)
    }
    if p.Points[0].Order != 1 || p.Points[1].Order != 2 {
        t.Fatalf("order: [%d,%d], want [1,2]", p.Points[0].Order, p.Points[1].Order)
    }
    if p.Optimized { t.Fatalf("fresh insertion should not be optimized") }
}

// A second load that would exceed weight is refused; the plan must be byte-identical
// to its pre-attempt state.
func TestInsertWeightExceededLeavesPlanUntouched(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle() // 5000 kg / 20 m3
    if _, err := s.InsertLoad(testLoad("ld1", 3000, 10), &veh); err != nil {
        t.Fatalf("first insert: %v", err)
    }
    before, _ := s.Plan(Unassigned)

    _, err := s.InsertLoad(testLoad("ld2", 2500, 5), nil)
    var capErr *CapacityError
    if !errors.As(err, &capErr) { t.Fatalf("want CapacityError, got %v", err) }
    if capErr.Kind != WeightExceeded { t.Fatalf("kind: %v", capErr.Kind) }
    if capErr.Limit != 5000 || capErr.Attempted != 5500 {
        t.Fatalf("limit/attempted: %v/%v", capErr.Limit, capErr.Attempted)
    }

    after, _ := s.Plan(Unassigned)
    if !reflect.DeepEqual(before.Points, after.Points) {
        t.Fatalf("rejected insert mutated plan: %+v vs %+v", before.Points, after.Points)
    }
    if len(after.Points) != 2 { t.Fatalf("points: got %d, want 2", len(after.Points)) }
}

func TestInsertVolumeExceeded(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    if _, err := s.InsertLoad(testLoad("ld1", 100, 15), &veh); err != nil {
        t.Fatalf("first insert: %v", err)
    }
    _, err := s.InsertLoad(testLoad("ld2", 100, 6), nil)
    var capErr *CapacityError
    if !errors.As(err, &capErr) || capErr.Kind != VolumeExceeded {
        t.Fatalf("want VolumeExceeded, got %v", err)
    }
    if capErr.Limit != 20 || capErr.Attempted != 21 {
        t.Fatalf("limit/attempted: %v/%v", capErr.Limit, capErr.Attempted)
    }
}

func TestInsertNoVehicle(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    if _, err := s.InsertLoad(testLoad("ld1", 10, 1), nil); !errors.Is(err, ErrNoVehicle) {
        t.Fatalf("want ErrNoVehicle, got %v", err)
    }
    p, _ := s.Plan(Unassigned)
    if len(p.Points) != 0 { t.Fatalf("rejected insert added points") }
}

func TestInsertDuplicateLoad(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    if _, err := s.InsertLoad(testLoad("ld1", 10, 1), &veh); err != nil {
        t.Fatalf("insert: %v", err)
    }
    if _, err := s.InsertLoad(testLoad("ld1", 10, 1), &veh); !errors.Is(err, ErrDuplicateLoad) {
        t.Fatalf("want ErrDuplicateLoad, got %v", err)
    }
    p, _ := s.Plan(Unassigned)
    if len(p.Points) != 2 { t.Fatalf("duplicate insert changed points: %d", len(p.Points)) }
}

func TestInsertRoutesToDriverPlan(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    ld := testLoad("ld1", 10, 1)
    ld.Driver = &model.DriverRef{ID: "drv1", Name: "Ana"}
    key, err := s.InsertLoad(ld, &veh)
    if err != nil { t.Fatalf("insert: %v", err) }
    if key != KeyForDriver("drv1") { t.Fatalf("key: %v", key) }
    p, ok := s.Plan(key)
    if !ok || len(p.Points) != 2 { t.Fatalf("driver plan missing points") }
    if p.Driver == nil || p.Driver.ID != "drv1" { t.Fatalf("driver ref: %+v", p.Driver) }
    // unassigned plan untouched
    up, _ := s.Plan(Unassigned)
    if len(up.Points) != 0 { t.Fatalf("unassigned plan gained points") }
}

// Removing the first load leaves exactly the second load's pair, renumbered 1..2.
func TestRemoveLoadAtomicPair(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    if _, err := s.InsertLoad(testLoad("a", 100, 1), &veh); err != nil { t.Fatalf("insert a: %v", err) }
    if _, err := s.InsertLoad(testLoad("b", 100, 1), &veh); err != nil { t.Fatalf("insert b: %v", err) }
    p, _ := s.Plan(Unassigned)
    if len(p.Points) != 4 { t.Fatalf("points: %d, want 4", len(p.Points)) }

    if err := s.RemovePoint(Unassigned, PointID{LoadID: "a", Stage: StageDelivery}); err != nil {
        t.Fatalf("remove: %v", err)
    }
    p, _ = s.Plan(Unassigned)
    if len(p.Points) != 2 { t.Fatalf("points after remove: %d, want 2", len(p.Points)) }
    for i, pt := range p.Points {
        if pt.ID.LoadID != "b" { t.Fatalf("leftover point from removed load: %v", pt.ID) }
        if pt.Order != i+1 { t.Fatalf("order not contiguous: %d at %d", pt.Order, i) }
    }
}

func TestRemoveMissingLoad(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    if _, err := s.InsertLoad(testLoad("a", 100, 1), &veh); err != nil { t.Fatalf("insert: %v", err) }
    if err := s.RemoveLoad(Unassigned, "nope"); !errors.Is(err, ErrLoadNotInPlan) {
        t.Fatalf("want ErrLoadNotInPlan, got %v", err)
    }
    if err := s.RemoveLoad(KeyForDriver("ghost"), "a"); !errors.Is(err, ErrPlanNotFound) {
        t.Fatalf("want ErrPlanNotFound, got %v", err)
    }
}

// Capacity invariant: no sequence of insertions pushes pickup totals over
// the vehicle limits; rejected attempts leave the plan unchanged.
func TestCapacityInvariantOverSequence(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := model.Vehicle{ID: "v", MaxWeight: 1000, MaxVolume: 10}
    loads := []model.Load{
        testLoad("l1", 400, 4),
        testLoad("l2", 400, 4),
        testLoad("l3", 400, 4), // would exceed weight
        testLoad("l4", 150, 3), // would exceed volume
        testLoad("l5", 100, 1),
    }
    for _, ld := range loads {
        _, _ = s.InsertLoad(ld, &veh)
        p, _ := s.Plan(Unassigned)
        var w, v float64
        for _, pt := range p.Points {
            if pt.ID.Stage == StagePickup {
                w += pt.Weight
                v += pt.Volume
            }
        }
        if w > veh.MaxWeight || v > veh.MaxVolume {
            t.Fatalf("capacity invariant broken after %s: w=%v v=%v", ld.ID, w, v)
        }
        // pairing invariant
        count := map[string]int{}
        for _, pt := range p.Points { count[pt.ID.LoadID]++ }
        for id, n := range count {
            if n != 2 { t.Fatalf("load %s has %d points", id, n) }
        }
        // order contiguity
        for i, pt := range p.Points {
            if pt.Order != i+1 { t.Fatalf("order gap at %d: %d", i, pt.Order) }
        }
    }
}

func TestSetActiveAndVehicleInheritance(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    s.SetVehicle(Unassigned, veh)
    // new plan created via SetActive inherits the active plan's vehicle
    s.SetActive(KeyForDriver("drv1"))
    p, ok := s.Plan(KeyForDriver("drv1"))
    if !ok { t.Fatalf("plan not created") }
    if p.Vehicle == nil || p.Vehicle.ID != veh.ID {
        t.Fatalf("vehicle not inherited: %+v", p.Vehicle)
    }
    if s.Active() != KeyForDriver("drv1") { t.Fatalf("active: %v", s.Active()) }
}

func TestPlanSnapshotIsCopy(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := testVehicle()
    if _, err := s.InsertLoad(testLoad("ld1", 10, 1), &veh); err != nil { t.Fatalf("insert: %v", err) }
    p, _ := s.Plan(Unassigned)
    p.Points[0].Weight = 99999
    p2, _ := s.Plan(Unassigned)
    if p2.Points[0].Weight == 99999 { t.Fatalf("snapshot aliases session state") }
}
