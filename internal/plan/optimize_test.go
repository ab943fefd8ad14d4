package plan

import (
    "testing"

    "freightops/internal/model"
)

// An interleaved [delivery, pickup, pickup, delivery] order partitions to
// [pickup, pickup, delivery, delivery] with relative order kept, and a
// later insertion clears the flag.
func TestOptimizeStablePartition(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    veh := model.Vehicle{ID: "v", MaxWeight: 10000, MaxVolume: 100}
    if _, err := s.InsertLoad(testLoad("a", 10, 1), &veh); err != nil { t.Fatalf("insert a: %v", err) }
    if _, err := s.InsertLoad(testLoad("b", 10, 1), &veh); err != nil { t.Fatalf("insert b: %v", err) }
    // force the interleaving [a-delivery, a-pickup, b-pickup, b-delivery]
    s.mu.Lock()
    p := s.plans[Unassigned]
    p.Points[0], p.Points[1] = p.Points[1], p.Points[0]
    p.renumber()
    s.mu.Unlock()

    if err := s.Optimize(Unassigned); err != nil { t.Fatalf("optimize: %v", err) }
    got, _ := s.Plan(Unassigned)
    want := []PointID{
        {LoadID: "a", Stage: StagePickup},
        {LoadID: "b", Stage: StagePickup},
        {LoadID: "a", Stage: StageDelivery},
        {LoadID: "b", Stage: StageDelivery},
    }
    for i, id := range want {
        if got.Points[i].ID != id { t.Fatalf("point %d: got %v, want %v", i, got.Points[i].ID, id) }
        if got.Points[i].Order != i+1 { t.Fatalf("order %d: %d", i, got.Points[i].Order) }
    }
    if !got.Optimized { t.Fatalf("optimized flag not set") }

    // insertion invalidates the sequencing decision
    if _, err := s.InsertLoad(testLoad("c", 10, 1), nil); err != nil { t.Fatalf("insert c: %v", err) }
    got, _ = s.Plan(Unassigned)
    if got.Optimized { t.Fatalf("insertion should clear optimized") }
}

func TestOptimizeUnknownPlan(t *testing.T) {
    s := NewSession("sess1", "carrier1")
    if err := s.Optimize(KeyForDriver("ghost")); err != ErrPlanNotFound {
        t.Fatalf("want ErrPlanNotFound, got %v", err)
    }
}
