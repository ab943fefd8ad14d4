package plan

import (
    "testing"

    "freightops/internal/model"
)

func TestPointIDRoundTrip(t *testing.T) {
    id := PointID{LoadID: "ld-42", Stage: StagePickup}
    s := id.String()
    if s != "pickup-ld-42" { t.Fatalf("wire form: %q", s) }
    back, err := ParsePointID(s)
    if err != nil { t.Fatalf("parse: %v", err) }
    if back != id { t.Fatalf("round trip: %v", back) }
}

func TestParsePointIDInvalid(t *testing.T) {
    for _, bad := range []string{"", "pickup", "pickup-", "loading-ld1"} {
        if _, err := ParsePointID(bad); err == nil {
            t.Fatalf("expected error for %q", bad)
        }
    }
}

func TestPlanKeyRoundTrip(t *testing.T) {
    if Unassigned.String() != "unassigned" { t.Fatalf("unassigned: %q", Unassigned.String()) }
    k := KeyForDriver("drv9")
    if k.String() != "driver:drv9" { t.Fatalf("driver key: %q", k.String()) }
    back, err := ParsePlanKey("driver:drv9")
    if err != nil || back != k { t.Fatalf("parse: %v %v", back, err) }
    back, err = ParsePlanKey("unassigned")
    if err != nil || !back.IsUnassigned() { t.Fatalf("parse unassigned: %v %v", back, err) }
    if _, err := ParsePlanKey("driver:"); err == nil { t.Fatalf("empty driver id accepted") }
    if _, err := ParsePlanKey("bogus"); err == nil { t.Fatalf("bogus key accepted") }
}

func TestKeyForLoad(t *testing.T) {
    if k := KeyForLoad(&model.Load{ID: "x"}); !k.IsUnassigned() {
        t.Fatalf("no driver: %v", k)
    }
    ld := model.Load{ID: "x", Driver: &model.DriverRef{ID: "d1"}}
    if k := KeyForLoad(&ld); k != KeyForDriver("d1") {
        t.Fatalf("driver key: %v", k)
    }
}

func TestBackhaulMatches(t *testing.T) {
    c := &model.Corridor{PickupCity: "Phoenix", DeliveryCity: "Tucson"}
    loads := []model.Load{
        {ID: "a", PickupCity: "Tucson"},
        {ID: "b", PickupCity: "tucson "},
        {ID: "c", PickupCity: "Yuma"},
        {ID: "d"},
    }
    got := BackhaulMatches(c, loads)
    if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
        t.Fatalf("matches: %+v", got)
    }
    if got := BackhaulMatches(nil, loads); len(got) != 0 {
        t.Fatalf("nil corridor should match nothing")
    }
}
