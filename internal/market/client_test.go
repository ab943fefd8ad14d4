package market

import (
    "context"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "freightops/internal/model"
)

func TestVehiclesAndAuthHeader(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path != "/v1/carriers/car1/vehicles" { t.Errorf("path: %s", r.URL.Path) }
        if got := r.Header.Get("Authorization"); got != "Bearer tok" { t.Errorf("auth: %q", got) }
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(`{"items":[{"id":"v1","label":"Box","maxWeightKg":5000,"maxVolumeM3":20}]}`))
    }))
    defer srv.Close()
    c := NewClient(srv.URL, "tok")
    vehicles, err := c.Vehicles(context.Background(), "car1")
    if err != nil { t.Fatalf("vehicles: %v", err) }
    if len(vehicles) != 1 || vehicles[0].ID != "v1" || vehicles[0].MaxWeight != 5000 {
        t.Fatalf("decoded: %+v", vehicles)
    }
}

func TestCorridorNullAndNotFound(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        switch r.URL.Path {
        case "/v1/drivers/idle/corridor":
            _, _ = w.Write([]byte(`{"corridor":null}`))
        case "/v1/drivers/busy/corridor":
            _, _ = w.Write([]byte(`{"corridor":{"pickupCity":"Phoenix","deliveryCity":"Tucson"}}`))
        default:
            w.WriteHeader(http.StatusNotFound)
        }
    }))
    defer srv.Close()
    c := NewClient(srv.URL, "")

    if cor, err := c.Corridor(context.Background(), "idle"); err != nil || cor != nil {
        t.Fatalf("idle: %v %v", cor, err)
    }
    cor, err := c.Corridor(context.Background(), "busy")
    if err != nil { t.Fatalf("busy: %v", err) }
    if cor == nil || cor.DeliveryCity != "Tucson" { t.Fatalf("corridor: %+v", cor) }
    if cor, err := c.Corridor(context.Background(), "unknown"); err != nil || cor != nil {
        t.Fatalf("404 should map to no corridor: %v %v", cor, err)
    }
}

func TestServerMessageSurfaced(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusUnprocessableEntity)
        _, _ = w.Write([]byte(`{"message":"load already booked"}`))
    }))
    defer srv.Close()
    c := NewClient(srv.URL, "")
    err := c.SubmitOffer(context.Background(), model.OfferRequest{LoadID: "ld1", Price: 100})
    var apiErr *APIError
    if !errors.As(err, &apiErr) { t.Fatalf("want APIError, got %v", err) }
    if apiErr.Status != 422 || apiErr.Message != "load already booked" {
        t.Fatalf("apiErr: %+v", apiErr)
    }
}

func TestShipmentDetailWithHints(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path != "/v1/shipments/ld7" { t.Errorf("path: %s", r.URL.Path) }
        _, _ = w.Write([]byte(`{"load":{"id":"ld7","pickupAddress":"a","deliveryAddress":"b","weightKg":900,"volumeM3":3},"vehicleHints":{"vehicleType":"box","plate":"CC-3"}}`))
    }))
    defer srv.Close()
    c := NewClient(srv.URL, "")
    ld, hints, err := c.ShipmentDetail(context.Background(), "ld7")
    if err != nil { t.Fatalf("detail: %v", err) }
    if ld == nil || ld.ID != "ld7" || ld.Weight != 900 { t.Fatalf("load: %+v", ld) }
    if hints == nil || hints.VehicleType != "box" || hints.Plate != "CC-3" {
        t.Fatalf("hints: %+v", hints)
    }
}

func TestOfferSubmitBody(t *testing.T) {
    var gotBody string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPost { t.Errorf("method: %s", r.Method) }
        b, _ := io.ReadAll(r.Body)
        gotBody = string(b)
        w.WriteHeader(http.StatusCreated)
    }))
    defer srv.Close()
    c := NewClient(srv.URL, "")
    err := c.SubmitOffer(context.Background(), model.OfferRequest{LoadID: "ld1", Price: 450, DriverID: "drv1"})
    if err != nil { t.Fatalf("offer: %v", err) }
    if !strings.Contains(gotBody, `"loadId":"ld1"`) || !strings.Contains(gotBody, `"driverId":"drv1"`) {
        t.Fatalf("body: %s", gotBody)
    }
}
