package model

// Core domain types for the carrier planning service.

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
    Lat float64 `json:"lat"`
    Lng float64 `json:"lng"`
}

// Vehicle is an immutable snapshot fetched from the marketplace.
// Plans reference vehicles, they never own them.
type Vehicle struct {
    ID        string  `json:"id"`
    Label     string  `json:"label"`
    Type      string  `json:"type,omitempty"`
    Plate     string  `json:"plate,omitempty"`
    MaxWeight float64 `json:"maxWeightKg"`
    MaxVolume float64 `json:"maxVolumeM3"`
}

// DriverRef is the lightweight driver reference carried on a load.
type DriverRef struct {
    ID   string `json:"id"`
    Name string `json:"name,omitempty"`
}

type Driver struct {
    ID     string `json:"id"`
    Name   string `json:"name"`
    Phone  string `json:"phone,omitempty"`
    Status string `json:"status,omitempty"`
}

type Shipper struct {
    Name  string `json:"name,omitempty"`
    Phone string `json:"phone,omitempty"`
}

// Load is a marketplace shipment. The source of truth lives upstream;
// the planner treats a fetched load as read-only input.
type Load struct {
    ID               string     `json:"id"`
    Title            string     `json:"title,omitempty"`
    PickupAddress    string     `json:"pickupAddress"`
    PickupCity       string     `json:"pickupCity,omitempty"`
    PickupLocation   *GeoPoint  `json:"pickupLocation,omitempty"`
    DeliveryAddress  string     `json:"deliveryAddress"`
    DeliveryCity     string     `json:"deliveryCity,omitempty"`
    DeliveryLocation *GeoPoint  `json:"deliveryLocation,omitempty"`
    Weight           float64    `json:"weightKg"`
    Volume           float64    `json:"volumeM3"`
    Price            float64    `json:"price"`
    Deadline         string     `json:"deadline,omitempty"`
    Driver           *DriverRef `json:"driver,omitempty"`
    Shipper          *Shipper   `json:"shipper,omitempty"`
}

// Corridor is a driver's current directional city pair, inferred upstream
// from their active assignment. Used for backhaul suggestions only.
type Corridor struct {
    PickupCity   string `json:"pickupCity"`
    DeliveryCity string `json:"deliveryCity"`
}

// VehicleHints are optional placement hints attached to a shipment detail,
// consumed only by deep-link auto-insertion.
type VehicleHints struct {
    VehicleType string `json:"vehicleType,omitempty"`
    Plate       string `json:"plate,omitempty"`
}

// OfferRequest submits a bid on a load, optionally auto-assigning a driver.
type OfferRequest struct {
    LoadID   string  `json:"loadId"`
    Price    float64 `json:"price"`
    Message  string  `json:"message,omitempty"`
    DriverID string  `json:"driverId,omitempty"`
}

// PlanSummary holds the derived totals for one plan. Weight and earnings
// count each load once (pickup stage only); distance is summed over
// consecutive points with known coordinates, so routes with missing
// geocoding under-report distance rather than fail.
type PlanSummary struct {
    TotalWeight     float64 `json:"totalWeightKg"`
    TotalEarnings   float64 `json:"totalEarnings"`
    TotalDistanceKm float64 `json:"totalDistanceKm"`
    Optimized       bool    `json:"optimized"`
}

// SavedPoint is one serialized stop in a persisted plan.
type SavedPoint struct {
    ID       string  `json:"id"`
    Order    int     `json:"order"`
    Stage    string  `json:"stage"`
    Address  string  `json:"address"`
    Name     string  `json:"name,omitempty"`
    Weight   float64 `json:"weightKg"`
    Volume   float64 `json:"volumeM3"`
    Price    float64 `json:"price"`
    Deadline string  `json:"deadline,omitempty"`
}

// PlanPayload is the persistence form of one non-empty plan.
type PlanPayload struct {
    Key      string       `json:"key"`
    DriverID string       `json:"driverId,omitempty"`
    LoadIDs  []string     `json:"loadIds"`
    Points   []SavedPoint `json:"points"`
    Vehicle  *Vehicle     `json:"vehicle"`
    Summary  PlanSummary  `json:"summary"`
}

// SaveRequest is the payload handed to the persistence layer.
type SaveRequest struct {
    Plans []PlanPayload `json:"plans"`
}

// SavedBatch is a persisted save, as read back from the store.
type SavedBatch struct {
    ID        string        `json:"id"`
    CarrierID string        `json:"carrierId"`
    Plans     []PlanPayload `json:"plans"`
    SavedAt   string        `json:"savedAt"`
}

// Webhook subscription models.
type SubscriptionRequest struct {
    CarrierID string   `json:"carrierId"`
    URL       string   `json:"url"`
    Events    []string `json:"events"`
    Secret    string   `json:"secret"`
}

type Subscription struct {
    ID        string   `json:"id"`
    CarrierID string   `json:"carrierId"`
    URL       string   `json:"url"`
    Events    []string `json:"events"`
    Secret    string   `json:"secret,omitempty"`
}
