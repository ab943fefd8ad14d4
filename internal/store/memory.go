package store

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
    "freightops/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu sync.Mutex
    batches     map[string]model.SavedBatch // id -> batch
    batchesByCar map[string][]string        // carrier -> batch ids
    subs        map[string][]model.Subscription
    deliveries  map[string]*memDelivery
    deliveryIDs []string
    dlq         []WebhookDelivery
}

func NewMemory() *Memory {
    return &Memory{
        batches: map[string]model.SavedBatch{},
        batchesByCar: map[string][]string{},
        subs: map[string][]model.Subscription{},
        deliveries: map[string]*memDelivery{},
    }
}

// memDelivery augments WebhookDelivery with scheduling state
type memDelivery struct {
    WebhookDelivery
    NextAttemptAt time.Time
    LastError     string
    ResponseCode  int
    LatencyMs     int
}

func (m *Memory) SavePlans(ctx context.Context, carrierID string, req model.SaveRequest) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    plans := append([]model.PlanPayload(nil), req.Plans...)
    b := model.SavedBatch{ID: id, CarrierID: carrierID, Plans: plans, SavedAt: time.Now().UTC().Format(time.RFC3339)}
    m.batches[id] = b
    m.batchesByCar[carrierID] = append(m.batchesByCar[carrierID], id)
    return id, nil
}

func (m *Memory) GetSavedBatch(ctx context.Context, carrierID, batchID string) (model.SavedBatch, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    b, ok := m.batches[batchID]
    if !ok || b.CarrierID != carrierID { return model.SavedBatch{}, ErrNotFound }
    return b, nil
}

func (m *Memory) ListSavedBatches(ctx context.Context, carrierID, cursor string, limit int) ([]model.SavedBatch, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.batchesByCar[carrierID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.SavedBatch{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        out = append(out, m.batches[ids[i]])
        next = ids[i]
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    s := model.Subscription{ID: uuid.New().String(), CarrierID: req.CarrierID, URL: req.URL, Events: req.Events, Secret: req.Secret}
    m.subs[req.CarrierID] = append(m.subs[req.CarrierID], s)
    return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, carrierID, eventType string) ([]model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    var out []model.Subscription
    for _, s := range m.subs[carrierID] {
        for _, e := range s.Events { if e == eventType { out = append(out, s); break } }
    }
    return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, carrierID, cursor string, limit int) ([]model.Subscription, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    list := m.subs[carrierID]
    start := 0
    if cursor != "" {
        for i := range list { if list[i].ID == cursor { start = i+1; break } }
    }
    if limit <= 0 { limit = 100 }
    end := start + limit
    if end > len(list) { end = len(list) }
    items := append([]model.Subscription(nil), list[start:end]...)
    next := ""
    if end < len(list) { next = list[end-1].ID }
    return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, carrierID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    arr := m.subs[carrierID]
    out := make([]model.Subscription, 0, len(arr))
    for _, s := range arr { if s.ID != id { out = append(out, s) } }
    if len(out) == len(arr) { return ErrNotFound }
    m.subs[carrierID] = out
    return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, carrierID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, CarrierID: carrierID, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending"}, NextAttemptAt: time.Now()}
    m.deliveries[id] = d
    m.deliveryIDs = append(m.deliveryIDs, id)
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    now := time.Now()
    out := []WebhookDelivery{}
    for _, id := range m.deliveryIDs {
        d := m.deliveries[id]
        if d == nil { continue }
        if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
            out = append(out, d.WebhookDelivery)
            if limit > 0 && len(out) >= limit { break }
        }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return nil }
    d.Attempts++
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    if success {
        d.Status = "delivered"
    } else {
        d.Status = "retry"
        d.LastError = lastError
        if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return nil }
    d.Status = "failed"
    d.LastError = lastError
    m.dlq = append(m.dlq, d.WebhookDelivery)
    return nil
}

func (m *Memory) ListWebhookDLQ(ctx context.Context, carrierID string, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if limit <= 0 { limit = 100 }
    out := []WebhookDelivery{}
    for _, d := range m.dlq {
        if d.CarrierID != carrierID { continue }
        out = append(out, d)
        if len(out) >= limit { break }
    }
    return out, nil
}
