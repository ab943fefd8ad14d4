package webhooks

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "freightops/internal/store"
)

// Event types emitted by the planner.
const (
    EventPlanSaved      = "plan.saved"
    EventOfferSubmitted = "offer.submitted"
)

type Publisher struct {
    Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
    return &Publisher{Store: s}
}

// Emit fans an event out to every subscription the carrier has for the
// event type. Enqueue failures are dropped; delivery is best effort.
func (p *Publisher) Emit(ctx context.Context, carrierID, eventType string, data any) {
    subs, err := p.Store.GetSubscriptionsForEvent(ctx, carrierID, eventType)
    if err != nil || len(subs) == 0 {
        return
    }
    envelope := map[string]any{
        "id":        fmt.Sprintf("evt_%d", time.Now().UnixNano()),
        "type":      eventType,
        "carrierId": carrierID,
        "ts":        time.Now().UTC().Format(time.RFC3339),
        "data":      data,
    }
    body, _ := json.Marshal(envelope)
    for _, s := range subs {
        _, _ = p.Store.EnqueueWebhook(ctx, carrierID, s.ID, eventType, s.URL, s.Secret, body)
    }
}
