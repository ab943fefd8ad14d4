package store

import (
    "context"
    "errors"
    "time"

    "freightops/internal/model"
)

// Store is the persistence interface used by the API server. Saving is
// all-or-nothing: a batch either lands completely or the save is rejected.
type Store interface {
    // Saved route plan batches
    SavePlans(ctx context.Context, carrierID string, req model.SaveRequest) (batchID string, err error)
    GetSavedBatch(ctx context.Context, carrierID, batchID string) (model.SavedBatch, error)
    ListSavedBatches(ctx context.Context, carrierID, cursor string, limit int) ([]model.SavedBatch, string, error)

    // Webhook subscriptions
    CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
    GetSubscriptionsForEvent(ctx context.Context, carrierID, eventType string) ([]model.Subscription, error)
    ListSubscriptions(ctx context.Context, carrierID, cursor string, limit int) ([]model.Subscription, string, error)
    DeleteSubscription(ctx context.Context, carrierID, id string) error

    // Webhook delivery queue
    EnqueueWebhook(ctx context.Context, carrierID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error
    ListWebhookDLQ(ctx context.Context, carrierID string, limit int) ([]WebhookDelivery, error)
}

// WebhookDelivery is one queued outbound notification.
type WebhookDelivery struct {
    ID             string
    CarrierID      string
    SubscriptionID string
    EventType      string
    URL            string
    Secret         string
    Payload        []byte
    Status         string
    Attempts       int
}

var ErrNotFound = errors.New("not found")
