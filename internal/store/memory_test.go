package store

import (
    "context"
    "testing"
    "time"

    "freightops/internal/model"
)

func TestMemorySavedBatches(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    req := model.SaveRequest{Plans: []model.PlanPayload{{Key: "unassigned", LoadIDs: []string{"l1"}}}}
    id, err := m.SavePlans(ctx, "car1", req)
    if err != nil { t.Fatalf("save: %v", err) }
    b, err := m.GetSavedBatch(ctx, "car1", id)
    if err != nil { t.Fatalf("get: %v", err) }
    if len(b.Plans) != 1 || b.Plans[0].Key != "unassigned" { t.Fatalf("unexpected batch: %+v", b) }
    if _, err := m.GetSavedBatch(ctx, "other", id); err != ErrNotFound {
        t.Fatalf("cross-carrier read should be not found, got %v", err)
    }

    for i := 0; i < 3; i++ {
        if _, err := m.SavePlans(ctx, "car1", req); err != nil { t.Fatal(err) }
    }
    page1, cursor, err := m.ListSavedBatches(ctx, "car1", "", 2)
    if err != nil { t.Fatal(err) }
    if len(page1) != 2 || cursor == "" { t.Fatalf("want full first page with cursor, got %d %q", len(page1), cursor) }
    page2, _, err := m.ListSavedBatches(ctx, "car1", cursor, 10)
    if err != nil { t.Fatal(err) }
    if len(page1)+len(page2) != 4 { t.Fatalf("pages should cover all batches, got %d+%d", len(page1), len(page2)) }
}

func TestMemorySubscriptions(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    sub, err := m.CreateSubscription(ctx, model.SubscriptionRequest{CarrierID: "car1", URL: "https://example.com/hook", Events: []string{"plan.saved"}, Secret: "s"})
    if err != nil { t.Fatal(err) }
    if _, err := m.CreateSubscription(ctx, model.SubscriptionRequest{CarrierID: "car1", URL: "https://example.com/other", Events: []string{"offer.submitted"}}); err != nil {
        t.Fatal(err)
    }

    got, err := m.GetSubscriptionsForEvent(ctx, "car1", "plan.saved")
    if err != nil { t.Fatal(err) }
    if len(got) != 1 || got[0].ID != sub.ID { t.Fatalf("event filter returned %+v", got) }

    if err := m.DeleteSubscription(ctx, "car1", sub.ID); err != nil { t.Fatal(err) }
    if err := m.DeleteSubscription(ctx, "car1", sub.ID); err != ErrNotFound {
        t.Fatalf("second delete should be not found, got %v", err)
    }
}

func TestMemoryWebhookLifecycle(t *testing.T) {
    ctx := context.Background()
    m := NewMemory()
    id, err := m.EnqueueWebhook(ctx, "car1", "sub1", "plan.saved", "https://example.com/hook", "s", []byte(`{"ok":true}`))
    if err != nil { t.Fatal(err) }

    due, err := m.FetchDueWebhookDeliveries(ctx, 10)
    if err != nil { t.Fatal(err) }
    if len(due) != 1 || due[0].ID != id { t.Fatalf("expected the new delivery due, got %+v", due) }

    future := time.Now().Add(time.Hour)
    if err := m.MarkWebhookDelivery(ctx, id, false, &future, "timeout", 0, 1500); err != nil { t.Fatal(err) }
    due, err = m.FetchDueWebhookDeliveries(ctx, 10)
    if err != nil { t.Fatal(err) }
    if len(due) != 0 { t.Fatalf("retry scheduled in the future must not be due, got %d", len(due)) }

    past := time.Now().Add(-time.Second)
    if err := m.MarkWebhookDelivery(ctx, id, false, &past, "503", 503, 20); err != nil { t.Fatal(err) }
    due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
    if len(due) != 1 || due[0].Attempts != 2 { t.Fatalf("expected retried delivery back in queue, got %+v", due) }

    if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 12); err != nil { t.Fatal(err) }
    due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
    if len(due) != 0 { t.Fatalf("delivered webhook must leave the queue, got %d", len(due)) }
}
