package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "freightops/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Migrate creates the schema if missing (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
    stmts := []string{
        `CREATE TABLE IF NOT EXISTS plan_batches (
            id UUID PRIMARY KEY,
            carrier_id TEXT NOT NULL,
            plans JSONB NOT NULL,
            saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
        `CREATE INDEX IF NOT EXISTS plan_batches_carrier_idx ON plan_batches (carrier_id, id)`,
        `CREATE TABLE IF NOT EXISTS subscriptions (
            id UUID PRIMARY KEY,
            carrier_id TEXT NOT NULL,
            url TEXT NOT NULL,
            events JSONB NOT NULL,
            secret TEXT NOT NULL DEFAULT ''
        )`,
        `CREATE TABLE IF NOT EXISTS webhook_deliveries (
            id UUID PRIMARY KEY,
            carrier_id TEXT NOT NULL,
            subscription_id TEXT NOT NULL,
            event_type TEXT NOT NULL,
            url TEXT NOT NULL,
            secret TEXT NOT NULL DEFAULT '',
            payload BYTEA,
            status TEXT NOT NULL DEFAULT 'pending',
            attempts INT NOT NULL DEFAULT 0,
            next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            last_error TEXT,
            response_code INT,
            latency_ms INT
        )`,
    }
    for _, s := range stmts {
        if _, err := p.db.ExecContext(ctx, s); err != nil { return err }
    }
    return nil
}

// SavePlans stores a whole batch in one transaction; any failure rejects
// the save completely.
func (p *Postgres) SavePlans(ctx context.Context, carrierID string, req model.SaveRequest) (string, error) {
    id := uuid.New()
    plans, err := json.Marshal(req.Plans)
    if err != nil { return "", err }
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return "", err }
    defer func(){ _ = tx.Rollback() }()
    if _, err := tx.ExecContext(ctx, `INSERT INTO plan_batches (id, carrier_id, plans) VALUES ($1,$2,$3)`, id, carrierID, plans); err != nil {
        return "", err
    }
    if err := tx.Commit(); err != nil { return "", err }
    return id.String(), nil
}

func (p *Postgres) GetSavedBatch(ctx context.Context, carrierID, batchID string) (model.SavedBatch, error) {
    var b model.SavedBatch
    var plans []byte
    var savedAt time.Time
    err := p.db.QueryRowContext(ctx, `SELECT id::text, carrier_id, plans, saved_at FROM plan_batches WHERE id=$1 AND carrier_id=$2`, batchID, carrierID).
        Scan(&b.ID, &b.CarrierID, &plans, &savedAt)
    if errors.Is(err, sql.ErrNoRows) { return model.SavedBatch{}, ErrNotFound }
    if err != nil { return model.SavedBatch{}, err }
    if err := json.Unmarshal(plans, &b.Plans); err != nil { return model.SavedBatch{}, err }
    b.SavedAt = savedAt.UTC().Format(time.RFC3339)
    return b, nil
}

func (p *Postgres) ListSavedBatches(ctx context.Context, carrierID, cursor string, limit int) ([]model.SavedBatch, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, carrier_id, plans, saved_at FROM plan_batches WHERE carrier_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, carrierID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, carrier_id, plans, saved_at FROM plan_batches WHERE carrier_id=$1 ORDER BY id LIMIT $2`, carrierID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.SavedBatch{}
    var last string
    for rows.Next() {
        var b model.SavedBatch
        var plans []byte
        var savedAt time.Time
        if err := rows.Scan(&b.ID, &b.CarrierID, &plans, &savedAt); err != nil { return nil, "", err }
        if err := json.Unmarshal(plans, &b.Plans); err != nil { return nil, "", err }
        b.SavedAt = savedAt.UTC().Format(time.RFC3339)
        out = append(out, b)
        last = b.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    id := uuid.New()
    events, err := json.Marshal(req.Events)
    if err != nil { return model.Subscription{}, err }
    _, err = p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, carrier_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`,
        id, req.CarrierID, req.URL, events, req.Secret)
    if err != nil { return model.Subscription{}, err }
    return model.Subscription{ID: id.String(), CarrierID: req.CarrierID, URL: req.URL, Events: req.Events, Secret: req.Secret}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, carrierID, eventType string) ([]model.Subscription, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, carrier_id, url, events, secret FROM subscriptions WHERE carrier_id=$1 AND events @> to_jsonb(ARRAY[$2::text])`, carrierID, eventType)
    if err != nil { return nil, err }
    defer rows.Close()
    return scanSubscriptions(rows)
}

func (p *Postgres) ListSubscriptions(ctx context.Context, carrierID, cursor string, limit int) ([]model.Subscription, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, carrier_id, url, events, secret FROM subscriptions WHERE carrier_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, carrierID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, carrier_id, url, events, secret FROM subscriptions WHERE carrier_id=$1 ORDER BY id LIMIT $2`, carrierID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out, err := scanSubscriptions(rows)
    if err != nil { return nil, "", err }
    next := ""
    if len(out) == limit { next = out[len(out)-1].ID }
    return out, next, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
    out := []model.Subscription{}
    for rows.Next() {
        var s model.Subscription
        var events []byte
        if err := rows.Scan(&s.ID, &s.CarrierID, &s.URL, &events, &s.Secret); err != nil { return nil, err }
        if err := json.Unmarshal(events, &s.Events); err != nil { return nil, err }
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, carrierID, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE carrier_id=$1 AND id=$2`, carrierID, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, carrierID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    id := uuid.New()
    _, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, carrier_id, subscription_id, event_type, url, secret, payload) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
        id, carrierID, subscriptionID, eventType, url, secret, payload)
    if err != nil { return "", err }
    return id.String(), nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    if limit <= 0 { limit = 50 }
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, carrier_id, subscription_id, event_type, url, secret, payload, status, attempts
        FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        if err := rows.Scan(&d.ID, &d.CarrierID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
    if success {
        _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='delivered', attempts=attempts+1, response_code=$2, latency_ms=$3 WHERE id=$1`, id, responseCode, latencyMs)
        return err
    }
    next := time.Now().Add(1 * time.Minute)
    if nextAttemptAt != nil { next = *nextAttemptAt }
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='retry', attempts=attempts+1, next_attempt_at=$2, last_error=$3, response_code=$4, latency_ms=$5 WHERE id=$1`,
        id, next, lastError, responseCode, latencyMs)
    return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', attempts=attempts+1, last_error=$2, response_code=$3, latency_ms=$4 WHERE id=$1`,
        id, lastError, responseCode, latencyMs)
    return err
}

func (p *Postgres) ListWebhookDLQ(ctx context.Context, carrierID string, limit int) ([]WebhookDelivery, error) {
    if limit <= 0 { limit = 100 }
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, carrier_id, subscription_id, event_type, url, secret, payload, status, attempts
        FROM webhook_deliveries WHERE carrier_id=$1 AND status='failed' ORDER BY next_attempt_at LIMIT $2`, carrierID, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        if err := rows.Scan(&d.ID, &d.CarrierID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}
