package api

import (
    "context"
    "strings"

    "freightops/internal/auth"
    "freightops/internal/config"
    "freightops/internal/market"
    "freightops/internal/plan"
    "freightops/internal/store"
    "freightops/internal/webhooks"
)

type Server struct {
    Store  store.Store
    Pub    *webhooks.Publisher
    Auth   *auth.Verifier
    Broker EventBroker
    Market *market.Client
    Plans  *plan.Manager

    webhookMaxAttempts int
}

// NewServer wires the service from config. Without DATABASE_URL the store
// is in-memory; without REDIS_URL the event broker is in-process.
func NewServer(cfg config.Config) (*Server, error) {
    var s store.Store
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        s = store.NewMemory()
    } else {
        pg, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        if err := pg.Migrate(context.Background()); err != nil {
            return nil, err
        }
        s = pg
    }
    var broker EventBroker
    if cfg.RedisURL != "" {
        rb, err := NewRedisBroker(cfg.RedisURL)
        if err != nil {
            return nil, err
        }
        broker = rb
    } else {
        broker = NewBroker()
    }
    return &Server{
        Store:              s,
        Pub:                webhooks.NewPublisher(s),
        Auth:               auth.NewVerifier(cfg.Auth.Mode, cfg.Auth.HMACSecret, cfg.Auth.JWKSURL),
        Broker:             broker,
        Market:             market.NewClient(cfg.Market.BaseURL, cfg.Market.Token),
        Plans:              plan.NewManager(),
        webhookMaxAttempts: cfg.Webhooks.MaxAttempts,
    }, nil
}

// NewWebhookWorker creates the background delivery worker.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    return webhooks.NewWorker(s.Store, s.webhookMaxAttempts)
}
