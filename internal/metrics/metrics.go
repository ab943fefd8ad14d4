package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // LoadInsertions counts load insertions by outcome (inserted, rejected, duplicate)
    LoadInsertions = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "plan_load_insertions_total", Help: "Load insertion attempts by outcome."},
        []string{"outcome"},
    )
    // CapacityRejections counts capacity failures by kind
    CapacityRejections = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "plan_capacity_rejections_total", Help: "Capacity rejections by kind."},
        []string{"kind"},
    )
    // AutoplaceOutcomes counts deep-link auto-insertion results by status
    AutoplaceOutcomes = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "planner_autoplace_total", Help: "Deep-link auto-insertion results by status."},
        []string{"status"},
    )
    // PlanSaves counts persisted plan batches
    PlanSaves = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "plan_saves_total", Help: "Plan batches persisted."},
    )

    // WebhookDeliveries counts webhook delivery outcomes by event type and status
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
        []string{"event_type", "status"},
    )
    // WebhookLatency tracks webhook delivery latency in seconds
    WebhookLatency = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "webhook_delivery_duration_seconds", Help: "Webhook delivery latency in seconds.", Buckets: prometheus.DefBuckets},
    )
)

// RegisterDefault registers all collectors on the dedicated registry.
func RegisterDefault() {
    regOnce.Do(func() {
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(LoadInsertions)
        Registry.MustRegister(CapacityRejections)
        Registry.MustRegister(AutoplaceOutcomes)
        Registry.MustRegister(PlanSaves)
        Registry.MustRegister(WebhookDeliveries)
        Registry.MustRegister(WebhookLatency)
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
