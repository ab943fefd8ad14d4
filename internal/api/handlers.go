package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "golang.org/x/sync/errgroup"

    "freightops/internal/buildinfo"
    "freightops/internal/market"
    "freightops/internal/metrics"
    "freightops/internal/model"
    "freightops/internal/plan"
    "freightops/internal/webhooks"
)

// SessionsHandler handles POST /v1/planner/sessions
func (s *Server) SessionsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.canPlan() { writeProblem(w, 403, "Forbidden", "planning role required", r.URL.Path); return }

    sess := s.Plans.Create(p.Carrier)
    warnings := s.bootstrapSession(r.Context(), sess, p.Carrier)
    writeJSON(w, http.StatusCreated, map[string]any{
        "id":        sess.ID,
        "carrierId": sess.CarrierID,
        "warnings":  warnings,
    })
}

// bootstrapSession pulls vehicles, drivers and open loads from the
// marketplace concurrently. A failed source reports a warning but never
// blocks the others, so the planner opens with whatever data arrived.
func (s *Server) bootstrapSession(ctx context.Context, sess *plan.Session, carrierID string) []string {
    var vehErr, drvErr, loadErr error
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        if vs, err := s.Market.Vehicles(gctx, carrierID); err != nil { vehErr = err } else { sess.SetFleet(vs) }
        return nil
    })
    g.Go(func() error {
        if ds, err := s.Market.Drivers(gctx, carrierID); err != nil { drvErr = err } else { sess.SetDrivers(ds) }
        return nil
    })
    g.Go(func() error {
        if ls, err := s.Market.Loads(gctx, carrierID); err != nil { loadErr = err } else { sess.AddLoads(ls) }
        return nil
    })
    _ = g.Wait()
    warnings := []string{}
    if vehErr != nil { warnings = append(warnings, "vehicles unavailable: "+vehErr.Error()) }
    if drvErr != nil { warnings = append(warnings, "drivers unavailable: "+drvErr.Error()) }
    if loadErr != nil { warnings = append(warnings, "loads unavailable: "+loadErr.Error()) }
    return warnings
}

// SessionByIDHandler dispatches /v1/planner/sessions/{id} and everything
// nested under it.
func (s *Server) SessionByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/v1/planner/sessions/")
    if rest == r.URL.Path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing session id", r.URL.Path)
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]
    p := s.getPrincipal(r)
    sess, ok := s.Plans.Get(id)
    if !ok {
        writeProblem(w, http.StatusNotFound, "Session not found", "", r.URL.Path)
        return
    }
    if sess.CarrierID != p.Carrier {
        writeProblem(w, http.StatusForbidden, "Forbidden", "session belongs to another carrier", r.URL.Path)
        return
    }

    switch {
    case len(parts) == 1:
        switch r.Method {
        case http.MethodGet:
            writeJSON(w, 200, s.sessionSnapshot(sess))
        case http.MethodDelete:
            s.Plans.Delete(id)
            w.WriteHeader(http.StatusNoContent)
        default:
            w.WriteHeader(http.StatusMethodNotAllowed)
        }
    case parts[1] == "plans" && len(parts) >= 4:
        s.planSubresource(w, r, sess, parts[2], parts[3:])
    case parts[1] == "active" && len(parts) == 2:
        s.setActive(w, r, sess)
    case parts[1] == "autoplace" && len(parts) == 2:
        s.autoplace(w, r, sess)
    case parts[1] == "suggestions" && len(parts) == 2:
        s.suggestions(w, r, sess)
    case parts[1] == "save" && len(parts) == 2:
        s.savePlans(w, r, sess, p)
    case parts[1] == "events" && len(parts) == 3 && parts[2] == "stream":
        s.streamEvents(w, r, sess)
    default:
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
    }
}

type planView struct {
    plan.RoutePlan
    Summary model.PlanSummary `json:"summary"`
}

func (s *Server) sessionSnapshot(sess *plan.Session) map[string]any {
    plans := sess.Plans()
    views := make([]planView, 0, len(plans))
    for _, p := range plans {
        views = append(views, planView{RoutePlan: *p, Summary: plan.Summarize(p)})
    }
    return map[string]any{
        "id":        sess.ID,
        "carrierId": sess.CarrierID,
        "activeKey": sess.Active().String(),
        "plans":     views,
    }
}

// planSubresource handles /plans/{key}/(loads|loads/{loadId}|vehicle|optimize|summary)
func (s *Server) planSubresource(w http.ResponseWriter, r *http.Request, sess *plan.Session, keyStr string, rest []string) {
    key, err := plan.ParsePlanKey(keyStr)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid plan key", err.Error(), r.URL.Path)
        return
    }
    switch {
    case rest[0] == "loads" && len(rest) == 1 && r.Method == http.MethodPost:
        s.insertLoad(w, r, sess, key)
    case rest[0] == "loads" && len(rest) == 2 && r.Method == http.MethodDelete:
        s.removeLoad(w, r, sess, key, rest[1])
    case rest[0] == "vehicle" && len(rest) == 1 && r.Method == http.MethodPost:
        s.bindVehicle(w, r, sess, key)
    case rest[0] == "optimize" && len(rest) == 1 && r.Method == http.MethodPost:
        s.optimizePlan(w, r, sess, key)
    case rest[0] == "summary" && len(rest) == 1 && r.Method == http.MethodGet:
        sum, err := sess.Summary(key)
        if err != nil {
            writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
            return
        }
        writeJSON(w, 200, sum)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

type insertRequest struct {
    LoadID    string      `json:"loadId"`
    Load      *model.Load `json:"load,omitempty"`
    VehicleID string      `json:"vehicleId,omitempty"`
}

func (s *Server) insertLoad(w http.ResponseWriter, r *http.Request, sess *plan.Session, key plan.PlanKey) {
    var req insertRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateInsertRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
        return
    }
    ld, ok := s.resolveLoad(sess, &req)
    if !ok {
        writeProblem(w, http.StatusNotFound, "Load not found", "unknown load id "+req.LoadID, r.URL.Path)
        return
    }
    var veh *model.Vehicle
    if req.VehicleID != "" {
        v, ok := sess.VehicleByID(req.VehicleID)
        if !ok {
            writeProblem(w, http.StatusNotFound, "Vehicle not found", "unknown vehicle id "+req.VehicleID, r.URL.Path)
            return
        }
        veh = &v
    }
    if err := sess.InsertLoadInto(key, ld, veh); err != nil {
        s.writeInsertError(w, r, err)
        return
    }
    metrics.LoadInsertions.WithLabelValues("inserted").Inc()
    s.Broker.Publish(sess.ID, PlanEvent{Type: "load.inserted", Data: map[string]any{"planKey": key.String(), "loadId": ld.ID}})
    writeJSON(w, http.StatusCreated, map[string]any{"planKey": key.String(), "loadId": ld.ID, "status": "inserted"})
}

func (s *Server) resolveLoad(sess *plan.Session, req *insertRequest) (model.Load, bool) {
    if req.Load != nil {
        sess.AddLoads([]model.Load{*req.Load})
        return *req.Load, true
    }
    return sess.Load(req.LoadID)
}

// writeInsertError maps engine rejections onto problem responses. A
// duplicate insert is benign and reported as success with a flag.
func (s *Server) writeInsertError(w http.ResponseWriter, r *http.Request, err error) {
    var capErr *plan.CapacityError
    switch {
    case errors.Is(err, plan.ErrDuplicateLoad):
        metrics.LoadInsertions.WithLabelValues("duplicate").Inc()
        writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
    case errors.As(err, &capErr):
        metrics.LoadInsertions.WithLabelValues("rejected").Inc()
        metrics.CapacityRejections.WithLabelValues(string(capErr.Kind)).Inc()
        writeJSON(w, http.StatusConflict, map[string]any{
            "status":    "rejected",
            "kind":      capErr.Kind,
            "limit":     capErr.Limit,
            "attempted": capErr.Attempted,
        })
    case errors.Is(err, plan.ErrNoVehicle):
        metrics.LoadInsertions.WithLabelValues("rejected").Inc()
        writeProblem(w, http.StatusConflict, "No vehicle bound", "bind a vehicle before inserting loads", r.URL.Path)
    default:
        writeProblem(w, http.StatusInternalServerError, "Insert failed", err.Error(), r.URL.Path)
    }
}

func (s *Server) removeLoad(w http.ResponseWriter, r *http.Request, sess *plan.Session, key plan.PlanKey, loadID string) {
    if err := sess.RemoveLoad(key, loadID); err != nil {
        switch {
        case errors.Is(err, plan.ErrPlanNotFound):
            writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
        case errors.Is(err, plan.ErrLoadNotInPlan):
            writeProblem(w, http.StatusNotFound, "Load not in plan", loadID, r.URL.Path)
        default:
            writeProblem(w, http.StatusInternalServerError, "Remove failed", err.Error(), r.URL.Path)
        }
        return
    }
    s.Broker.Publish(sess.ID, PlanEvent{Type: "load.removed", Data: map[string]any{"planKey": key.String(), "loadId": loadID}})
    w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bindVehicle(w http.ResponseWriter, r *http.Request, sess *plan.Session, key plan.PlanKey) {
    var req struct {
        VehicleID string `json:"vehicleId"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    v, ok := sess.VehicleByID(req.VehicleID)
    if !ok {
        writeProblem(w, http.StatusNotFound, "Vehicle not found", "unknown vehicle id "+req.VehicleID, r.URL.Path)
        return
    }
    sess.SetVehicle(key, v)
    writeJSON(w, 200, map[string]any{"planKey": key.String(), "vehicle": v})
}

func (s *Server) optimizePlan(w http.ResponseWriter, r *http.Request, sess *plan.Session, key plan.PlanKey) {
    if err := sess.Optimize(key); err != nil {
        writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
        return
    }
    sum, _ := sess.Summary(key)
    s.Broker.Publish(sess.ID, PlanEvent{Type: "plan.optimized", Data: map[string]any{"planKey": key.String()}})
    writeJSON(w, 200, map[string]any{"planKey": key.String(), "summary": sum})
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request, sess *plan.Session) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req struct {
        PlanKey string `json:"planKey"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    key, err := plan.ParsePlanKey(req.PlanKey)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid plan key", err.Error(), r.URL.Path)
        return
    }
    sess.SetActive(key)
    writeJSON(w, 200, map[string]any{"activeKey": key.String()})
}

func (s *Server) autoplace(w http.ResponseWriter, r *http.Request, sess *plan.Session) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req struct {
        LoadID string `json:"loadId"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LoadID == "" {
        writeProblem(w, http.StatusBadRequest, "Invalid request", "loadId required", r.URL.Path)
        return
    }
    res, err := sess.AutoPlace(r.Context(), req.LoadID, s.Market)
    if err != nil {
        switch {
        case errors.Is(err, plan.ErrLoadNotFound):
            metrics.AutoplaceOutcomes.WithLabelValues("load_not_found").Inc()
            writeProblem(w, http.StatusNotFound, "Load not found", req.LoadID, r.URL.Path)
        case errors.Is(err, plan.ErrNoCapacityAvailable):
            metrics.AutoplaceOutcomes.WithLabelValues("no_capacity").Inc()
            writeProblem(w, http.StatusConflict, "No capacity available", "no vehicle fits the load", r.URL.Path)
        case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
            return
        default:
            writeProblem(w, http.StatusBadGateway, "Shipment lookup failed", err.Error(), r.URL.Path)
        }
        return
    }
    metrics.AutoplaceOutcomes.WithLabelValues(res.Status).Inc()
    if res.Status == "placed" {
        s.Broker.Publish(sess.ID, PlanEvent{Type: "load.inserted", Data: map[string]any{"planKey": res.PlanKey.String(), "loadId": res.LoadID}})
    }
    writeJSON(w, 200, res)
}

func (s *Server) suggestions(w http.ResponseWriter, r *http.Request, sess *plan.Session) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    driverID := r.URL.Query().Get("driverId")
    if driverID == "" {
        writeProblem(w, http.StatusBadRequest, "Missing driverId", "", r.URL.Path)
        return
    }
    corridor, err := s.Market.Corridor(r.Context(), driverID)
    if err != nil {
        writeProblem(w, http.StatusBadGateway, "Corridor lookup failed", err.Error(), r.URL.Path)
        return
    }
    sess.SetCorridor(driverID, corridor)
    if corridor == nil {
        writeJSON(w, 200, map[string]any{"corridor": nil, "loads": []model.Load{}})
        return
    }
    candidates, err := s.Market.CorridorLoads(r.Context(), driverID)
    if err != nil {
        writeProblem(w, http.StatusBadGateway, "Corridor loads lookup failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, 200, map[string]any{"corridor": corridor, "loads": plan.BackhaulMatches(corridor, candidates)})
}

func (s *Server) savePlans(w http.ResponseWriter, r *http.Request, sess *plan.Session, p Principal) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    req, err := sess.Serialize()
    if err != nil {
        if errors.Is(err, plan.ErrNothingToSave) {
            writeProblem(w, http.StatusConflict, "Nothing to save", "all plans are empty", r.URL.Path)
            return
        }
        writeProblem(w, http.StatusInternalServerError, "Serialize failed", err.Error(), r.URL.Path)
        return
    }
    batchID, err := s.Store.SavePlans(r.Context(), p.Carrier, req)
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Save failed", err.Error(), r.URL.Path)
        return
    }
    metrics.PlanSaves.Inc()
    s.Pub.Emit(r.Context(), p.Carrier, webhooks.EventPlanSaved, map[string]any{"batchId": batchID, "plans": len(req.Plans)})
    s.Broker.Publish(sess.ID, PlanEvent{Type: "plan.saved", Data: map[string]any{"batchId": batchID}})
    writeJSON(w, http.StatusCreated, map[string]any{"batchId": batchID, "plans": len(req.Plans)})
}

func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, sess *plan.Session) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        writeProblem(w, 500, "Streaming unsupported", "", r.URL.Path)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    ch := s.Broker.Subscribe(sess.ID)
    defer s.Broker.Unsubscribe(sess.ID, ch)
    fmt.Fprintf(w, "event: heartbeat\n")
    fmt.Fprintf(w, "data: {\"sessionId\":\"%s\",\"ts\":\"%s\"}\n\n", sess.ID, time.Now().Format(time.RFC3339))
    flusher.Flush()
    for {
        select {
        case <-r.Context().Done():
            return
        case evt, ok := <-ch:
            if !ok { return }
            b, _ := json.Marshal(evt.Data)
            fmt.Fprintf(w, "event: %s\n", evt.Type)
            fmt.Fprintf(w, "data: %s\n\n", string(b))
            flusher.Flush()
        }
    }
}

// OffersHandler handles POST /v1/offers
func (s *Server) OffersHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.canPlan() { writeProblem(w, 403, "Forbidden", "planning role required", r.URL.Path); return }
    var req model.OfferRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validateOfferRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
        return
    }
    if err := s.Market.SubmitOffer(r.Context(), req); err != nil {
        var apiErr *market.APIError
        if errors.As(err, &apiErr) {
            writeProblem(w, apiErr.Status, "Offer rejected", apiErr.Message, r.URL.Path)
            return
        }
        writeProblem(w, http.StatusBadGateway, "Offer submission failed", err.Error(), r.URL.Path)
        return
    }
    s.Pub.Emit(r.Context(), p.Carrier, webhooks.EventOfferSubmitted, map[string]any{"loadId": req.LoadID, "price": req.Price})
    writeJSON(w, http.StatusAccepted, map[string]any{"loadId": req.LoadID, "status": "submitted"})
}

// PlansHandler handles GET /v1/plans and GET /v1/plans/{id}
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    rest := strings.TrimPrefix(r.URL.Path, "/v1/plans")
    rest = strings.TrimPrefix(rest, "/")
    if rest != "" {
        b, err := s.Store.GetSavedBatch(r.Context(), p.Carrier, rest)
        if err != nil {
            writeProblem(w, http.StatusNotFound, "Batch not found", "", r.URL.Path)
            return
        }
        writeJSON(w, 200, b)
        return
    }
    cursor := r.URL.Query().Get("cursor")
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListSavedBatches(r.Context(), p.Carrier, cursor, limit)
    if err != nil {
        writeProblem(w, 500, "List plans failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    switch r.Method {
    case http.MethodPost:
        var req model.SubscriptionRequest
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if req.CarrierID == "" { req.CarrierID = p.Carrier }
        if err := validateSubscriptionRequest(&req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
            return
        }
        sub, err := s.Store.CreateSubscription(r.Context(), req)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, sub)
    case http.MethodGet:
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListSubscriptions(r.Context(), p.Carrier, cursor, limit)
        if err != nil { writeProblem(w, 500, "List subscriptions failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodDelete { w.WriteHeader(405); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
    if err := s.Store.DeleteSubscription(r.Context(), p.Carrier, id); err != nil {
        writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
        return
    }
    w.WriteHeader(204)
}

// WebhookDLQHandler handles GET /v1/admin/webhook-dlq
func (s *Server) WebhookDLQHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, err := s.Store.ListWebhookDLQ(r.Context(), p.Carrier, limit)
    if err != nil {
        writeProblem(w, 500, "List DLQ failed", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, 200, map[string]any{"items": items})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    type pinger interface{ Ping(ctx context.Context) error }
    if pg, ok := s.Store.(pinger); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        defer cancel()
        if err := pg.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}

func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, buildinfo.Info())
}
