package api

import (
    "fmt"
    "strings"

    "freightops/internal/model"
    "freightops/internal/webhooks"
)

func validateInsertRequest(req *insertRequest) error {
    if req.Load == nil && req.LoadID == "" {
        return fmt.Errorf("loadId or load required")
    }
    if req.Load != nil {
        if req.Load.ID == "" {
            return fmt.Errorf("load.id required")
        }
        if req.Load.Weight < 0 || req.Load.Volume < 0 {
            return fmt.Errorf("load weight and volume must be >= 0")
        }
    }
    return nil
}

func validateOfferRequest(req *model.OfferRequest) error {
    if req.LoadID == "" {
        return fmt.Errorf("loadId required")
    }
    if req.Price <= 0 {
        return fmt.Errorf("price must be > 0")
    }
    return nil
}

func validateSubscriptionRequest(req *model.SubscriptionRequest) error {
    if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
        return fmt.Errorf("url must be http(s)")
    }
    if len(req.Events) == 0 {
        return fmt.Errorf("at least one event required")
    }
    allowed := map[string]struct{}{webhooks.EventPlanSaved: {}, webhooks.EventOfferSubmitted: {}}
    for _, e := range req.Events {
        if _, ok := allowed[e]; !ok {
            return fmt.Errorf("unknown event: %s (allowed: %s, %s)", e, webhooks.EventPlanSaved, webhooks.EventOfferSubmitted)
        }
    }
    return nil
}
