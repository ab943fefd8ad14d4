// Package api implements the HTTP surface of the freightops planner.
package api

import (
    "net/http"
    "strings"
)

type Principal struct {
    Carrier  string
    Role     string // admin, dispatcher, driver
    DriverID string
}

// getPrincipal extracts the carrier principal from the request.
// With a Bearer token the configured verifier decides (dev/hmac/jwks);
// otherwise headers act as a dev fallback.
func (s *Server) getPrincipal(r *http.Request) Principal {
    authz := r.Header.Get("Authorization")
    if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
        tok := strings.TrimSpace(authz[len("Bearer "):])
        if pr, err := s.Auth.Verify(tok); err == nil {
            return Principal{Carrier: pr.Carrier, Role: pr.Role, DriverID: pr.DriverID}
        }
    }
    carrier := r.Header.Get("X-Carrier-Id")
    role := r.Header.Get("X-Role")
    driverID := r.Header.Get("X-Driver-Id")
    if carrier == "" { carrier = "car_demo" }
    if role == "" { role = "dispatcher" }
    return Principal{Carrier: carrier, Role: role, DriverID: driverID}
}

func (p Principal) IsAdmin() bool { return p.Role == "admin" }

// canPlan reports whether the principal may mutate planning sessions.
func (p Principal) canPlan() bool {
    return p.Role == "admin" || p.Role == "dispatcher" || p.Role == "driver"
}
