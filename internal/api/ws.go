package api

import (
    "net/http"
    "sync"
    "time"

    "github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
    Type      string    `json:"type"`
    SessionID string    `json:"sessionId,omitempty"`
    Event     *PlanEvent `json:"event,omitempty"`
    Error     string    `json:"error,omitempty"`
}

// PlannerWSHandler handles GET /v1/planner/ws. The client subscribes to a
// session and receives the same events the SSE stream carries.
func (s *Server) PlannerWSHandler(w http.ResponseWriter, r *http.Request) {
    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        return
    }
    defer func() { _ = conn.Close() }()

    p := s.getPrincipal(r)

    conn.SetReadLimit(1 << 20)
    _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
    conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

    var writeMu sync.Mutex
    write := func(v any) error {
        writeMu.Lock()
        defer writeMu.Unlock()
        return conn.WriteJSON(v)
    }

    type subState struct {
        sessionID string
        ch        chan PlanEvent
    }
    var sub *subState
    done := make(chan struct{})
    defer func() {
        close(done)
        if sub != nil { s.Broker.Unsubscribe(sub.sessionID, sub.ch) }
    }()

    // keepalive
    go func() {
        ticker := time.NewTicker(20 * time.Second)
        defer ticker.Stop()
        for {
            select {
            case <-done:
                return
            case <-ticker.C:
                if err := write(wsMessage{Type: "ping"}); err != nil { return }
            }
        }
    }()

    for {
        var msg wsMessage
        if err := conn.ReadJSON(&msg); err != nil {
            return
        }
        _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
        switch msg.Type {
        case "ping":
            _ = write(wsMessage{Type: "pong"})
        case "pong":
        case "subscribe":
            if msg.SessionID == "" {
                _ = write(wsMessage{Type: "error", Error: "sessionId required"})
                continue
            }
            sess, ok := s.Plans.Get(msg.SessionID)
            if !ok || sess.CarrierID != p.Carrier {
                _ = write(wsMessage{Type: "error", Error: "session not found"})
                continue
            }
            if sub != nil { s.Broker.Unsubscribe(sub.sessionID, sub.ch) }
            ch := s.Broker.Subscribe(msg.SessionID)
            sub = &subState{sessionID: msg.SessionID, ch: ch}
            _ = write(wsMessage{Type: "subscribed", SessionID: msg.SessionID})
            go func(id string, c chan PlanEvent) {
                for evt := range c {
                    e := evt
                    if err := write(wsMessage{Type: "event", SessionID: id, Event: &e}); err != nil {
                        return
                    }
                }
            }(msg.SessionID, ch)
        case "unsubscribe":
            if sub != nil {
                s.Broker.Unsubscribe(sub.sessionID, sub.ch)
                sub = nil
            }
        }
    }
}
