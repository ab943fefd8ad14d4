package api

import (
    "sync"
)

// PlanEvent is one planner notification fanned out to session listeners.
type PlanEvent struct {
    Type string         `json:"type"`
    Data map[string]any `json:"data"`
}

type EventBroker interface {
    Subscribe(sessionID string) chan PlanEvent
    Unsubscribe(sessionID string, ch chan PlanEvent)
    Publish(sessionID string, evt PlanEvent)
}

// Broker is the in-process fanout, one subscriber set per session.
type Broker struct {
    mu   sync.Mutex
    subs map[string]map[chan PlanEvent]struct{}
}

func NewBroker() *Broker {
    return &Broker{subs: map[string]map[chan PlanEvent]struct{}{}}
}

func (b *Broker) Subscribe(sessionID string) chan PlanEvent {
    ch := make(chan PlanEvent, 8)
    b.mu.Lock()
    if b.subs[sessionID] == nil { b.subs[sessionID] = map[chan PlanEvent]struct{}{} }
    b.subs[sessionID][ch] = struct{}{}
    b.mu.Unlock()
    return ch
}

func (b *Broker) Unsubscribe(sessionID string, ch chan PlanEvent) {
    b.mu.Lock()
    if m := b.subs[sessionID]; m != nil {
        delete(m, ch)
        if len(m) == 0 { delete(b.subs, sessionID) }
    }
    b.mu.Unlock()
    close(ch)
}

// Publish drops the event for any subscriber whose buffer is full; a slow
// listener must not stall the planner.
func (b *Broker) Publish(sessionID string, evt PlanEvent) {
    b.mu.Lock()
    for ch := range b.subs[sessionID] {
        select { case ch <- evt: default: }
    }
    b.mu.Unlock()
}
