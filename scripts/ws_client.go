// Package main runs a demo WebSocket client for planner events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Open a planning session
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/planner/sessions", nil)
	req.Header.Set("X-Carrier-Id", "car_demo")
	req.Header.Set("X-Role", "dispatcher")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var created struct {
		ID       string   `json:"id"`
		Warnings []string `json:"warnings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		log.Fatal(err)
	}
	log.Printf("Session ID: %s (warnings: %v)", created.ID, created.Warnings)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/planner/ws"}
	hdr := http.Header{}
	hdr.Set("X-Carrier-Id", "car_demo")
	hdr.Set("X-Role", "dispatcher")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "subscribe", SessionID: created.ID}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Event))
		}
	}()

	// Trigger an event via an insert
	time.Sleep(500 * time.Millisecond)
	body := []byte(`{"load":{"id":"demo1","pickupAddress":"12 Quai","deliveryAddress":"3 Rue","weightKg":100,"volumeM3":1,"price":250},"vehicleId":"veh1"}`)
	insReq, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/v1/planner/sessions/%s/plans/unassigned/loads", base, created.ID), bytes.NewReader(body))
	insReq.Header.Set("Content-Type", "application/json")
	insReq.Header.Set("X-Carrier-Id", "car_demo")
	insReq.Header.Set("X-Role", "dispatcher")
	_, _ = http.DefaultClient.Do(insReq)

	// Wait briefly to receive a few messages
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
