package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"freightops/internal/model"
)

// Client talks to the upstream freight marketplace API. Every call is
// context-bound and rate-limited; failures surface the server-supplied
// message when one is available and never touch planner state.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	limiter *rate.Limiter
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// APIError carries the upstream status and message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("marketplace: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("marketplace: request failed with status %d", e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("marketplace: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var pb struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&pb)
		msg := pb.Message
		if msg == "" {
			msg = pb.Detail
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Vehicles fetches the carrier's vehicle snapshots.
func (c *Client) Vehicles(ctx context.Context, carrierID string) ([]model.Vehicle, error) {
	var res struct {
		Items []model.Vehicle `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/carriers/"+carrierID+"/vehicles", nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Loads fetches the open loads visible to the carrier.
func (c *Client) Loads(ctx context.Context, carrierID string) ([]model.Load, error) {
	var res struct {
		Items []model.Load `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/carriers/"+carrierID+"/loads", nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Drivers fetches the carrier's drivers.
func (c *Client) Drivers(ctx context.Context, carrierID string) ([]model.Driver, error) {
	var res struct {
		Items []model.Driver `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/carriers/"+carrierID+"/drivers", nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Corridor resolves a driver's current directional corridor from their
// active assignment. A driver with no active load yields (nil, nil).
func (c *Client) Corridor(ctx context.Context, driverID string) (*model.Corridor, error) {
	var res struct {
		Corridor *model.Corridor `json:"corridor"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/drivers/"+driverID+"/corridor", nil, &res)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return res.Corridor, nil
}

// CorridorLoads fetches candidate backhaul loads for a driver's corridor.
func (c *Client) CorridorLoads(ctx context.Context, driverID string) ([]model.Load, error) {
	var res struct {
		Items []model.Load `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/drivers/"+driverID+"/corridor/loads", nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ShipmentDetail fetches full detail for a load outside the known set,
// including the optional vehicle hints used by deep-link placement.
// Satisfies plan.LoadResolver.
func (c *Client) ShipmentDetail(ctx context.Context, loadID string) (*model.Load, *model.VehicleHints, error) {
	var res struct {
		Load  *model.Load         `json:"load"`
		Hints *model.VehicleHints `json:"vehicleHints"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/shipments/"+loadID, nil, &res); err != nil {
		return nil, nil, err
	}
	return res.Load, res.Hints, nil
}

// SubmitOffer places a bid on a load, optionally naming a driver for
// auto-assignment on acceptance.
func (c *Client) SubmitOffer(ctx context.Context, req model.OfferRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/offers", req, nil)
}
