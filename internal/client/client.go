// Package client is a Go client for the flight delay prediction service.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flight-delay/internal/flights"
	"flight-delay/internal/server"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("delay service: %d %s", e.StatusCode, e.Detail)
}

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// Health returns the status reported by GET /health.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out flights.HealthResponse
	if err := c.do(ctx, resty.MethodGet, "/health", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// Predict returns one delay label per flight, in input order.
func (c *Client) Predict(ctx context.Context, in []flights.FlightInput) ([]int, error) {
	var out flights.PredictResponse
	if err := c.do(ctx, resty.MethodPost, "/predict", flights.PredictRequest{Flights: in}, &out); err != nil {
		return nil, err
	}
	return out.Predict, nil
}

// ModelInfo describes the model the service is running.
func (c *Client) ModelInfo(ctx context.Context) (*server.ModelInfo, error) {
	var out server.ModelInfo
	if err := c.do(ctx, resty.MethodGet, "/model/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var errResp flights.ErrorResponse

	req := c.rest.R().
		SetContext(ctx).
		SetHeader(server.RequestIDHeader, uuid.NewString()).
		SetResult(result).
		SetError(&errResp)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		detail := errResp.Detail
		if detail == "" {
			detail = strings.TrimSpace(resp.String())
		}
		return &APIError{StatusCode: resp.StatusCode(), Detail: detail}
	}
	return nil
}
