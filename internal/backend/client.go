package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIError is any non-2xx answer from the marketplace backend.
type APIError struct {
	StatusCode int
	Op         string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s failed: status %d: %s", e.Op, e.StatusCode, e.Message)
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is the shared REST client for the marketplace backend. All calls
// carry the bearer token and a request id, run through an instrumented
// transport and a circuit breaker.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "marketplace-backend",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Client-side rejections must not open the breaker.
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %v -> %v", name, from, to)
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// do runs one JSON round trip through the breaker. out may be nil when the
// response body is not needed.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	op := fmt.Sprintf("%s %s", method, path)

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if in != nil {
			data, errMarshal := json.Marshal(in)
			if errMarshal != nil {
				return nil, fmt.Errorf("failed to marshal request: %w", errMarshal)
			}
			reqBody = bytes.NewReader(data)
		}

		req, errReq := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if errReq != nil {
			return nil, fmt.Errorf("failed to build request: %w", errReq)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, errDo := c.http.Do(req)
		if errDo != nil {
			return nil, fmt.Errorf("request failed: %w", errDo)
		}
		defer resp.Body.Close()

		data, errRead := io.ReadAll(resp.Body)
		if errRead != nil {
			return nil, fmt.Errorf("failed to read response: %w", errRead)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Op:         op,
				Message:    errorMessage(data),
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
