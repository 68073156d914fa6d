// Package sink delivers batches of analytics actions downstream.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/johnwards/hubsync/internal/domain"
)

// Sink accepts a batch of analytics actions. Delivery is at-most-once; the
// downstream endpoint sends no acknowledgment beyond the HTTP status.
type Sink interface {
	Accept(ctx context.Context, actions []*domain.Action) error
}

// HTTPSink posts action batches as JSON to the analytics endpoint,
// attributed to one tenant by its API key.
type HTTPSink struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSink creates an HTTPSink for one tenant.
func NewHTTPSink(url, apiKey string) *HTTPSink {
	return &HTTPSink{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type batchPayload struct {
	APIKey  string           `json:"apiKey"`
	Actions []*domain.Action `json:"actions"`
}

// Accept posts one batch. Any non-2xx status is an error; the batch is not
// retried by the sink.
func (s *HTTPSink) Accept(ctx context.Context, actions []*domain.Action) error {
	payload, err := json.Marshal(batchPayload{APIKey: s.apiKey, Actions: actions})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post batch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post batch: status %d", resp.StatusCode)
	}
	return nil
}
