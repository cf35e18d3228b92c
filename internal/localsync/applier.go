// Package localsync flushes the local mutation queue to the authoritative
// server in idempotent batches and reconciles the id mapping the server
// answers with back into the local store.
package localsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fitstack/liftsync/internal/domain"
)

// Applier is the server-side batch contract: apply the whole operation list
// atomically and return the durable id assigned to every tempId the batch
// introduced. Implementations must be idempotent per idempotency key.
type Applier interface {
	Apply(ctx context.Context, batch *domain.Batch) (*domain.BatchResponse, error)
}

// HTTPApplier posts batches to the sync endpoint.
type HTTPApplier struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewHTTPApplier builds an applier for baseURL. The timeout bounds the whole
// flush round trip; a request that exceeds it is failed-for-now, not assumed
// un-applied.
func NewHTTPApplier(baseURL, token string, timeout time.Duration) *HTTPApplier {
	return &HTTPApplier{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (a *HTTPApplier) Apply(ctx context.Context, batch *domain.Batch) (*domain.BatchResponse, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v1/sync/save", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", batch.IdempotencyKey)
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		// Transport failure. The batch may or may not have been applied;
		// replaying the same idempotency key is what makes the retry safe.
		return nil, fmt.Errorf("batch transport failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out domain.BatchResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode batch response: %w", err)
		}
		return &out, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("server refused batch (%d): %s: %w", resp.StatusCode, apiErr.Error, domain.ErrBatchRejected)
	default:
		return nil, fmt.Errorf("server unavailable (%d)", resp.StatusCode)
	}
}
