package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zombor/receipt-scan/internal/retry"
)

// Retry schedule for model calls: waits of 2s, 4s and 8s
const (
	InitialRetryDelay = 2 * time.Second
	RetryMultiplier   = 2
	MaxRetries        = 3
)

// DefaultRetryPolicy retries transient model failures with exponential backoff
func DefaultRetryPolicy() retry.Policy {
	return retry.Policy{
		InitialDelay: InitialRetryDelay,
		Multiplier:   RetryMultiplier,
		MaxRetries:   MaxRetries,
		Retryable:    IsTransient,
	}
}

// Client implements Scanner on top of a model Backend
type Client struct {
	backend     Backend
	policy      retry.Policy
	idGenerator IDGenerator
}

// NewClient creates a Client with the default retry policy and UUID identifiers
func NewClient(backend Backend) *Client {
	return NewClientWithDeps(backend, DefaultRetryPolicy(), UUIDGenerator{})
}

// NewClientWithDeps creates a Client with custom dependencies for testing
func NewClientWithDeps(backend Backend, policy retry.Policy, idGen IDGenerator) *Client {
	return &Client{
		backend:     backend,
		policy:      policy,
		idGenerator: idGen,
	}
}

// ScanReceipt sends f to the model and parses the answer. Shaping, the call
// and parsing are retried together while failures stay transient.
func (c *Client) ScanReceipt(ctx context.Context, f File) (*ReceiptData, error) {
	if len(f.Data) == 0 {
		return nil, fmt.Errorf("scanning %s: %w", f.Name, ErrEmptyFile)
	}

	start := time.Now()
	data, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*ReceiptData, error) {
		req := prepareRequest(f)
		text, err := c.backend.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("generating content: %w", err)
		}
		return parseReceiptJSON(text)
	})
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", f.Name,
			"kind", f.Kind().String(),
			"file_size", len(f.Data),
			"error_kind", Kind(err),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	data.ID = c.idGenerator.Generate()
	slog.Info("Scanned receipt",
		"filename", f.Name,
		"id", data.ID,
		"category", data.CatNumber,
		"currency", data.OriginalCurrency,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

// Close closes the backend
func (c *Client) Close() error {
	return c.backend.Close()
}
