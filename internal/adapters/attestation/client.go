// Package attestation implements the client for the off-chain attestation
// service that certifies source-chain burns.
package attestation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/logging"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
)

// Attestation service statuses. Anything else is treated as still pending.
const (
	statusComplete = "complete"
	statusFailed   = "failed"
)

const defaultPollInterval = 5 * time.Second

// Client polls the attestation service for a burn's signed proof.
type Client struct {
	baseURL    string
	httpClient *http.Client
	interval   time.Duration
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPollInterval overrides the polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.interval = d
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the given service base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		interval:   defaultPollInterval,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type attestationResponse struct {
	Status      string          `json:"status"`
	Message     domain.HexBytes `json:"message"`
	Attestation domain.HexBytes `json:"attestation"`
}

// Await polls the service at a fixed cadence until the attestation for the
// burn transaction reaches a terminal status or a transport error occurs.
// The engine imposes no timeout; callers bound the wait via ctx.
func (c *Client) Await(ctx context.Context, burnTxHash string) (domain.Attestation, error) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		res, err := c.fetch(ctx, burnTxHash)
		if err != nil {
			return domain.Attestation{}, err
		}

		switch res.Status {
		case statusComplete:
			return domain.Attestation{
				Message: res.Message,
				Proof:   res.Attestation,
			}, nil
		case statusFailed:
			return domain.Attestation{}, fmt.Errorf("attestation service reported failure for %s", burnTxHash)
		}

		c.logger.Debug("attestation pending",
			"burn_tx_hash", burnTxHash,
			"status", res.Status,
		)

		select {
		case <-ctx.Done():
			return domain.Attestation{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) fetch(ctx context.Context, burnTxHash string) (attestationResponse, error) {
	url := fmt.Sprintf("%s/v1/attestations/%s", c.baseURL, burnTxHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return attestationResponse{}, fmt.Errorf("build attestation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attestationResponse{}, fmt.Errorf("query attestation service: %w", err)
	}
	defer resp.Body.Close()

	// A burn not yet observed by the service shows up as 404; that is an
	// ordinary pending state, not an error.
	if resp.StatusCode == http.StatusNotFound {
		return attestationResponse{Status: "pending_confirmations"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return attestationResponse{}, fmt.Errorf("attestation service returned status %d", resp.StatusCode)
	}

	var body attestationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return attestationResponse{}, fmt.Errorf("decode attestation response: %w", err)
	}
	return body, nil
}
