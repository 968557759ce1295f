// Package relay implements the client for the mint relay service, which
// submits the destination-chain mint on the user's behalf so the user needs
// no destination gas funds.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/ports"
)

// Client talks to the relay's mint endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the given relay base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type mintRequest struct {
	Message     domain.HexBytes `json:"message"`
	Attestation domain.HexBytes `json:"attestation"`
}

type mintResponse struct {
	TxHash  string `json:"tx_hash"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Mint asks the relay to submit the destination mint for the attested burn.
// A relay rejection is returned as *ports.RelayError so callers can branch on
// the machine-readable code; it is an ordinary retryable failure.
func (c *Client) Mint(ctx context.Context, attestation domain.Attestation) (string, error) {
	payload, err := json.Marshal(mintRequest{
		Message:     attestation.Message,
		Attestation: attestation.Proof,
	})
	if err != nil {
		return "", fmt.Errorf("marshal mint request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/mint", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build mint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call relay: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read relay response (status %d): %w", resp.StatusCode, err)
	}

	// Gateways and proxies answer errors with empty or non-JSON bodies;
	// decode failures on a non-200 still map to a coded RelayError.
	var body mintResponse
	decodeErr := json.Unmarshal(raw, &body)

	if resp.StatusCode != http.StatusOK {
		code := body.Code
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		return "", &ports.RelayError{Code: code, Message: body.Message}
	}

	if decodeErr != nil {
		return "", fmt.Errorf("decode relay response: %w", decodeErr)
	}

	if body.TxHash == "" {
		return "", fmt.Errorf("relay returned success without a transaction hash")
	}
	return body.TxHash, nil
}
