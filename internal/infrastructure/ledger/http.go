package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const gatewayTimeout = 20 * time.Second

var defaultGatewayClient = &http.Client{Timeout: gatewayTimeout}

// HTTPClient is a Recorder backed by a ledger gateway's JSON API. It is never mutated
// after construction, so one value serves concurrent requests.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPClient returns a gateway client with its own timeout-bound http.Client.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, APIKey: apiKey, Client: &http.Client{Timeout: gatewayTimeout}}
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return defaultGatewayClient
}

type gatewayResponse struct {
	TxHash      string    `json:"txHash"`
	TxHashSnake string    `json:"tx_hash"`
	Account     string    `json:"account"`
	RecordedAt  time.Time `json:"recordedAt"`
}

func (c *HTTPClient) RecordDonation(ctx context.Context, entry DonationEntry) (*Receipt, error) {
	return c.post(ctx, "/v1/donations", entry)
}

func (c *HTTPClient) ReleasePayment(ctx context.Context, entry PayoutEntry) (*Receipt, error) {
	return c.post(ctx, "/v1/payouts", entry)
}

func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}) (*Receipt, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("ledger: LEDGER_URL is not set")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ledger error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var data gatewayResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("ledger response decode: %w", err)
	}
	hash := data.TxHash
	if hash == "" {
		hash = data.TxHashSnake
	}
	if hash == "" {
		return nil, fmt.Errorf("ledger returned no tx hash, body: %s", string(respBody))
	}
	recordedAt := data.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	return &Receipt{TxHash: hash, Account: data.Account, RecordedAt: recordedAt}, nil
}
