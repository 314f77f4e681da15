package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Backend is the outbound RPC surface of the external custodial payment
// service. Responses use backend-specific field names; callers must run them
// through Normalize rather than assume a shape.
type Backend interface {
	PayRecipient(ctx context.Context, req TransferRequest) (map[string]any, error)
	SimulatePayment(ctx context.Context, req TransferRequest) (map[string]any, error)

	// ConfirmIntent confirms a previously created backend-side intent.
	//
	// Deprecated: legacy compatibility path. Prefer PayRecipient.
	ConfirmIntent(ctx context.Context, backendIntentID string) (map[string]any, error)
}

type TransferRequest struct {
	WalletID  string  `json:"wallet_id"`
	ToAddress string  `json:"to_address"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// Client is the HTTP implementation of Backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) PayRecipient(ctx context.Context, req TransferRequest) (map[string]any, error) {
	return c.post(ctx, "/v1/payments", req)
}

func (c *Client) SimulatePayment(ctx context.Context, req TransferRequest) (map[string]any, error) {
	return c.post(ctx, "/v1/payments/simulate", req)
}

// ConfirmIntent implements the deprecated confirmation path for intents the
// backend already holds.
func (c *Client) ConfirmIntent(ctx context.Context, backendIntentID string) (map[string]any, error) {
	return c.post(ctx, "/v1/payment_intents/"+backendIntentID+"/confirm", struct{}{})
}

func (c *Client) post(ctx context.Context, path string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	result := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("decode %s response (status %d): %w", path, resp.StatusCode, err)
		}
	}
	// 4xx/5xx bodies still carry the backend's status/message fields; the
	// normalizer turns them into a failed result rather than losing them.
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Warn("payment backend server error", "path", path, "status", resp.StatusCode)
	}
	if _, ok := result["status"]; !ok && resp.StatusCode >= http.StatusBadRequest {
		result["status"] = "failed"
		if _, ok := result["message"]; !ok {
			result["message"] = fmt.Sprintf("backend returned HTTP %d", resp.StatusCode)
		}
	}
	return result, nil
}
