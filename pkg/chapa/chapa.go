package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnreachable marks transport-level failures: the provider could
// not be reached or did not answer in time. It is distinct from
// *APIError, which means the provider answered and rejected the
// transaction. Callers must not treat the two the same way.
var ErrUnreachable = errors.New("payment gateway unreachable")

// APIError is a non-success response reported by the gateway itself.
type APIError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway rejected request (http %d, status %q): %s", e.HTTPStatus, e.Status, e.Message)
}

// Config holds gateway connection details.
type Config struct {
	BaseURL   string
	SecretKey string
	// Timeout bounds each gateway call. Zero means the default of 15s;
	// calls are never unbounded.
	Timeout time.Duration
}

// Client talks to a Chapa-style payment provider over HTTP with
// bearer-token authentication. Both operations are synchronous,
// one-shot calls with a bounded timeout and no retries.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewClient creates a new gateway client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// InitializeRequest is the payload for transaction initialization.
type InitializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url"`
}

// Response is the gateway's envelope: {status, message, data:{...}}.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeResult carries the checkout URL plus the raw envelope so
// handlers can return the untouched gateway response to clients.
type InitializeResult struct {
	CheckoutURL string
	Raw         Response
}

// VerifyResult carries the reconciliation fields plus the raw envelope.
type VerifyResult struct {
	Status        string // envelope status: "success" or not
	TransactionID string // gateway-side transaction id
	Raw           Response
}

// Initialize starts a transaction with the provider and returns the
// hosted checkout URL the customer should be redirected to.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize payload: %w", err)
	}

	envelope, httpStatus, err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if envelope.Status != "success" {
		return nil, &APIError{HTTPStatus: httpStatus, Status: envelope.Status, Message: envelope.Message}
	}

	var data struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode initialize data: %w", err)
		}
	}
	return &InitializeResult{CheckoutURL: data.CheckoutURL, Raw: *envelope}, nil
}

// Verify asks the provider for the final state of a transaction.
// A non-success envelope is not an error here: it is the provider's
// answer that the transaction did not succeed, which the caller
// records as a failed payment.
func (c *Client) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	envelope, _, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+txRef, nil)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Status: envelope.Status, Raw: *envelope}
	if len(envelope.Data) > 0 {
		var data struct {
			ID        json.Number `json:"id"`
			Reference string      `json:"reference"`
		}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode verify data: %w", err)
		}
		result.TransactionID = data.ID.String()
		if result.TransactionID == "" {
			result.TransactionID = data.Reference
		}
	}
	return result, nil
}

// do performs one HTTP round trip and decodes the gateway envelope.
// Transport failures come back wrapping ErrUnreachable.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*Response, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: invalid response body: %v", ErrUnreachable, err)
	}
	return &envelope, resp.StatusCode, nil
}
