package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient implements Client against the payment provider's REST API.
// The provider's object model maps one-to-one onto the Authorization types
// here; anything richer it returns is ignored.
type HTTPClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewHTTPClient(baseURL, secretKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) GetAuthorization(ctx context.Context, id string) (*Authorization, error) {
	var auth Authorization
	if err := c.do(ctx, http.MethodGet, "/v1/authorizations/"+id, nil, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (c *HTTPClient) ConfirmAuthorization(ctx context.Context, id string) (*Authorization, error) {
	var auth Authorization
	if err := c.do(ctx, http.MethodPost, "/v1/authorizations/"+id+"/confirm", nil, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (c *HTTPClient) CaptureAuthorization(ctx context.Context, id string) (*Authorization, error) {
	var auth Authorization
	if err := c.do(ctx, http.MethodPost, "/v1/authorizations/"+id+"/capture", nil, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (c *HTTPClient) CancelAuthorization(ctx context.Context, id string) (*Authorization, error) {
	var auth Authorization
	if err := c.do(ctx, http.MethodPost, "/v1/authorizations/"+id+"/cancel", nil, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (c *HTTPClient) CreateAndConfirmAuthorization(ctx context.Context, params CreateAuthorizationParams) (*Authorization, error) {
	body := map[string]any{
		"amount":            params.Amount,
		"currency":          params.Currency,
		"customer_id":       params.CustomerID,
		"payment_method_id": params.PaymentMethodID,
		"metadata":          params.Metadata,
		"confirm":           true,
	}
	var auth Authorization
	if err := c.do(ctx, http.MethodPost, "/v1/authorizations", body, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (c *HTTPClient) CreateRefund(ctx context.Context, authorizationID string, amount int64, metadata map[string]string) (*Refund, error) {
	body := map[string]any{
		"authorization_id": authorizationID,
		"metadata":         metadata,
	}
	if amount > 0 {
		body["amount"] = amount
	}
	var refund Refund
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", body, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (c *HTTPClient) ReverseTransfer(ctx context.Context, transferID string, amount int64, metadata map[string]string) (*Reversal, error) {
	body := map[string]any{
		"amount":   amount,
		"metadata": metadata,
	}
	var reversal Reversal
	if err := c.do(ctx, http.MethodPost, "/v1/transfers/"+transferID+"/reversals", body, &reversal); err != nil {
		return nil, err
	}
	return &reversal, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("gateway: encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("gateway: %s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("gateway: %s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("gateway: decode response: %w", err)
		}
	}
	return nil
}
