package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"residence-booking/utils"
)

type Config struct {
	SecretKey   string `json:"secretKey" mapstructure:"secret_key"`
	BaseURL     string `json:"baseUrl" mapstructure:"base_url"`
	CallbackURL string `json:"callbackUrl" mapstructure:"callback_url"`
}

type Client struct {
	// baseURL is the base url of the Paystack API.
	baseURL string

	// secretKey authenticates API calls and keys webhook signatures.
	secretKey string

	// callbackURL is where Paystack redirects the payer after checkout.
	callbackURL string

	// breaker trips when the gateway keeps failing.
	breaker *utils.CircuitBreaker

	// hc is the http client.
	hc *http.Client
}

// New creates a new Paystack client.
func New(cfg *Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("paystack: secret key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}

	return &Client{
		baseURL:     baseURL,
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		breaker:     utils.NewCircuitBreaker("paystack"),

		hc: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

type InitializeRequest struct {
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Callback  string          `json:"callback_url,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Initialize starts a hosted checkout for the given reference and returns the
// authorization handle the payer is redirected to.
func (c *Client) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	if req.Callback == "" {
		req.Callback = c.callbackURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("paystack initialize: marshal: %w", err)
	}

	result, err := c.breaker.Execute(ctx, func() (any, error) {
		return c.post(ctx, "/transaction/initialize", body)
	})
	if err != nil {
		return nil, err
	}

	var out InitializeResult
	if err := json.Unmarshal(result.([]byte), &out); err != nil {
		return nil, fmt.Errorf("paystack initialize: decode data: %w", err)
	}
	return &out, nil
}

type VerifyResult struct {
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
	Raw    json.RawMessage `json:"-"`
}

// Successful reports whether the gateway settled the charge.
func (v *VerifyResult) Successful() bool {
	return v.Status == "success"
}

// Verify polls the gateway for the state of a reference. It is an idempotent
// read, so transient failures are retried with limited backoff.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var lastErr error
	backOff := time.Second

	for attempt := 0; attempt < 3; attempt++ {
		result, err := c.breaker.Execute(ctx, func() (any, error) {
			return c.get(ctx, "/transaction/verify/"+reference)
		})
		if err == nil {
			data := result.([]byte)
			var out VerifyResult
			if err := json.Unmarshal(data, &out); err != nil {
				return nil, fmt.Errorf("paystack verify: decode data: %w", err)
			}
			out.Raw = json.RawMessage(data)
			return &out, nil
		}

		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backOff):
			backOff *= 2
		}
	}

	return nil, lastErr
}

type apiReply struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("paystack: http.NewRequest: %w", err)
	}
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("paystack: http.NewRequest: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack: http.Do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paystack: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paystack: status %d: %s", resp.StatusCode, raw)
	}

	var reply apiReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("paystack: json.Decode: %w", err)
	}
	if !reply.Status {
		return nil, fmt.Errorf("paystack: reply.Status: false, reply.Message: %s", reply.Message)
	}

	return reply.Data, nil
}
