package paystack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresSecretKey(t *testing.T) {
	_, err := New(&Config{})
	require.Error(t, err)
}

func TestInitialize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code": "abc123",
				"reference": "pay_ref1"
			}
		}`))
	}))
	defer server.Close()

	client, err := New(&Config{SecretKey: "sk_test_secret", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := client.Initialize(context.Background(), &InitializeRequest{
		Email:     "guest@example.com",
		Amount:    decimal.NewFromInt(15750),
		Reference: "pay_ref1",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.paystack.com/abc123", result.AuthorizationURL)
	assert.Equal(t, "abc123", result.AccessCode)
	assert.Equal(t, "pay_ref1", result.Reference)
}

func TestInitializeGatewayDecline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "message": "Invalid amount"}`))
	}))
	defer server.Close()

	client, err := New(&Config{SecretKey: "sk_test_secret", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Initialize(context.Background(), &InitializeRequest{
		Email:     "guest@example.com",
		Amount:    decimal.NewFromInt(-1),
		Reference: "pay_bad",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid amount")
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/pay_ref1", r.URL.Path)

		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {"status": "success", "amount": 15750, "reference": "pay_ref1"}
		}`))
	}))
	defer server.Close()

	client, err := New(&Config{SecretKey: "sk_test_secret", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := client.Verify(context.Background(), "pay_ref1")
	require.NoError(t, err)

	assert.True(t, result.Successful())
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(15750)))
	assert.NotEmpty(t, result.Raw)
}

func TestVerifyFailedCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {"status": "failed", "amount": 15750}
		}`))
	}))
	defer server.Close()

	client, err := New(&Config{SecretKey: "sk_test_secret", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := client.Verify(context.Background(), "pay_ref2")
	require.NoError(t, err)
	assert.False(t, result.Successful())
}

func TestVerifyRetriesTransientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {"status": "success", "amount": 100}
		}`))
	}))
	defer server.Close()

	client, err := New(&Config{SecretKey: "sk_test_secret", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := client.Verify(context.Background(), "pay_flaky")
	require.NoError(t, err)
	assert.True(t, result.Successful())
	assert.Equal(t, 2, calls)
}

func TestVerifyHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(&Config{SecretKey: "sk_test_secret", BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Verify(ctx, "pay_cancelled")
	assert.ErrorIs(t, err, context.Canceled)
}
