package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residence-booking/internal/services/paystack"
	"residence-booking/internal/status"
	"residence-booking/monitoring"
)

func webhookService(t *testing.T) *PaymentService {
	t.Helper()
	gateway, err := paystack.New(&paystack.Config{SecretKey: "sk_test_secret"})
	require.NoError(t, err)
	return NewPaymentService(nil, gateway, nil, monitoring.NewMonitor())
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc := webhookService(t)

	body := []byte(`{"event":"charge.success","data":{"reference":"pay_abc"}}`)
	err := svc.HandleWebhook(context.Background(), body, "deadbeef")

	var sigErr *status.SignatureError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, "paystack", sigErr.Provider)
}

func TestHandleWebhookRejectsMissingSignature(t *testing.T) {
	svc := webhookService(t)

	body := []byte(`{"event":"charge.success","data":{"reference":"pay_abc"}}`)
	err := svc.HandleWebhook(context.Background(), body, "")

	var sigErr *status.SignatureError
	assert.ErrorAs(t, err, &sigErr)
}

func TestHandleWebhookRejectsMalformedBody(t *testing.T) {
	svc := webhookService(t)

	body := []byte(`{not json`)
	err := svc.HandleWebhook(context.Background(), body, paystack.Sign(body, []byte("sk_test_secret")))

	var vErr *status.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestHandleWebhookRequiresReference(t *testing.T) {
	svc := webhookService(t)

	body := []byte(`{"event":"charge.success","data":{}}`)
	err := svc.HandleWebhook(context.Background(), body, paystack.Sign(body, []byte("sk_test_secret")))

	var vErr *status.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "data.reference", vErr.Field)
}

func TestHandleWebhookIgnoresUnknownEvents(t *testing.T) {
	svc := webhookService(t)

	body := []byte(`{"event":"subscription.create","data":{"reference":"sub_1"}}`)
	err := svc.HandleWebhook(context.Background(), body, paystack.Sign(body, []byte("sk_test_secret")))
	assert.NoError(t, err)
}
