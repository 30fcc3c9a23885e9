package paystack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	client, err := New(&Config{SecretKey: "sk_test_secret"})
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success","data":{"reference":"pay_abc"}}`)
	signature := Sign(body, []byte("sk_test_secret"))

	assert.True(t, client.VerifySignature(body, signature))
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	client, err := New(&Config{SecretKey: "sk_test_secret"})
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success","data":{"reference":"pay_abc"}}`)
	signature := Sign(body, []byte("sk_test_secret"))

	tampered := []byte(`{"event":"charge.success","data":{"reference":"pay_xyz"}}`)
	assert.False(t, client.VerifySignature(tampered, signature))
}

func TestVerifySignatureRejectsWrongKey(t *testing.T) {
	client, err := New(&Config{SecretKey: "sk_test_secret"})
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success"}`)
	assert.False(t, client.VerifySignature(body, Sign(body, []byte("some_other_key"))))
}

func TestVerifySignatureRejectsMissingHeader(t *testing.T) {
	client, err := New(&Config{SecretKey: "sk_test_secret"})
	require.NoError(t, err)

	assert.False(t, client.VerifySignature([]byte(`{}`), ""))
}
