package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residence-booking/internal/status"
)

func TestCircuitBreakerPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker("test")

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestCircuitBreakerPropagatesErrors(t *testing.T) {
	cb := NewCircuitBreaker("test")
	boom := errors.New("boom")

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCircuitBreakerOpensAfterSustainedFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")
	boom := errors.New("boom")

	// Trips at >= 100 requests with a 60% failure ratio.
	for i := 0; i < 100; i++ {
		cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, boom
		})
	}

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		t.Fatal("request must not reach the upstream while open")
		return nil, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrCircuitBreakerOpen)
}
