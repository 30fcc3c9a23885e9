package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residence-booking/internal/status"
)

func TestIssueAndMatch(t *testing.T) {
	db, _ := redismock.NewClientMock()
	svc := NewKeyCodeService(db)

	// An already-expired deadline skips the Redis parking slot entirely.
	code, hash, err := svc.Issue(context.Background(), "bk1", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	require.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9', "code must be digits only, got %q", code)
	}

	assert.NotContains(t, hash, code, "hash must not embed the plaintext")
	assert.True(t, Matches(hash, code))
	assert.False(t, Matches(hash, "000000"))
	assert.False(t, Matches("", code))
	assert.False(t, Matches(hash, code+"7"))
}

func TestFetch(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewKeyCodeService(db)

	mock.ExpectGet("keycode:bk1").SetVal("482915")
	code, err := svc.Fetch(context.Background(), "bk1")
	require.NoError(t, err)
	assert.Equal(t, "482915", code)

	mock.ExpectGet("keycode:gone").RedisNil()
	_, err = svc.Fetch(context.Background(), "gone")
	assert.ErrorIs(t, err, status.ErrKeyCodeUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDrop(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewKeyCodeService(db)

	mock.ExpectDel("keycode:bk1").SetVal(1)
	svc.Drop(context.Background(), "bk1")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyCodeExpiry(t *testing.T) {
	now := time.Date(2026, 9, 10, 15, 30, 0, 0, time.UTC)

	// With a confirmed start date: midnight of that day plus 48h.
	start := time.Date(2026, 9, 20, 14, 0, 0, 0, time.UTC)
	expiry := KeyCodeExpiry(&start, now)
	assert.Equal(t, time.Date(2026, 9, 22, 0, 0, 0, 0, time.UTC), expiry)

	// Without one: 48h from issuance.
	expiry = KeyCodeExpiry(nil, now)
	assert.Equal(t, now.Add(48*time.Hour), expiry)

	zero := time.Time{}
	expiry = KeyCodeExpiry(&zero, now)
	assert.Equal(t, now.Add(48*time.Hour), expiry)
}
