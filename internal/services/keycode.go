package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"residence-booking/internal/status"
	"residence-booking/utils"
)

const keyCodeLength = 6

// KeyCodeService issues and checks one-time check-in codes. Only the bcrypt
// hash is stored on the booking; the plaintext is parked in Redis under the
// code's own TTL so the paying client can fetch it until it expires.
type KeyCodeService struct {
	Redis *redis.Client
}

func NewKeyCodeService(redisClient *redis.Client) *KeyCodeService {
	return &KeyCodeService{Redis: redisClient}
}

// Issue generates a fresh code and its hash. The plaintext leaves this
// package exactly twice: back to the caller and into the Redis parking slot.
func (s *KeyCodeService) Issue(ctx context.Context, bookingID string, expiresAt time.Time) (code, hash string, err error) {
	code, err = utils.GenerateOTP(keyCodeLength)
	if err != nil {
		return "", "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	ttl := time.Until(expiresAt)
	if ttl > 0 {
		if err := s.Redis.Set(ctx, keyCodeKey(bookingID), code, ttl).Err(); err != nil {
			return "", "", err
		}
	}

	return code, string(hashed), nil
}

// Fetch returns the parked plaintext for a booking, or ErrKeyCodeUnavailable
// once the TTL has run out (or Redis lost it).
func (s *KeyCodeService) Fetch(ctx context.Context, bookingID string) (string, error) {
	code, err := s.Redis.Get(ctx, keyCodeKey(bookingID)).Result()
	if err == redis.Nil {
		return "", status.ErrKeyCodeUnavailable
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

// Drop removes the parked plaintext. Called after a successful check-in.
func (s *KeyCodeService) Drop(ctx context.Context, bookingID string) {
	s.Redis.Del(ctx, keyCodeKey(bookingID))
}

// Matches compares a submitted code against a stored hash. bcrypt's
// comparison is constant time; a missing hash fails closed.
func Matches(hash, code string) bool {
	if hash == "" || len(code) != keyCodeLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// KeyCodeExpiry is start-date midnight plus two days when the stay dates are
// known, otherwise 48 hours from now.
func KeyCodeExpiry(startDate *time.Time, now time.Time) time.Time {
	if startDate != nil && !startDate.IsZero() {
		midnight := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
		return midnight.Add(48 * time.Hour)
	}
	return now.Add(48 * time.Hour)
}

func keyCodeKey(bookingID string) string {
	return fmt.Sprintf("keycode:%s", bookingID)
}
