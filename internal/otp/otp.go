// Package otp implements phone-code login.  Codes are six digits, stored
// bcrypt-hashed in Redis with a short TTL, and verified at most a fixed
// number of times before the challenge is burned.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const maxAttempts = 5

// Store failure modes.  Handlers map all three to a generic 400 so the
// response does not reveal whether a challenge exists for a phone.
var (
	ErrCodeMismatch = errors.New("otp: code mismatch")
	ErrCodeExpired  = errors.New("otp: no active code")
	ErrTooManyTries = errors.New("otp: too many attempts")
)

// Store issues and verifies OTP challenges against Redis.  A nil client is
// rejected at construction; without Redis there is no safe place for
// challenge state.
type Store struct {
	rdb        *redis.Client
	ttl        time.Duration
	bcryptCost int
}

// NewStore returns a Store keeping challenges alive for ttl.
func NewStore(rdb *redis.Client, ttl time.Duration, bcryptCost int) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("otp: redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl, bcryptCost: bcryptCost}, nil
}

// NewCode returns a random six-digit code, zero-padded.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func codeKey(phone, role string) string    { return "otp:code:" + role + ":" + phone }
func attemptKey(phone, role string) string { return "otp:tries:" + role + ":" + phone }

// Issue creates a fresh challenge for a phone/role pair, replacing any
// outstanding one, and returns the plaintext code for delivery.  The code
// at rest is bcrypt-hashed so a Redis dump alone cannot log in.
func (s *Store) Issue(ctx context.Context, phone, role string) (string, error) {
	code, err := NewCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return "", err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, codeKey(phone, role), hash, s.ttl)
	pipe.Set(ctx, attemptKey(phone, role), 0, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks a submitted code.  On success the challenge is deleted so
// a code logs in exactly once.  Each wrong guess bumps the attempt
// counter; once it passes the cap the challenge is burned.
func (s *Store) Verify(ctx context.Context, phone, role, code string) error {
	ck, ak := codeKey(phone, role), attemptKey(phone, role)

	hash, err := s.rdb.Get(ctx, ck).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		return err
	}

	tries, err := s.rdb.Incr(ctx, ak).Result()
	if err != nil {
		return err
	}
	if tries > maxAttempts {
		s.rdb.Del(ctx, ck, ak)
		return ErrTooManyTries
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		return ErrCodeMismatch
	}

	s.rdb.Del(ctx, ck, ak)
	return nil
}
