package redisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-lms-api/internal/domain"
	"github.com/go-lms-api/internal/pkg/clock"
	"github.com/go-redis/redis/v8"
)

// expiredRetention keeps a record readable past its expiry so a late verify
// reports Expired instead of NotFound. Redis drops it afterwards.
const expiredRetention = time.Hour

// OTPStore keeps pending OTPs in Redis so every API instance sees the same codes.
type OTPStore struct {
	client *redis.Client
	prefix string
	clock  clock.Clock
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewOTPStore(client *redis.Client, prefix string, clk clock.Clock) *OTPStore {
	if prefix == "" {
		prefix = "otp"
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &OTPStore{client: client, prefix: prefix, clock: clk}
}

func (s *OTPStore) key(email string) string {
	return fmt.Sprintf("%s:%s", s.prefix, email)
}

func (s *OTPStore) Get(ctx context.Context, email string) (*domain.OTPRecord, error) {
	raw, err := s.client.Get(ctx, s.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("otp for %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var rec domain.OTPRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode otp record: %w", err)
	}
	return &rec, nil
}

// Set writes rec with a key TTL covering its expiry plus expiredRetention.
func (s *OTPStore) Set(ctx context.Context, rec *domain.OTPRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode otp record: %w", err)
	}
	ttl := rec.ExpiresAt.Sub(s.clock.Now()) + expiredRetention
	if ttl <= 0 {
		ttl = expiredRetention
	}
	if err := s.client.Set(ctx, s.key(rec.Email), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
