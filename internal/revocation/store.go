package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrUnavailable = errors.New("revocation store unavailable")

const (
	tokenPrefix  = "token:"
	userPrefix   = "user:"
	revokedValue = "revoked"
)

// Store records revoked token ids and per-user revoke-all cutoffs.
type Store interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	// ClaimToken blacklists jti and reports whether this call did it.
	ClaimToken(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	RevokeAllTimestamp(ctx context.Context, userID string) (time.Time, bool, error)
	Ping(ctx context.Context) error
}

// setMaxCutoff stores ARGV[1] under KEYS[1] only if it moves the cutoff forward.
var setMaxCutoff = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[2])
return 1
`)

type RedisStore struct {
	rdb     redis.UniversalClient
	timeout time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, timeout time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, timeout: timeout}
}

// Dial parses a redis:// URL and returns a connected client.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return rdb, nil
}

func (s *RedisStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *RedisStore) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.rdb.Set(ctx, tokenPrefix+jti, revokedValue, ttl).Err(); err != nil {
		return fmt.Errorf("%w: blacklist %s: %v", ErrUnavailable, jti, err)
	}
	return nil
}

func (s *RedisStore) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	n, err := s.rdb.Exists(ctx, tokenPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", ErrUnavailable, jti, err)
	}
	return n > 0, nil
}

func (s *RedisStore) ClaimToken(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl < time.Second {
		ttl = time.Second
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ok, err := s.rdb.SetNX(ctx, tokenPrefix+jti, revokedValue, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: claim %s: %v", ErrUnavailable, jti, err)
	}
	return ok, nil
}

func (s *RedisStore) RevokeAllForUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := setMaxCutoff.Run(ctx, s.rdb, []string{userPrefix + userID}, at.Unix(), secs).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: revoke all %s: %v", ErrUnavailable, userID, err)
	}
	return nil
}

func (s *RedisStore) RevokeAllTimestamp(ctx context.Context, userID string) (time.Time, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	raw, err := s.rdb.Get(ctx, userPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: get cutoff %s: %v", ErrUnavailable, userID, err)
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: malformed cutoff for %s: %v", ErrUnavailable, userID, err)
	}
	return time.Unix(secs, 0).UTC(), true, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
