package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"storefront/internal/config"
)

func NewClient(cfg config.RedisConfig) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Sequence hands out order sequence numbers with INCR, which Redis executes
// atomically, so concurrent API instances never share a number.
type Sequence struct {
	client goredis.Cmdable
	key    string
}

func NewSequence(client goredis.Cmdable, key string) *Sequence {
	return &Sequence{client: client, key: key}
}

func (s *Sequence) NextOrderSequence(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", s.key, err)
	}
	return n, nil
}

// EnsureAtLeast raises the counter to floor when it is below it. It lets a
// deployment move from the database sequence without reissuing numbers.
func (s *Sequence) EnsureAtLeast(ctx context.Context, floor int64) error {
	const script = `
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur < tonumber(ARGV[1]) then
  redis.call('SET', KEYS[1], ARGV[1])
end
return 1`
	if err := s.client.Eval(ctx, script, []string{s.key}, floor).Err(); err != nil {
		return fmt.Errorf("raise %s: %w", s.key, err)
	}
	return nil
}
