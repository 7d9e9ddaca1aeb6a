package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces grant keys in a shared Redis.
const KeyPrefix = "sso_grant:"

// Redis is a Ledger shared by every replica. Keys expire with the grant.
type Redis struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, opts ...Option) *Redis {
	return &Redis{client: client, now: buildOptions(opts).now}
}

// RedisOptions configures Dial.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ledger: connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func (r *Redis) Redeem(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	ttl := expiresAt.Sub(r.now())
	if ttl < time.Second {
		ttl = time.Second
	}

	first, err := r.client.SetNX(ctx, KeyPrefix+id, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ledger: redeem: %w", err)
	}
	return first, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
