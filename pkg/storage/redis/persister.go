// Package redis persists dashboard state in Redis string keys.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// DefaultPrefix namespaces every key written by the persister.
const DefaultPrefix = "loi:dashboard:"

// Options configures the persister. TTL zero keeps keys forever.
type Options struct {
	Prefix string
	TTL    time.Duration
}

// Persister implements dashboard.Persister with GET/SET.
type Persister struct {
	client redis.UniversalClient
	opts   Options
}

var _ dashboard.Persister = (*Persister)(nil)

// Connect builds a client from a redis:// URL or a host:port address.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: parse url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// New wraps a client.
func New(client redis.UniversalClient, opts Options) (*Persister, error) {
	if client == nil {
		return nil, errors.New("redis: client is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Persister{client: client, opts: opts}, nil
}

func (p *Persister) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := p.client.Get(ctx, p.opts.Prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, dashboard.ErrNotFound
		}
		return nil, fmt.Errorf("redis: load %s: %w", key, err)
	}
	return raw, nil
}

func (p *Persister) Save(ctx context.Context, key string, payload []byte) error {
	if err := p.client.Set(ctx, p.opts.Prefix+key, payload, p.opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis: save %s: %w", key, err)
	}
	return nil
}
