package envelopecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/oceanchat/oceanchat/internal/domain/routing"
)

// ValkeyCache stores response envelopes in a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "oceanchat"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// Get implements routing.EnvelopeCache.
func (c *ValkeyCache) Get(ctx context.Context, key string) (routing.Envelope, bool, error) {
	cmd := c.client.B().Get().Key(c.cacheKey(key)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return routing.Envelope{}, false, nil
		}
		return routing.Envelope{}, false, err
	}
	var env routing.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return routing.Envelope{}, false, err
	}
	return env, true, nil
}

// Set implements routing.EnvelopeCache.
func (c *ValkeyCache) Set(ctx context.Context, key string, env routing.Envelope, ttl time.Duration) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	builder := c.client.B().Set().Key(c.cacheKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) cacheKey(key string) string {
	return c.prefix + ":" + key
}

var _ routing.EnvelopeCache = (*ValkeyCache)(nil)
