package redis

import (
	"context"
	"encoding/json"
	"time"
)

// SetJSON sets a key with JSON-encoded value
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, expiration)
}

// GetJSON gets a key and decodes JSON value
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Claim atomically claims a key for the given holder. Returns false when the
// key is already held. Used for the (owner, name) uniqueness index.
func (c *Client) Claim(ctx context.Context, key, holder string) (bool, error) {
	return c.SetNX(ctx, key, holder, 0)
}

// Release drops a claim.
func (c *Client) Release(ctx context.Context, key string) error {
	return c.Del(ctx, key)
}
