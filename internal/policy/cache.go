package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "govgate/pkg/domain"
)

// VersionCache caches the resolved active version per (tenant, slug) so the
// protect hot path avoids a store round trip. A cache miss or error is never
// fatal; callers fall through to the store.
type VersionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVersionCache(client *redis.Client, ttl time.Duration) *VersionCache {
	return &VersionCache{client: client, ttl: ttl}
}

type cachedResolution struct {
	Policy  Policy  `json:"policy"`
	Version Version `json:"version"`
}

func cacheKey(tenantID id.TenantID, slug string) string {
	return fmt.Sprintf("policy:active:%s:%s", tenantID, slug)
}

// Get returns the cached resolution, or (nil, nil, false) on miss or error.
func (c *VersionCache) Get(ctx context.Context, tenantID id.TenantID, slug string) (*Policy, *Version, bool) {
	if c == nil || c.client == nil {
		return nil, nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(tenantID, slug)).Bytes()
	if err != nil {
		return nil, nil, false
	}
	var entry cachedResolution
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, nil, false
	}
	return &entry.Policy, &entry.Version, true
}

// Set stores the resolution with the configured TTL. Errors are dropped: the
// cache is an optimization, the store stays authoritative.
func (c *VersionCache) Set(ctx context.Context, p *Policy, v *Version) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(cachedResolution{Policy: *p, Version: *v})
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(p.TenantID, p.Slug), raw, c.ttl)
}

// Invalidate drops the cached resolution after a version change.
func (c *VersionCache) Invalidate(ctx context.Context, tenantID id.TenantID, slug string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, cacheKey(tenantID, slug))
}
