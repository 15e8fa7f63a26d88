package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// PrincipalCache memoizes the account lookup done on every authenticated
// request. A nil *PrincipalCache is valid and caches nothing.
type PrincipalCache struct {
	cache *bigcache.BigCache
}

// NewPrincipalCache returns nil when ttl is zero.
func NewPrincipalCache(ctx context.Context, ttl time.Duration) (*PrincipalCache, error) {
	if ttl <= 0 {
		return nil, nil
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PrincipalCache{cache: cache}, nil
}

// Get returns the cached caller for accountID.
func (p *PrincipalCache) Get(accountID string) (domain.Caller, bool) {
	if p == nil {
		return domain.Caller{}, false
	}
	data, err := p.cache.Get(accountID)
	if err != nil {
		return domain.Caller{}, false
	}
	var caller domain.Caller
	if err := json.Unmarshal(data, &caller); err != nil {
		return domain.Caller{}, false
	}
	return caller, true
}

// Put stores caller under its id.
func (p *PrincipalCache) Put(caller domain.Caller) {
	if p == nil {
		return
	}
	data, err := json.Marshal(caller)
	if err != nil {
		return
	}
	_ = p.cache.Set(caller.ID, data)
}

// Invalidate drops accountID so the next request reloads it.
func (p *PrincipalCache) Invalidate(accountID string) {
	if p == nil {
		return
	}
	_ = p.cache.Delete(accountID)
}

// Close releases the cache.
func (p *PrincipalCache) Close() error {
	if p == nil {
		return nil
	}
	return p.cache.Close()
}
