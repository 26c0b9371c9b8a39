package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Resolver is the lookup wrapped by CachingResolver.
type Resolver interface {
	FindUserIDsByExactName(ctx context.Context, name string, maxResults int) ([]string, error)
}

// CachingResolver answers name lookups from the store while they are
// fresh and falls through to the wrapped resolver otherwise.
//
// Cache failures are logged and never returned: a broken cache degrades to
// direct lookups. Errors of the wrapped resolver are returned unchanged and
// are not cached.
type CachingResolver struct {
	store  *Store
	next   Resolver
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// CacheOption configures a CachingResolver.
type CacheOption func(*CachingResolver)

// WithClock sets the time source used to stamp and expire entries.
func WithClock(now func() time.Time) CacheOption {
	return func(c *CachingResolver) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for cache diagnostics.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *CachingResolver) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCachingResolver wraps next with the store. Entries older than ttl are
// refreshed; a ttl of zero or less keeps entries forever.
func NewCachingResolver(s *Store, next Resolver, ttl time.Duration, opts ...CacheOption) *CachingResolver {
	c := &CachingResolver{
		store:  s,
		next:   next,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindUserIDsByExactName implements the resolver contract with caching.
func (c *CachingResolver) FindUserIDsByExactName(ctx context.Context, name string, maxResults int) ([]string, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return c.next.FindUserIDsByExactName(ctx, name, maxResults)
	}

	cached, err := c.store.ReadResolution(ctx, key, maxResults)
	switch {
	case err == nil && c.fresh(cached):
		c.logger.Debug("resolution cache hit", "fragment", key, "ids", len(cached.AccountIDs))
		return cached.AccountIDs, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		c.logger.Warn("resolution cache read failed", "fragment", key, "error", err)
	}

	ids, err := c.next.FindUserIDsByExactName(ctx, name, maxResults)
	if err != nil {
		return nil, err
	}

	entry := Resolution{
		Fragment:   key,
		MaxResults: maxResults,
		AccountIDs: ids,
		ResolvedAt: c.now(),
	}
	if err := c.store.WriteResolution(ctx, entry); err != nil {
		c.logger.Warn("resolution cache write failed", "fragment", key, "error", err)
	}
	return ids, nil
}

func (c *CachingResolver) fresh(r Resolution) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(r.ResolvedAt) < c.ttl
}
