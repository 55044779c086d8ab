package repository

import (
	"context"
	"errors"
	"time"

	"FinSignal/internal/domain/repository"
	"FinSignal/pkg/cache"
	applogger "FinSignal/pkg/logger"
)

const universeKey = "universe:linear:usdt"

// UniverseCache keeps the listed symbols in a cache.Service for ttl.
type UniverseCache struct {
	cache  cache.Service
	ttl    time.Duration
	logger *applogger.Logger
}

// NewUniverseCache creates a universe cache; a zero ttl disables caching.
func NewUniverseCache(c cache.Service, ttl time.Duration, l *applogger.Logger) repository.UniverseCache {
	return &UniverseCache{cache: c, ttl: ttl, logger: l}
}

func (u *UniverseCache) GetUniverse(ctx context.Context) ([]string, bool) {
	if u.ttl <= 0 {
		return nil, false
	}
	var symbols []string
	if err := u.cache.Get(ctx, universeKey, &symbols); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			u.logger.Warn("universe cache read failed", applogger.Error(err))
		}
		return nil, false
	}
	return symbols, len(symbols) > 0
}

// SetUniverse stores a non-empty listing. Cache failures are logged, never returned.
func (u *UniverseCache) SetUniverse(ctx context.Context, symbols []string) {
	if u.ttl <= 0 || len(symbols) == 0 {
		return
	}
	if err := u.cache.Set(ctx, universeKey, symbols, u.ttl); err != nil {
		u.logger.Warn("universe cache write failed", applogger.Error(err))
	}
}

// RunLock is a TTL lock over cache.Service.
type RunLock struct {
	cache cache.Service
	ttl   time.Duration
}

// NewRunLock creates a run lock whose keys expire after ttl.
func NewRunLock(c cache.Service, ttl time.Duration) repository.RunLock {
	return &RunLock{cache: c, ttl: ttl}
}

func (l *RunLock) TryLock(ctx context.Context, key string) (bool, error) {
	return l.cache.TryLock(ctx, cache.GenerateKeyWithParams("lock", key), l.ttl)
}

func (l *RunLock) Unlock(ctx context.Context, key string) error {
	return l.cache.Unlock(ctx, cache.GenerateKeyWithParams("lock", key))
}
