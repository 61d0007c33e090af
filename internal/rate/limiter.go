// Package rate implementa rate limiting fixed-window en memoria. Se
// usa delante del endpoint de metadata, que hace fetch a sitios
// externos arbitrarios y no debe poder usarse como proxy de scraping.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// MemoryLimiter: fixed window sencillo (contador por ventana con TTL).
// Al ser un servicio de un solo proceso, el contador en memoria ve
// todo el tráfico; no hace falta un backend compartido.
type MemoryLimiter struct {
	cache  *gocache.Cache
	prefix string
	max    int64
	window time.Duration
}

func NewMemoryLimiter(prefix string, max int, window time.Duration) *MemoryLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &MemoryLimiter{
		cache:  gocache.New(window, window),
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.window)
	cacheKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	// primer hit de la ventana: el TTL fija el fin de la ventana
	_ = l.cache.Add(cacheKey, int64(0), l.window)
	hits, err := l.cache.IncrementInt64(cacheKey, 1)
	if err != nil {
		// la entrada expiró entre el Add y el Increment; reintentar una vez
		_ = l.cache.Add(cacheKey, int64(0), l.window)
		hits, err = l.cache.IncrementInt64(cacheKey, 1)
		if err != nil {
			return Result{}, err
		}
	}

	allowed := hits <= l.max
	remaining := l.max - hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
	}
	if !allowed {
		// Retry after: resto de la ventana
		res.RetryAfter = winStart.Add(l.window).Sub(now)
		if res.RetryAfter < 0 {
			res.RetryAfter = l.window
		}
	}
	return res, nil
}
