package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// KeyClaimer records idempotency keys that have already been used.
type KeyClaimer interface {
	// Claim returns true if key was already claimed within the TTL.
	Claim(ctx context.Context, key string) (bool, error)
	// Release frees key so a retry can claim it again.
	Release(ctx context.Context, key string) error
}

type redisKeyClaimer struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisKeyClaimer) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+":"+key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

func (d *redisKeyClaimer) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.prefix+":"+key).Err()
}

type memoryKeyClaimer struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
	now    func() time.Time
}

func newMemoryKeyClaimer(ttl time.Duration) *memoryKeyClaimer {
	now := time.Now()
	return &memoryKeyClaimer{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
		now:    time.Now,
	}
}

func (d *memoryKeyClaimer) Claim(_ context.Context, key string) (bool, error) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[key]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[key] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for k, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, k)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

func (d *memoryKeyClaimer) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

// NewKeyClaimer builds a Redis-backed claimer and falls back to in-memory on failure.
func NewKeyClaimer(addr, pass string, db int, ttl time.Duration) (KeyClaimer, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if addr == "" {
		return newMemoryKeyClaimer(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return newMemoryKeyClaimer(ttl), err
	}

	return &redisKeyClaimer{
		client: client,
		prefix: "zarinpal:idem",
		ttl:    ttl,
	}, nil
}

// Idempotency rejects a request whose Idempotency-Key was already used.
// A key is only kept when the request succeeds; any non-2xx reply releases
// it so the caller can retry. Requests without the header pass through, as
// do requests when the claimer errors.
func Idempotency(claimer KeyClaimer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claimer == nil {
				return next(c)
			}
			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if key == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			dup, err := claimer.Claim(ctx, key)
			if err != nil {
				return next(c)
			}
			if dup {
				return c.JSON(http.StatusConflict, map[string]interface{}{
					"status": false,
					"msg":    "Duplicate Idempotency-Key",
					"obj":    nil,
				})
			}

			err = next(c)
			if err != nil || !succeeded(c.Response().Status) {
				_ = claimer.Release(context.WithoutCancel(ctx), key)
			}
			return err
		}
	}
}

func succeeded(status int) bool {
	return status >= 200 && status < 300
}
