// Package runlock keeps two workflow runs from overlapping.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/karndiy/gold-vertical-panel/internal/config"
)

var ErrLocked = errors.New("workflow run already in progress")

type Locker interface {
	// Acquire returns ErrLocked when another run holds the lock.
	Acquire(ctx context.Context) (Lease, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

const defaultTTL = 30 * time.Minute

func New(cfg config.LockConfig) (Locker, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("lock path is empty")
		}
		return NewFileLocker(cfg.Path, ttl), nil
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("lock redis_addr is empty")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisLocker(client, cfg.RedisKey, ttl), nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported lock backend %q", cfg.Backend)
	}
}

// Nop never blocks. Useful when an outer scheduler already serializes runs.
type Nop struct{}

func (Nop) Acquire(context.Context) (Lease, error) { return nopLease{}, nil }

type nopLease struct{}

func (nopLease) Release(context.Context) error { return nil }
