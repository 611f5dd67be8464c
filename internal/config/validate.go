package config

import (
	"fmt"
	"strings"
)

// Validate rejects settings the workflow cannot run with.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("db.driver %q: want sqlite or postgres", c.DB.Driver)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("db.dsn is empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.Lock.Backend)) {
	case "file", "none", "":
	case "redis":
		if strings.TrimSpace(c.Lock.RedisAddr) == "" {
			return fmt.Errorf("lock.redis_addr is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("lock.backend %q: want file, redis or none", c.Lock.Backend)
	}
	switch strings.ToLower(strings.TrimSpace(c.Fetch.Layout)) {
	case "legacy", "v2":
	default:
		return fmt.Errorf("fetch.layout %q: want legacy or v2", c.Fetch.Layout)
	}
	if strings.TrimSpace(c.Fetch.URL) == "" {
		return fmt.Errorf("fetch.url is empty")
	}
	if strings.TrimSpace(c.Snapshot.Path) == "" {
		return fmt.Errorf("snapshot.path is empty")
	}
	if c.Publish.Mirror.Enabled && strings.TrimSpace(c.Publish.Mirror.URL) == "" {
		return fmt.Errorf("publish.mirror.url is required when the mirror is enabled")
	}
	return nil
}
