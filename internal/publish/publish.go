// Package publish posts a composed price update to the configured channels.
package publish

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

// ErrNotConfigured means a channel lacks the credentials it needs.
var ErrNotConfigured = errors.New("publisher not configured")

// Post is everything a channel may need. ImagePath and VideoPath are empty
// when rendering failed or was disabled.
type Post struct {
	Title     string
	Text      string
	FeedText  string
	HTML      string
	Caption   string
	ImagePath string
	VideoPath string

	Latest    snapshot.Snapshot
	Snapshots []snapshot.Snapshot
}

type Publisher interface {
	Name() string
	Publish(ctx context.Context, post Post) error
}

// Build returns the enabled publishers that have what they need. Channels
// that are enabled but unusable are logged and left out.
func Build(cfg config.PublishConfig, creds Credentials, logger *zap.Logger) []Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out []Publisher
	add := func(name string, p Publisher, err error) {
		if err != nil {
			logger.Warn("publisher disabled", zap.String("publisher", name), zap.Error(err))
			return
		}
		out = append(out, p)
	}

	if cfg.Telegram.Enabled {
		p, err := NewTelegram(cfg.Telegram, creds)
		add("telegram", p, err)
	}
	if cfg.Facebook.Enabled {
		p, err := NewFacebook(cfg.Facebook, creds)
		add("facebook", p, err)
	}
	if cfg.Blogger.Enabled {
		p, err := NewBlogger(cfg.Blogger)
		add("blogger", p, err)
	}
	if cfg.Mirror.Enabled {
		p, err := NewMirror(cfg.Mirror)
		add("mirror", p, err)
	}
	return out
}

func notConfigured(what string) error {
	return fmt.Errorf("%w: %s", ErrNotConfigured, what)
}
