package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

// Mirror pushes the whole cached table to a JSON endpoint in the key
// layout that endpoint has always received.
type Mirror struct {
	client *resty.Client
	url    string
}

func NewMirror(cfg config.MirrorConfig) (*Mirror, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, notConfigured("mirror url is empty")
	}
	return &Mirror{client: resty.New(), url: strings.TrimSpace(cfg.URL)}, nil
}

func (m *Mirror) Name() string { return "mirror" }

func (m *Mirror) Publish(ctx context.Context, post Post) error {
	if len(post.Snapshots) == 0 {
		return nil
	}
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(snapshot.ToLegacy(post.Snapshots)).
		Post(m.url)
	if err != nil {
		return fmt.Errorf("mirror post: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return fmt.Errorf("mirror HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), 300))
	}
	return nil
}
