// Package fetcher scrapes the gold price table and normalizes it into
// snapshots ordered oldest to newest.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

const backoffGrowth = 1.5

type Client struct {
	http       *resty.Client
	url        string
	layout     Layout
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration
	logger     *zap.Logger

	// Now is the clock used for layouts that print only a time of day.
	Now func() time.Time
}

func New(cfg config.FetchConfig, logger *zap.Logger) (*Client, error) {
	layout, err := LayoutFor(cfg.Layout)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("fetch url is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 1
	}

	client := resty.New()
	client.SetTimeout(timeout)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	client.SetHeader("Accept", "text/html,application/xhtml+xml")

	return &Client{
		http:       client,
		url:        cfg.URL,
		layout:     layout,
		retries:    retries,
		backoff:    cfg.Backoff,
		maxBackoff: cfg.MaxBackoff,
		logger:     logger,
		Now:        time.Now,
	}, nil
}

// Fetch downloads and parses the price table. A page without the expected
// table yields an empty list and a nil error. After the last failed attempt
// the returned error is a *NetworkError or *HTTPStatusError.
func (c *Client) Fetch(ctx context.Context) ([]snapshot.Snapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		rows, err := c.fetchOnce(ctx, attempt)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		c.logger.Warn("fetch attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("of", c.retries),
			zap.Error(err),
		)
		if ctx.Err() != nil || attempt == c.retries {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(c.wait(attempt)):
		}
	}
	return []snapshot.Snapshot{}, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, attempt int) ([]snapshot.Snapshot, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, &NetworkError{URL: c.url, Attempts: attempt, Err: err}
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &HTTPStatusError{URL: c.url, Status: resp.StatusCode(), Body: truncate(resp.String(), 300), Attempts: attempt}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	rows, found := c.layout(doc, c.Now())
	if !found {
		c.logger.Warn("price table not found", zap.String("url", c.url))
		return []snapshot.Snapshot{}, nil
	}
	if len(rows) == 0 {
		c.logger.Warn("price table has no data rows", zap.String("url", c.url))
		return []snapshot.Snapshot{}, nil
	}
	snapshot.Sort(rows)
	c.logger.Info("fetched price table", zap.Int("rows", len(rows)))
	return rows, nil
}

// wait grows by half each attempt starting at the configured base.
func (c *Client) wait(attempt int) time.Duration {
	d := time.Duration(float64(c.backoff) * math.Pow(backoffGrowth, float64(attempt-1)))
	if c.maxBackoff > 0 && d > c.maxBackoff {
		return c.maxBackoff
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
