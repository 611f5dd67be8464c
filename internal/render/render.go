// Package render produces the panel image and video for a snapshot by
// running an external drawing tool.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

// ErrDisabled is returned when no render command is configured.
var ErrDisabled = errors.New("renderer disabled")

// Assets lists the files a render produced. Empty paths were not produced.
type Assets struct {
	ImagePath string `json:"image_path,omitempty"`
	VideoPath string `json:"video_path,omitempty"`
}

func (a Assets) Empty() bool {
	return a.ImagePath == "" && a.VideoPath == ""
}

type Renderer interface {
	Render(ctx context.Context, latest, previous snapshot.Snapshot) (Assets, error)
}

// Request is written as JSON to the render command's stdin.
type Request struct {
	Latest    snapshot.Snapshot  `json:"latest"`
	Previous  *snapshot.Snapshot `json:"previous,omitempty"`
	Deltas    *snapshot.Deltas   `json:"deltas,omitempty"`
	Trend     string             `json:"trend"`
	ImagePath string             `json:"image_path"`
	VideoPath string             `json:"video_path"`
}

type CommandRenderer struct {
	Command   string
	Args      []string
	Dir       string
	ImagePath string
	VideoPath string
	Timeout   time.Duration
	Logger    *zap.Logger
}

func NewCommandRenderer(cfg config.RenderConfig, logger *zap.Logger) *CommandRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRenderer{
		Command:   strings.TrimSpace(cfg.Command),
		Args:      cfg.Args,
		Dir:       cfg.Dir,
		ImagePath: cfg.ImagePath,
		VideoPath: cfg.VideoPath,
		Timeout:   cfg.Timeout,
		Logger:    logger,
	}
}

// Render runs the command with the request on stdin. Output files left
// over from an earlier run are removed first, so only assets produced by
// this run are reported.
func (r *CommandRenderer) Render(ctx context.Context, latest, previous snapshot.Snapshot) (Assets, error) {
	if r == nil || r.Command == "" {
		return Assets{}, ErrDisabled
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	for _, p := range []string{r.ImagePath, r.VideoPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return Assets{}, fmt.Errorf("create output dir: %w", err)
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Assets{}, fmt.Errorf("remove old asset: %w", err)
		}
	}

	req := Request{
		Latest:    latest,
		Trend:     latest.Trend().String(),
		ImagePath: r.ImagePath,
		VideoPath: r.VideoPath,
	}
	if previous != (snapshot.Snapshot{}) {
		d := snapshot.Delta(latest, previous)
		req.Previous = &previous
		req.Deltas = &d
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Assets{}, fmt.Errorf("encode render request: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Dir = r.Dir
	cmd.Stdin = bytes.NewReader(body)
	cmd.Env = append(os.Environ(),
		"GOLDPANEL_IMAGE_PATH="+r.ImagePath,
		"GOLDPANEL_VIDEO_PATH="+r.VideoPath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	start := time.Now()
	err = cmd.Run()
	r.Logger.Debug("render command finished",
		zap.String("command", r.Command),
		zap.Duration("took", time.Since(start)),
		zap.String("output", tail(out.String(), 500)),
	)
	if ctx.Err() != nil {
		return Assets{}, fmt.Errorf("render command: %w", ctx.Err())
	}
	if err != nil {
		return Assets{}, fmt.Errorf("render command: %w: %s", err, tail(out.String(), 300))
	}

	assets := Assets{
		ImagePath: existing(r.ImagePath),
		VideoPath: existing(r.VideoPath),
	}
	if assets.Empty() {
		return assets, fmt.Errorf("render command produced no assets")
	}
	return assets, nil
}

func existing(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return ""
	}
	return path
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
