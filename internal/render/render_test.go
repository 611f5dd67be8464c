package render

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func renderer(dir, script string) *CommandRenderer {
	return &CommandRenderer{
		Command:   "sh",
		Args:      []string{"-c", script},
		Dir:       dir,
		ImagePath: filepath.Join(dir, "out", "output_panel.jpg"),
		VideoPath: filepath.Join(dir, "out", "output.mp4"),
		Timeout:   5 * time.Second,
	}
}

var (
	latest   = snapshot.Snapshot{SequenceID: "7", Timestamp: "24/02/2569 11:32", BarBuy: "41,000.00", Change: "+100"}
	previous = snapshot.Snapshot{SequenceID: "6", Timestamp: "24/02/2569 09:31", BarBuy: "40,900.00", Change: "-50"}
)

func TestRender_Disabled(t *testing.T) {
	r := &CommandRenderer{}
	if _, err := r.Render(context.Background(), latest, previous); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err=%v want ErrDisabled", err)
	}
}

func TestRender_WritesRequestAndReportsAssets(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := renderer(dir, `cat > req.json; echo img > "$GOLDPANEL_IMAGE_PATH"; echo vid > "$GOLDPANEL_VIDEO_PATH"`)

	assets, err := r.Render(context.Background(), latest, previous)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if assets.ImagePath != r.ImagePath || assets.VideoPath != r.VideoPath {
		t.Fatalf("assets=%+v", assets)
	}

	b, err := os.ReadFile(filepath.Join(dir, "req.json"))
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	var req Request
	if err := json.Unmarshal(b, &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.Latest.SequenceID != "7" || req.Previous == nil || req.Previous.SequenceID != "6" {
		t.Fatalf("req=%+v", req)
	}
	if req.Deltas == nil || req.Deltas.BarBuy != "+100" || req.Trend != "up" {
		t.Fatalf("deltas=%+v trend=%s", req.Deltas, req.Trend)
	}
}

func TestRender_ImageOnly(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := renderer(dir, `echo img > "$GOLDPANEL_IMAGE_PATH"`)
	assets, err := r.Render(context.Background(), latest, snapshot.Snapshot{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if assets.VideoPath != "" || assets.ImagePath == "" {
		t.Fatalf("assets=%+v", assets)
	}
}

func TestRender_StaleAssetsNotReported(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := renderer(dir, `exit 1`)
	if err := os.MkdirAll(filepath.Dir(r.VideoPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(r.VideoPath, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := r.Render(context.Background(), latest, previous); err == nil {
		t.Fatalf("expected failure")
	}
	if _, err := os.Stat(r.VideoPath); !os.IsNotExist(err) {
		t.Fatalf("old video left in place: %v", err)
	}
}

func TestRender_Timeout(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := renderer(dir, `exec sleep 5`)
	r.Timeout = 100 * time.Millisecond
	start := time.Now()
	if _, err := r.Render(context.Background(), latest, previous); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("timeout not enforced")
	}
}
