package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/karndiy/gold-vertical-panel/internal/auth"
	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/output"
	"github.com/karndiy/gold-vertical-panel/internal/service"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

const pricePage = `<html><body>
<table id="DetailPlace_MainGridView">
  <tr><th>วันที่/เวลา</th><th>ครั้งที่</th><th>a</th><th>b</th><th>c</th><th>d</th><th>e</th><th>f</th><th>g</th></tr>
  <tr><td>24/02/2569 11:32</td><td>7</td><td>41,000.00</td><td>41,100.00</td><td>40,178.32</td><td>41,600.00</td><td>2,031.50</td><td>35.92</td><td>100</td></tr>
  <tr><td>24/02/2569 09:31</td><td>6</td><td>40,900.00</td><td>41,000.00</td><td>40,080.16</td><td>41,500.00</td><td>2,025.10</td><td>35.90</td><td>-50</td></tr>
</table>
</body></html>`

func testContext(t *testing.T, sourceURL string) (Context, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.Load("", true)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	dir := t.TempDir()
	cfg.DB.DSN = filepath.Join(dir, "gold_tracker.db")
	cfg.Snapshot.Path = filepath.Join(dir, "gold_prices.json")
	cfg.Lock.Path = filepath.Join(dir, "goldpanel.lock")
	cfg.Fetch.URL = sourceURL
	cfg.Fetch.Retries = 1
	cfg.Fetch.Backoff = time.Millisecond
	cfg.Publish.CredentialsFile = filepath.Join(dir, "credentials.json")
	cfg.Publish.Telegram.Enabled = false
	cfg.Publish.Blogger.Enabled = false
	cfg.Publish.Facebook.Enabled = false

	var out bytes.Buffer
	return Context{Ctx: context.Background(), Config: cfg, Output: output.FormatText, Stdout: &out}, &out
}

func source(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(pricePage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDispatch_UnknownCommand(t *testing.T) {
	c, _ := testContext(t, "http://127.0.0.1:1")
	code, err := Dispatch(c, []string{"nope"})
	if err == nil || code != service.ExitSetup {
		t.Fatalf("code=%d err=%v", code, err)
	}
}

func TestDispatch_RunTwicePublishesOnce(t *testing.T) {
	var mirrored int32
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			atomic.AddInt32(&mirrored, 1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(mirror.Close)

	c, out := testContext(t, source(t, http.StatusOK).URL)
	c.Config.Publish.Mirror = config.MirrorConfig{Enabled: true, URL: mirror.URL}

	code, err := Dispatch(c, nil)
	if err != nil || code != service.ExitOK {
		t.Fatalf("first run code=%d err=%v", code, err)
	}
	if !strings.Contains(out.String(), string(service.StateDone)) {
		t.Fatalf("first run output=%q", out.String())
	}

	out.Reset()
	code, err = Dispatch(c, []string{"run"})
	if err != nil || code != service.ExitOK {
		t.Fatalf("second run code=%d err=%v", code, err)
	}
	if !strings.Contains(out.String(), string(service.StateSkipped)) {
		t.Fatalf("second run output=%q", out.String())
	}
	if n := atomic.LoadInt32(&mirrored); n != 1 {
		t.Fatalf("mirror posted %d times", n)
	}

	out.Reset()
	if code, err := Dispatch(c, []string{"ledger", "list"}); err != nil || code != service.ExitOK {
		t.Fatalf("ledger list code=%d err=%v", code, err)
	}
	if !strings.Contains(out.String(), "24/02/2569 11:32") {
		t.Fatalf("ledger list output=%q", out.String())
	}
	if code, err := Dispatch(c, []string{"ledger", "reset", "--seq", "7", "--ts", "24/02/2569 11:32"}); err != nil || code != service.ExitOK {
		t.Fatalf("ledger reset code=%d err=%v", code, err)
	}
	if _, err := Dispatch(c, []string{"ledger", "reset", "--seq", "7"}); err == nil {
		t.Fatalf("reset without --ts should fail")
	}
}

func TestDispatch_FetchExitCodes(t *testing.T) {
	c, _ := testContext(t, source(t, http.StatusOK).URL)
	if code, err := Dispatch(c, []string{"fetch"}); err != nil || code != service.ExitOK {
		t.Fatalf("fetch code=%d err=%v", code, err)
	}
	list, err := snapshot.NewStore(c.Config.Snapshot.Path).Load()
	if err != nil || len(list) != 2 {
		t.Fatalf("cache=%d err=%v", len(list), err)
	}

	c, _ = testContext(t, source(t, http.StatusServiceUnavailable).URL)
	if code, _ := Dispatch(c, []string{"fetch"}); code != service.ExitHTTP {
		t.Fatalf("fetch 503 code=%d", code)
	}
}

func TestDispatch_Check(t *testing.T) {
	c, _ := testContext(t, "http://127.0.0.1:1")
	if code, _ := Dispatch(c, []string{"check"}); code != service.ExitNoData {
		t.Fatalf("empty cache code=%d", code)
	}

	fresh := snapshot.Snapshot{SequenceID: "1", Timestamp: snapshot.FormatTimestamp(time.Now())}
	if err := snapshot.NewStore(c.Config.Snapshot.Path).Save([]snapshot.Snapshot{fresh}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if code, err := Dispatch(c, []string{"check", "--max-age", "1h"}); err != nil || code != service.ExitOK {
		t.Fatalf("fresh cache code=%d err=%v", code, err)
	}
}

func TestDispatch_Token(t *testing.T) {
	c, out := testContext(t, "http://127.0.0.1:1")
	if code, _ := Dispatch(c, []string{"token"}); code != service.ExitSetup {
		t.Fatalf("no secret code=%d", code)
	}

	c.Config.Server.JWTSecret = "s3cret"
	c.Output = output.FormatJSON
	if code, err := Dispatch(c, []string{"token", "--operator", "cron"}); err != nil || code != service.ExitOK {
		t.Fatalf("token code=%d err=%v", code, err)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.JWT{Secret: []byte("s3cret")}.Verify(resp.Token)
	if err != nil || claims.Operator != "cron" {
		t.Fatalf("claims=%+v err=%v", claims, err)
	}
}
