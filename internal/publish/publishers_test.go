package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/karndiy/gold-vertical-panel/internal/config"
	"github.com/karndiy/gold-vertical-panel/internal/render"
	"github.com/karndiy/gold-vertical-panel/internal/snapshot"
)

var testBotToken = "123456:" + strings.Repeat("a", 35)

type recorder struct {
	mu    sync.Mutex
	paths []string
	forms []map[string]string
	files []string
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, req.URL.Path)
	form := map[string]string{}
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/") {
		if err := req.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range req.MultipartForm.Value {
				form[k] = v[0]
			}
			for k := range req.MultipartForm.File {
				r.files = append(r.files, k)
			}
		}
	} else if err := req.ParseForm(); err == nil {
		for k, v := range req.PostForm {
			form[k] = v[0]
		}
	}
	r.forms = append(r.forms, form)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	c, err := LoadCredentials(filepath.Join(dir, "missing.json"))
	if err != nil || c.TelegramBotToken != "" {
		t.Fatalf("missing file: c=%+v err=%v", c, err)
	}
	p := writeFile(t, dir, "credentials.json", `{"telegram_bot_token":"YOUR_BOT_TOKEN","telegram_chat_id":"42"}`)
	c, err = LoadCredentials(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if usable(c.TelegramBotToken) {
		t.Fatalf("placeholder token treated as usable")
	}
	if _, err := NewTelegram(config.TelegramConfig{}, c); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err=%v want ErrNotConfigured", err)
	}
	bad := writeFile(t, dir, "bad.json", "{")
	if _, err := LoadCredentials(bad); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTelegram_MessageThenVideo(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":42,"type":"private"}}}`)
	}))
	defer srv.Close()

	tg, err := NewTelegram(config.TelegramConfig{APIServer: srv.URL}, Credentials{TelegramBotToken: testBotToken, TelegramChatID: "42"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	video := writeFile(t, t.TempDir(), "output.mp4", "fake video")
	post := Compose(sample, nil, render.Assets{VideoPath: video})
	if err := tg.Publish(context.Background(), post); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(rec.paths) != 2 {
		t.Fatalf("calls=%v", rec.paths)
	}
	if !strings.HasSuffix(rec.paths[0], "/sendMessage") || !strings.HasSuffix(rec.paths[1], "/sendVideo") {
		t.Fatalf("order=%v", rec.paths)
	}
	if rec.forms[1]["caption"] != "🎬 ราคาทองคำ ครั้งที่ 7" {
		t.Fatalf("caption=%q", rec.forms[1]["caption"])
	}
}

func TestTelegram_APIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()
	tg, err := NewTelegram(config.TelegramConfig{APIServer: srv.URL}, Credentials{TelegramBotToken: testBotToken, TelegramChatID: "@goldchannel"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := tg.Publish(context.Background(), Post{Text: "hi"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFacebook_ResolvesPageAndPostsPhoto(t *testing.T) {
	rec := &recorder{}
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v21.0/me/accounts" && r.URL.Query().Get("after") == "":
			if r.URL.Query().Get("access_token") != "user-tok" {
				t.Errorf("accounts token=%q", r.URL.Query().Get("access_token"))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data":   []map[string]string{{"id": "1", "name": "Other", "access_token": "x"}},
				"paging": map[string]string{"next": srv.URL + "/v21.0/me/accounts?access_token=user-tok&after=abc"},
			})
		case r.URL.Path == "/v21.0/me/accounts":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]string{{"id": "99", "name": "Gold Page", "access_token": "page-tok"}},
			})
		default:
			rec.record(r)
			_, _ = io.WriteString(w, `{"id":"99_1"}`)
		}
	}))
	defer srv.Close()

	fb, err := NewFacebook(config.FacebookConfig{GraphURL: srv.URL, APIVersion: "v21.0"},
		Credentials{FacebookUserAccessToken: "user-tok", FacebookPageName: "Gold Page"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	image := writeFile(t, t.TempDir(), "panel.jpg", "jpg")
	if err := fb.Publish(context.Background(), Post{FeedText: "hello", ImagePath: image}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(rec.paths) != 1 || rec.paths[0] != "/v21.0/99/photos" {
		t.Fatalf("paths=%v", rec.paths)
	}
	if rec.forms[0]["message"] != "hello" || rec.forms[0]["access_token"] != "page-tok" {
		t.Fatalf("form=%v", rec.forms[0])
	}
	if len(rec.files) != 1 || rec.files[0] != "source" {
		t.Fatalf("files=%v", rec.files)
	}
}

func TestFacebook_TextAndGraphError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/v21.0/55/feed" {
			t.Errorf("path=%s", r.URL.Path)
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`)
	}))
	defer srv.Close()
	fb, err := NewFacebook(config.FacebookConfig{GraphURL: srv.URL},
		Credentials{FacebookPageID: "55", FacebookPageAccessToken: "page-tok"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = fb.Publish(context.Background(), Post{Text: "text only"})
	if err == nil || !strings.Contains(err.Error(), "Invalid OAuth") {
		t.Fatalf("err=%v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestBlogger_Insert(t *testing.T) {
	var got bloggerPost
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/blogs/8971911068975230651/posts/" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","url":"https://example.blogspot.com/p/1"}`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	secrets := writeFile(t, dir, "client_secrets.json", `{"installed":{"client_id":"cid","client_secret":"cs","token_uri":"`+srv.URL+`/token"}}`)
	expiry := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	token := writeFile(t, dir, "token.json", `{"access_token":"at-1","token_type":"Bearer","refresh_token":"rt","expiry":"`+expiry+`"}`)

	b, err := NewBlogger(config.BloggerConfig{
		BaseURL:           srv.URL,
		BlogID:            "8971911068975230651",
		ClientSecretsFile: secrets,
		TokenFile:         token,
		Labels:            []string{"ราคาทองคำ", "goldprice"},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	post := Compose(sample, nil, render.Assets{})
	if err := b.Publish(context.Background(), post); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if auth != "Bearer at-1" {
		t.Fatalf("authorization=%q", auth)
	}
	if got.Kind != "blogger#post" || got.Title != BloggerTitle(sample) || len(got.Labels) != 2 {
		t.Fatalf("body=%+v", got)
	}
}

func TestBlogger_RefreshRespectsContext(t *testing.T) {
	release := make(chan struct{})
	var inserts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		atomic.AddInt32(&inserts, 1)
	}))
	defer srv.Close()
	defer close(release)

	dir := t.TempDir()
	secrets := writeFile(t, dir, "client_secrets.json", `{"installed":{"client_id":"cid","client_secret":"cs","token_uri":"`+srv.URL+`/token"}}`)
	expired := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	token := writeFile(t, dir, "token.json", `{"access_token":"old","token_type":"Bearer","refresh_token":"rt","expiry":"`+expired+`"}`)

	b, err := NewBlogger(config.BloggerConfig{BaseURL: srv.URL, BlogID: "1", ClientSecretsFile: secrets, TokenFile: token})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = b.Publish(ctx, Compose(sample, nil, render.Assets{}))
	if err == nil {
		t.Fatalf("expected refresh to fail")
	}
	if took := time.Since(start); took > 5*time.Second {
		t.Fatalf("refresh ignored the deadline, took %s", took)
	}
	if atomic.LoadInt32(&inserts) != 0 {
		t.Fatalf("post inserted without a token")
	}
}

func TestBlogger_MissingFilesNotConfigured(t *testing.T) {
	_, err := NewBlogger(config.BloggerConfig{BlogID: "1", ClientSecretsFile: filepath.Join(t.TempDir(), "none.json")})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err=%v want ErrNotConfigured", err)
	}
}

func TestMirror(t *testing.T) {
	var body []snapshot.LegacyRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	m, err := NewMirror(config.MirrorConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Publish(context.Background(), Post{Snapshots: []snapshot.Snapshot{sample}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(body) != 1 || body[0].Nqy != "7" || body[0].Blbuy != "41,000.00" || body[0].Ombuy != "40,178.32" {
		t.Fatalf("body=%+v", body)
	}
}

func TestBuild_SkipsUnconfigured(t *testing.T) {
	cfg := config.PublishConfig{
		Telegram: config.TelegramConfig{Enabled: true},
		Facebook: config.FacebookConfig{Enabled: true},
		Blogger:  config.BloggerConfig{Enabled: false},
		Mirror:   config.MirrorConfig{Enabled: true, URL: "http://127.0.0.1:1/mirror"},
	}
	pubs := Build(cfg, Credentials{TelegramBotToken: testBotToken, TelegramChatID: "42"}, nil)
	var names []string
	for _, p := range pubs {
		names = append(names, p.Name())
	}
	if strings.Join(names, ",") != "telegram,mirror" {
		t.Fatalf("publishers=%v", names)
	}
}
