package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/karndiy/gold-vertical-panel/internal/config"
)

const (
	bloggerScope = "https://www.googleapis.com/auth/blogger"
	// refreshTimeout caps a token refresh when the caller's context has no
	// deadline of its own.
	refreshTimeout = 30 * time.Second
)

// Blogger inserts a post with a previously authorized OAuth token. The
// token file is refreshed in memory only; obtaining it is an operator task.
type Blogger struct {
	client *resty.Client
	base   string
	blogID string
	labels []string
	oauth  *oauth2.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// clientSecrets matches the file downloaded from the Google console.
type clientSecrets struct {
	Installed *secretsBody `json:"installed"`
	Web       *secretsBody `json:"web"`
}

type secretsBody struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURI      string `json:"auth_uri"`
	TokenURI     string `json:"token_uri"`
}

type bloggerPost struct {
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Labels  []string `json:"labels,omitempty"`
}

type bloggerResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewBlogger(cfg config.BloggerConfig) (*Blogger, error) {
	if strings.TrimSpace(cfg.BlogID) == "" {
		return nil, notConfigured("blogger blog_id is empty")
	}
	oc, err := loadClientSecrets(cfg.ClientSecretsFile)
	if err != nil {
		return nil, err
	}
	tok, err := loadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://www.googleapis.com/blogger/v3"
	}
	return &Blogger{
		client: resty.New(),
		base:   base,
		blogID: strings.TrimSpace(cfg.BlogID),
		labels: cfg.Labels,
		oauth:  oc,
		token:  tok,
	}, nil
}

func loadClientSecrets(path string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, notConfigured("blogger client secrets file " + path + " not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}
	var cs clientSecrets
	if err := json.Unmarshal(b, &cs); err != nil {
		return nil, fmt.Errorf("decode client secrets: %w", err)
	}
	body := cs.Installed
	if body == nil {
		body = cs.Web
	}
	if body == nil || !usable(body.ClientID) {
		return nil, notConfigured("blogger client secrets have no client_id")
	}
	tokenURI := body.TokenURI
	if tokenURI == "" {
		tokenURI = "https://oauth2.googleapis.com/token"
	}
	return &oauth2.Config{
		ClientID:     body.ClientID,
		ClientSecret: body.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  body.AuthURI,
			TokenURL: tokenURI,
		},
		Scopes: []string{bloggerScope},
	}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, notConfigured("blogger token file " + path + " not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read blogger token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode blogger token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, notConfigured("blogger token file has no access or refresh token")
	}
	return &tok, nil
}

func (b *Blogger) Name() string { return "blogger" }

// accessToken returns a valid token, refreshing it through ctx when it has
// expired. The refreshed token is kept for the next call.
func (b *Blogger) accessToken(ctx context.Context) (*oauth2.Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: refreshTimeout})
	tok, err := b.oauth.TokenSource(ctx, b.token).Token()
	if err != nil {
		return nil, err
	}
	b.token = tok
	return tok, nil
}

func (b *Blogger) Publish(ctx context.Context, post Post) error {
	tok, err := b.accessToken(ctx)
	if err != nil {
		return fmt.Errorf("blogger token: %w", err)
	}
	var out bloggerResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(tok.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(bloggerPost{
			Kind:    "blogger#post",
			Title:   post.Title,
			Content: post.HTML,
			Labels:  b.labels,
		}).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("%s/blogs/%s/posts/", b.base, b.blogID))
	if err != nil {
		return fmt.Errorf("blogger insert: %w", err)
	}
	if resp.IsError() {
		msg := truncate(resp.String(), 300)
		if out.Error != nil {
			msg = out.Error.Message
		}
		return fmt.Errorf("blogger HTTP %d: %s", resp.StatusCode(), msg)
	}
	return nil
}
