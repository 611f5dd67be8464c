package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/karndiy/gold-vertical-panel/internal/config"
)

// Facebook posts to a page through the Graph API. The page token is taken
// from the credentials file, or looked up by page name with a user token.
type Facebook struct {
	client    *resty.Client
	graphURL  string
	videoURL  string
	version   string
	pageID    string
	pageToken string
	userToken string
	pageName  string
}

type graphError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type graphPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type graphAccounts struct {
	graphError
	Data   []graphPage `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

func NewFacebook(cfg config.FacebookConfig, creds Credentials) (*Facebook, error) {
	direct := usable(creds.FacebookPageID) && usable(creds.FacebookPageAccessToken)
	lookup := usable(creds.FacebookUserAccessToken) && usable(creds.FacebookPageName)
	if !direct && !lookup {
		return nil, notConfigured("facebook page token or user token with page name is required")
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = "v21.0"
	}
	graphURL := strings.TrimRight(cfg.GraphURL, "/")
	if graphURL == "" {
		graphURL = "https://graph.facebook.com"
	}
	videoURL := strings.TrimRight(cfg.VideoURL, "/")
	if videoURL == "" {
		videoURL = graphURL
	}
	f := &Facebook{
		client:   resty.New(),
		graphURL: graphURL,
		videoURL: videoURL,
		version:  version,
		pageName: strings.TrimSpace(creds.FacebookPageName),
	}
	if direct {
		f.pageID = strings.TrimSpace(creds.FacebookPageID)
		f.pageToken = strings.TrimSpace(creds.FacebookPageAccessToken)
	} else {
		f.userToken = strings.TrimSpace(creds.FacebookUserAccessToken)
	}
	return f, nil
}

func (f *Facebook) Name() string { return "facebook" }

func (f *Facebook) Publish(ctx context.Context, post Post) error {
	pageID, token, err := f.pageCredentials(ctx)
	if err != nil {
		return err
	}
	text := post.FeedText
	if text == "" {
		text = post.Text
	}

	req := f.client.R().SetContext(ctx)
	var endpoint string
	switch {
	case post.VideoPath != "":
		endpoint = fmt.Sprintf("%s/%s/%s/videos", f.videoURL, f.version, pageID)
		req.SetFile("source", post.VideoPath).SetFormData(map[string]string{
			"description":  text,
			"access_token": token,
		})
	case post.ImagePath != "":
		endpoint = fmt.Sprintf("%s/%s/%s/photos", f.graphURL, f.version, pageID)
		req.SetFile("source", post.ImagePath).SetFormData(map[string]string{
			"message":      text,
			"access_token": token,
		})
	default:
		endpoint = fmt.Sprintf("%s/%s/%s/feed", f.graphURL, f.version, pageID)
		req.SetFormData(map[string]string{
			"message":      text,
			"access_token": token,
		})
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		return fmt.Errorf("facebook post: %w", err)
	}
	return graphResult(resp)
}

// pageCredentials resolves the page id and token on first use and keeps
// them for later posts.
func (f *Facebook) pageCredentials(ctx context.Context) (string, string, error) {
	if f.pageID != "" && f.pageToken != "" {
		return f.pageID, f.pageToken, nil
	}
	next := fmt.Sprintf("%s/%s/me/accounts", f.graphURL, f.version)
	params := map[string]string{"access_token": f.userToken, "limit": "100"}
	for next != "" {
		resp, err := f.client.R().SetContext(ctx).SetQueryParams(params).Get(next)
		if err != nil {
			return "", "", fmt.Errorf("facebook accounts: %w", err)
		}
		if err := graphResult(resp); err != nil {
			return "", "", err
		}
		var page graphAccounts
		if err := json.Unmarshal(resp.Body(), &page); err != nil {
			return "", "", fmt.Errorf("decode facebook accounts: %w", err)
		}
		for _, p := range page.Data {
			if p.Name == f.pageName {
				f.pageID, f.pageToken = p.ID, p.AccessToken
				return f.pageID, f.pageToken, nil
			}
		}
		// The paging link already carries the query.
		next, params = page.Paging.Next, nil
	}
	return "", "", fmt.Errorf("facebook page %q not found for this user token", f.pageName)
}

func graphResult(resp *resty.Response) error {
	var ge graphError
	_ = json.Unmarshal(resp.Body(), &ge)
	if ge.Error != nil {
		return fmt.Errorf("facebook graph error (%d): %s", ge.Error.Code, ge.Error.Message)
	}
	if resp.IsError() {
		return fmt.Errorf("facebook HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), 300))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
