package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Credentials is the operator-maintained secrets file. It is only read,
// never written.
type Credentials struct {
	TelegramBotToken string `json:"telegram_bot_token"`
	TelegramChatID   string `json:"telegram_chat_id"`

	FacebookPageID          string `json:"facebook_page_id"`
	FacebookPageAccessToken string `json:"facebook_page_access_token"`
	FacebookUserAccessToken string `json:"facebook_user_access_token"`
	FacebookPageName        string `json:"facebook_page_name"`
}

// LoadCredentials reads path. A missing file is not an error; every
// credential is then empty and the publishers that need one stay disabled.
func LoadCredentials(path string) (Credentials, error) {
	var c Credentials
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read credentials: %w", err)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials %s: %w", path, err)
	}
	return c, nil
}

// usable rejects empty values and the "YOUR_..." placeholders shipped in
// sample files.
func usable(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.Contains(strings.ToUpper(v), "YOUR_")
}
