package publish

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/karndiy/gold-vertical-panel/internal/config"
)

type Telegram struct {
	bot  *telego.Bot
	chat telego.ChatID
}

func NewTelegram(cfg config.TelegramConfig, creds Credentials) (*Telegram, error) {
	if !usable(creds.TelegramBotToken) || !usable(creds.TelegramChatID) {
		return nil, notConfigured("telegram_bot_token and telegram_chat_id are required")
	}
	opts := []telego.BotOption{
		telego.WithHTTPClient(&http.Client{}),
		telego.WithDiscardLogger(),
	}
	if strings.TrimSpace(cfg.APIServer) != "" {
		opts = append(opts, telego.WithAPIServer(strings.TrimRight(cfg.APIServer, "/")))
	}
	bot, err := telego.NewBot(strings.TrimSpace(creds.TelegramBotToken), opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chat: chatID(creds.TelegramChatID)}, nil
}

// chatID accepts a numeric id or a public channel username.
func chatID(v string) telego.ChatID {
	v = strings.TrimSpace(v)
	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		return tu.ID(id)
	}
	if !strings.HasPrefix(v, "@") {
		v = "@" + v
	}
	return tu.Username(v)
}

func (t *Telegram) Name() string { return "telegram" }

// Publish sends the text message, then the video (or the image when there
// is no video). A media failure after the text went out is still reported.
func (t *Telegram) Publish(ctx context.Context, post Post) error {
	if _, err := t.bot.SendMessage(ctx, tu.Message(t.chat, post.Text)); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}

	switch {
	case post.VideoPath != "":
		f, err := os.Open(post.VideoPath)
		if err != nil {
			return fmt.Errorf("open video: %w", err)
		}
		defer f.Close()
		if _, err := t.bot.SendVideo(ctx, tu.Video(t.chat, tu.File(f)).WithCaption(post.Caption)); err != nil {
			return fmt.Errorf("telegram sendVideo: %w", err)
		}
	case post.ImagePath != "":
		f, err := os.Open(post.ImagePath)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		if _, err := t.bot.SendPhoto(ctx, tu.Photo(t.chat, tu.File(f)).WithCaption(post.Caption)); err != nil {
			return fmt.Errorf("telegram sendPhoto: %w", err)
		}
	}
	return nil
}
