package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Lock     LockConfig     `mapstructure:"lock"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Render   RenderConfig   `mapstructure:"render"`
	Publish  PublishConfig  `mapstructure:"publish"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr  string `mapstructure:"http_addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	// Driver is "sqlite" (embedded file ledger) or "postgres".
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type CronConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Workflow string `mapstructure:"workflow"`
}

type LockConfig struct {
	// Backend is "file", "redis" or "none".
	Backend       string        `mapstructure:"backend"`
	Path          string        `mapstructure:"path"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisKey      string        `mapstructure:"redis_key"`
}

type FetchConfig struct {
	URL        string        `mapstructure:"url"`
	Layout     string        `mapstructure:"layout"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
	UserAgent  string        `mapstructure:"user_agent"`
}

type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

type WorkflowConfig struct {
	MaxAge    time.Duration `mapstructure:"max_age"`
	SkipStale bool          `mapstructure:"skip_stale"`
}

type RenderConfig struct {
	Command   string        `mapstructure:"command"`
	Args      []string      `mapstructure:"args"`
	Dir       string        `mapstructure:"dir"`
	ImagePath string        `mapstructure:"image_path"`
	VideoPath string        `mapstructure:"video_path"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type PublishConfig struct {
	CredentialsFile string         `mapstructure:"credentials_file"`
	Timeout         time.Duration  `mapstructure:"timeout"`
	Telegram        TelegramConfig `mapstructure:"telegram"`
	Facebook        FacebookConfig `mapstructure:"facebook"`
	Blogger         BloggerConfig  `mapstructure:"blogger"`
	Mirror          MirrorConfig   `mapstructure:"mirror"`
}

type TelegramConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	APIServer string `mapstructure:"api_server"`
}

type FacebookConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	GraphURL   string `mapstructure:"graph_url"`
	VideoURL   string `mapstructure:"video_url"`
	APIVersion string `mapstructure:"api_version"`
}

type BloggerConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	BaseURL           string   `mapstructure:"base_url"`
	BlogID            string   `mapstructure:"blog_id"`
	ClientSecretsFile string   `mapstructure:"client_secrets_file"`
	TokenFile         string   `mapstructure:"token_file"`
	Labels            []string `mapstructure:"labels"`
}

type MirrorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/gold_tracker.db")
	v.SetDefault("db.max_open_conns", 1)
	v.SetDefault("db.max_idle_conns", 1)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.workflow", "0 */15 * * * *")
	v.SetDefault("lock.backend", "file")
	v.SetDefault("lock.path", "data/goldpanel.lock")
	v.SetDefault("lock.ttl", "30m")
	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.redis_key", "goldpanel:workflow:lock")
	v.SetDefault("fetch.url", "https://www.goldtraders.or.th/UpdatePriceList.aspx")
	v.SetDefault("fetch.layout", "legacy")
	v.SetDefault("fetch.timeout", "12s")
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.backoff", "1500ms")
	v.SetDefault("fetch.max_backoff", "10s")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	v.SetDefault("snapshot.path", "data/gold_prices.json")
	v.SetDefault("workflow.max_age", "60m")
	v.SetDefault("workflow.skip_stale", false)
	v.SetDefault("render.command", "")
	v.SetDefault("render.dir", "")
	v.SetDefault("render.image_path", "out/output_panel.jpg")
	v.SetDefault("render.video_path", "out/output.mp4")
	v.SetDefault("render.timeout", "5m")
	v.SetDefault("publish.credentials_file", "config/credentials.json")
	v.SetDefault("publish.timeout", "3m")
	v.SetDefault("publish.telegram.enabled", true)
	v.SetDefault("publish.telegram.api_server", "https://api.telegram.org")
	v.SetDefault("publish.facebook.enabled", false)
	v.SetDefault("publish.facebook.graph_url", "https://graph.facebook.com")
	v.SetDefault("publish.facebook.video_url", "https://graph-video.facebook.com")
	v.SetDefault("publish.facebook.api_version", "v21.0")
	v.SetDefault("publish.blogger.enabled", true)
	v.SetDefault("publish.blogger.base_url", "https://www.googleapis.com/blogger/v3")
	v.SetDefault("publish.blogger.blog_id", "8971911068975230651")
	v.SetDefault("publish.blogger.client_secrets_file", "config/client_secrets.json")
	v.SetDefault("publish.blogger.token_file", "config/blogger_token.json")
	v.SetDefault("publish.blogger.labels", []string{"ราคาทองคำ", "ข่าวทอง", "goldprice", "ทองคำ"})
	v.SetDefault("publish.mirror.enabled", false)
	v.SetDefault("publish.mirror.url", "https://karndiy.pythonanywhere.com/cjson/goldjson-v2")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
