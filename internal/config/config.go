package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string
	BaseURL    string
	StaticURL  string

	// Database（空文字の場合はセッションレスモードで動作する）
	DatabaseURL string

	// Skin API
	SkinAPIBaseURL string
	SkinAPITimeout time.Duration

	// Mc-Auth（OAuth風IDプロバイダー）
	McAuthBaseURL      string
	McAuthClientID     string
	McAuthClientSecret string

	// Session
	SessionMaxAge int

	// Cookie
	CookieSecure bool
	CookieDomain string

	// Diagnostics
	DiscordErrorWebhookURL string
}

// defaultSessionMaxAge はセッションCookieの有効期間のデフォルト（30日、秒単位）。
const defaultSessionMaxAge = 30 * 24 * 60 * 60

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.McAuthClientID = os.Getenv("MCAUTH_CLIENT_ID")
	if cfg.McAuthClientID == "" {
		missing = append(missing, "MCAUTH_CLIENT_ID")
	}

	cfg.McAuthClientSecret = os.Getenv("MCAUTH_CLIENT_SECRET")
	if cfg.McAuthClientSecret == "" {
		missing = append(missing, "MCAUTH_CLIENT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8091")
	cfg.StaticURL = strings.TrimSuffix(getEnvString("STATIC_URL", cfg.BaseURL), "/")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SkinAPIBaseURL = strings.TrimSuffix(getEnvString("SKIN_API_URL", "https://api.sprax2013.de"), "/")
	cfg.SkinAPITimeout = getEnvDuration("SKIN_API_TIMEOUT", 10*time.Second)
	cfg.McAuthBaseURL = strings.TrimSuffix(getEnvString("MCAUTH_BASE_URL", "https://mc-auth.com"), "/")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", defaultSessionMaxAge)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.DiscordErrorWebhookURL = os.Getenv("DISCORD_ERROR_WEBHOOK_URL")

	return cfg, nil
}

// SessionsEnabled はセッション永続化（ログイン機能）が有効かどうかを返す。
func (c *Config) SessionsEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
