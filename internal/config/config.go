// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアの種類
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreRedis    = "redis"
)

// minSessionSecretLen はセッションCookie署名鍵の最小バイト数。
const minSessionSecretLen = 32

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	CommentStore  string
	SessionStore  string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	// OIDC
	OIDCClientName   string
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	OIDCAuthURL      string
	OIDCTokenURL     string
	OIDCJWKSURL      string
	OIDCScopes       []string
	OIDCRoleClaim    string

	// Session
	SessionSecret          string
	SessionMaxAge          int
	SessionCleanupInterval time.Duration

	// Moderation
	ModerationScope      string
	ModeratorRoles       []string
	ModerationPolicyFile string

	// Frontend
	ArticleAPIKey string
	StaticPath    string
	TemplatePath  string

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// ENV_FILE（デフォルト .env）が存在すれば先に読み込む。既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	envFile := getEnvString("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load env file",
			slog.String("file", envFile),
			slog.String("error", err.Error()),
		)
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	require := func(dst *string, key string) {
		*dst = os.Getenv(key)
		if *dst == "" {
			missing = append(missing, key)
		}
	}

	require(&cfg.OIDCIssuer, "OIDC_ISSUER")
	require(&cfg.OIDCClientID, "OIDC_CLIENT_ID")
	require(&cfg.OIDCClientSecret, "OIDC_CLIENT_SECRET")
	require(&cfg.OIDCRedirectURL, "OIDC_REDIRECT_URL")
	require(&cfg.SessionSecret, "SESSION_SECRET")
	require(&cfg.BaseURL, "BASE_URL")

	cfg.CommentStore = strings.ToLower(getEnvString("COMMENT_STORE", StorePostgres))
	cfg.SessionStore = strings.ToLower(getEnvString("SESSION_STORE", StorePostgres))

	switch cfg.CommentStore {
	case StorePostgres, StoreMongo:
	default:
		return nil, fmt.Errorf("unsupported COMMENT_STORE: %q", cfg.CommentStore)
	}
	switch cfg.SessionStore {
	case StorePostgres, StoreRedis:
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE: %q", cfg.SessionStore)
	}

	// ストアの選択に応じて接続先が必須になる
	if cfg.CommentStore == StorePostgres || cfg.SessionStore == StorePostgres {
		require(&cfg.DatabaseURL, "DATABASE_URL")
	} else {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.CommentStore == StoreMongo {
		require(&cfg.MongoURI, "MONGO_URI")
	}
	if cfg.SessionStore == StoreRedis {
		require(&cfg.RedisURL, "REDIS_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if len(cfg.SessionSecret) < minSessionSecretLen {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen)
	}

	// Optional fields with defaults
	cfg.MongoDatabase = getEnvString("MONGO_DATABASE", "")
	cfg.OIDCClientName = getEnvString("OIDC_CLIENT_NAME", "dex")
	cfg.OIDCAuthURL = getEnvString("OIDC_AUTH_URL", "")
	cfg.OIDCTokenURL = getEnvString("OIDC_TOKEN_URL", "")
	cfg.OIDCJWKSURL = getEnvString("OIDC_JWKS_URL", "")
	cfg.OIDCScopes = strings.Fields(getEnvString("OIDC_SCOPES", "openid email profile"))
	cfg.OIDCRoleClaim = getEnvString("OIDC_ROLE_CLAIM", "username")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.ModerationScope = getEnvString("MODERATION_SCOPE", "all")
	cfg.ModeratorRoles = getEnvList("MODERATOR_ROLES", []string{"admin", "moderator"})
	cfg.ModerationPolicyFile = getEnvString("MODERATION_POLICY_FILE", "")
	cfg.ArticleAPIKey = getEnvString("NYT_API_KEY", "")
	cfg.StaticPath = getEnvString("STATIC_PATH", "static")
	cfg.TemplatePath = getEnvString("TEMPLATE_PATH", "templates")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8000")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
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

// getEnvList はカンマ区切りの環境変数を読み込む。空要素は無視する。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
