// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 業務ロジック内からは環境変数を直接参照せず、必ずこの構造体を経由する。
type Config struct {
	// Database
	DatabaseURL string

	// Cache
	RedisURL string
	CacheTTL time.Duration

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// 外部サービス
	EmotionServiceURL string
	StickerServiceURL string
	ServiceTimeout    time.Duration
	StickerRating     string

	// キャッシュ非同期書き戻し
	BackfillTimeout time.Duration

	// Rate Limit（req/min/user）
	RateLimitGeneral   int
	RateLimitRecommend int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.EmotionServiceURL = os.Getenv("EMOTION_SERVICE_URL")
	if cfg.EmotionServiceURL == "" {
		missing = append(missing, "EMOTION_SERVICE_URL")
	}

	cfg.StickerServiceURL = os.Getenv("STICKER_SERVICE_URL")
	if cfg.StickerServiceURL == "" {
		missing = append(missing, "STICKER_SERVICE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", 1*time.Hour)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.ServiceTimeout = getEnvDuration("SERVICE_TIMEOUT", 5*time.Second)
	cfg.StickerRating = getEnvString("STICKER_RATING", "g")
	cfg.BackfillTimeout = getEnvDuration("BACKFILL_TIMEOUT", 10*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitRecommend = getEnvInt("RATE_LIMIT_RECOMMEND", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

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
