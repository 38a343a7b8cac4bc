package config

import (
	"strings"
	"testing"
	"time"
)

// setRequiredEnv は必須環境変数を全て設定する。
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/stampman?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EMOTION_SERVICE_URL", "http://localhost:9001")
	t.Setenv("STICKER_SERVICE_URL", "http://localhost:9002")
}

func TestLoad_AllRequired_Succeeds(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabaseURL == "" || cfg.RedisURL == "" || cfg.JWTSecret == "" {
		t.Error("required fields should be populated")
	}
}

func TestLoad_MissingRequired_ListsAllMissing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required variables")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error should mention DATABASE_URL: %v", err)
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error should mention JWT_SECRET: %v", err)
	}
}

func TestLoad_Defaults_AreApplied(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.CacheTTL != 1*time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.ServiceTimeout != 5*time.Second {
		t.Errorf("ServiceTimeout = %v, want 5s", cfg.ServiceTimeout)
	}
	if cfg.StickerRating != "g" {
		t.Errorf("StickerRating = %q, want g", cfg.StickerRating)
	}
	if cfg.BackfillTimeout != 10*time.Second {
		t.Errorf("BackfillTimeout = %v, want 10s", cfg.BackfillTimeout)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitRecommend != 30 {
		t.Errorf("RateLimitRecommend = %d, want 30", cfg.RateLimitRecommend)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want http://localhost:3000", cfg.CORSAllowedOrigin)
	}
}

func TestLoad_Overrides_AreRespected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("RATE_LIMIT_RECOMMEND", "5")
	t.Setenv("STICKER_RATING", "pg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("CacheTTL = %v, want 30m", cfg.CacheTTL)
	}
	if cfg.RateLimitRecommend != 5 {
		t.Errorf("RateLimitRecommend = %d, want 5", cfg.RateLimitRecommend)
	}
	if cfg.StickerRating != "pg" {
		t.Errorf("StickerRating = %q, want pg", cfg.StickerRating)
	}
}

func TestLoad_InvalidDuration_FallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.CacheTTL != 1*time.Hour {
		t.Errorf("CacheTTL = %v, want default 1h", cfg.CacheTTL)
	}
}
