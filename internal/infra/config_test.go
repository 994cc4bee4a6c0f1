package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %s, want 8080", cfg.Port)
	}
	if cfg.DefaultImageProvider != "openai" {
		t.Fatalf("default image provider = %s, want openai", cfg.DefaultImageProvider)
	}
	if cfg.DefaultVideoProvider != "runway" {
		t.Fatalf("default video provider = %s, want runway", cfg.DefaultVideoProvider)
	}
	if cfg.MaxConcurrent != 3 {
		t.Fatalf("max concurrent = %d, want 3", cfg.MaxConcurrent)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Fatalf("jwt expiry = %v, want 24h", cfg.JWTExpiry)
	}
	if len(cfg.ImageFallbacks) != 2 {
		t.Fatalf("image fallbacks = %v, want two entries", cfg.ImageFallbacks)
	}
}

func TestLoadConfigReadsProviderKeys(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("RUNWAY_API_KEY", "rw-key")
	t.Setenv("STABLE_VIDEO_API_KEY", "sv-key")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RunwayAPIKey != "rw-key" {
		t.Fatalf("runway key = %q", cfg.RunwayAPIKey)
	}
	if cfg.StableVideoAPIKey != "sv-key" {
		t.Fatalf("stable video key = %q", cfg.StableVideoAPIKey)
	}
}

func TestLoadConfigParsesLists(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("IMAGE_FALLBACK_PROVIDERS", "stablediffusion, midjourney ,")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"stablediffusion", "midjourney"}
	if len(cfg.ImageFallbacks) != len(want) {
		t.Fatalf("fallbacks = %v, want %v", cfg.ImageFallbacks, want)
	}
	for i := range want {
		if cfg.ImageFallbacks[i] != want[i] {
			t.Fatalf("fallbacks[%d] = %s, want %s", i, cfg.ImageFallbacks[i], want[i])
		}
	}
}
