package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.OperatingOpen != "10:00" || cfg.OperatingClose != "20:00" {
		t.Errorf("operating hours = %s-%s, want 10:00-20:00", cfg.OperatingOpen, cfg.OperatingClose)
	}
	if cfg.BookingHorizonDays != 90 {
		t.Errorf("BookingHorizonDays = %d, want 90", cfg.BookingHorizonDays)
	}
	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Errorf("CatalogCacheTTL = %s, want 5m", cfg.CatalogCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BOOKING_HORIZON_DAYS", "30")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CATALOG_CACHE_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.example.com, https://staff.example.com")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.BookingHorizonDays != 30 {
		t.Errorf("BookingHorizonDays = %d, want 30", cfg.BookingHorizonDays)
	}
	if !cfg.RedisTLS {
		t.Errorf("RedisTLS = false, want true")
	}
	if cfg.CatalogCacheTTL != 90*time.Second {
		t.Errorf("CatalogCacheTTL = %s, want 90s", cfg.CatalogCacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staff.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("BOOKING_HORIZON_DAYS", "ninety")
	t.Setenv("CATALOG_CACHE_TTL", "soon")

	cfg := Load()

	if cfg.BookingHorizonDays != 90 {
		t.Errorf("BookingHorizonDays = %d, want fallback 90", cfg.BookingHorizonDays)
	}
	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Errorf("CatalogCacheTTL = %s, want fallback 5m", cfg.CatalogCacheTTL)
	}
}
