package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("http addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Dispatch.FineResolution != 11 || cfg.Dispatch.CoarseResolution != 9 {
		t.Errorf("resolutions = %d/%d, want 11/9",
			cfg.Dispatch.FineResolution, cfg.Dispatch.CoarseResolution)
	}
	if cfg.Dispatch.StalenessSeconds != 120 {
		t.Errorf("staleness = %d, want 120", cfg.Dispatch.StalenessSeconds)
	}
	if cfg.Dispatch.EvictionCutoffSeconds != 300 {
		t.Errorf("eviction cutoff = %d, want 300", cfg.Dispatch.EvictionCutoffSeconds)
	}
	if cfg.Dispatch.EvictionPeriodSeconds != 60 {
		t.Errorf("eviction period = %d, want 60", cfg.Dispatch.EvictionPeriodSeconds)
	}
	if cfg.Dispatch.RatingTieThreshold != 0.3 {
		t.Errorf("rating threshold = %v, want 0.3", cfg.Dispatch.RatingTieThreshold)
	}
	if cfg.Dispatch.SpeedFloorKmh != 20.0 {
		t.Errorf("speed floor = %v, want 20", cfg.Dispatch.SpeedFloorKmh)
	}
	if cfg.Dispatch.TrafficCoefficient != 0.05 {
		t.Errorf("traffic coefficient = %v, want 0.05", cfg.Dispatch.TrafficCoefficient)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GET2YA_HTTP_ADDR", ":9090")
	t.Setenv("GET2YA_DISPATCH_EVICTION_PERIOD_SECONDS", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("http addr = %q, want :9090", cfg.HTTP.Addr)
	}
	if cfg.Dispatch.EvictionPeriodSeconds != 15 {
		t.Errorf("eviction period = %d, want 15", cfg.Dispatch.EvictionPeriodSeconds)
	}
}
