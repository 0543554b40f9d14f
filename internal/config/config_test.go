package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()
	if cfg.DefaultVAT != 8 {
		t.Fatalf("DefaultVAT = %v, want 8", cfg.DefaultVAT)
	}
	if cfg.BusinessTimezone != "Asia/Ho_Chi_Minh" {
		t.Fatalf("BusinessTimezone = %q, want Asia/Ho_Chi_Minh", cfg.BusinessTimezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DEFAULT_VAT_PERCENTAGE", "10")
	t.Setenv("BUSINESS_TIMEZONE", "Asia/Bangkok")

	cfg := Load()
	if cfg.DefaultVAT != 10 {
		t.Fatalf("DefaultVAT = %v, want 10", cfg.DefaultVAT)
	}
	if cfg.BusinessTimezone != "Asia/Bangkok" {
		t.Fatalf("BusinessTimezone = %q, want Asia/Bangkok", cfg.BusinessTimezone)
	}
}
