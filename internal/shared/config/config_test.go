package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"PORT", "ENV", "GRADE_THRESHOLD", "DEFAULT_TARGET_GRADE", "USE_SYNTHETIC_DATA", "OBJECT_STORE", "RATE_LIMIT_PER_MIN"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" || cfg.Env != "dev" || cfg.ObjectStoreType != "local" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.GradeThreshold != 85 || cfg.DefaultTargetGrade != 85 || !cfg.UseSyntheticData {
		t.Fatalf("unexpected grade defaults: %+v", cfg)
	}
	if cfg.RateLimitPerMin != 120 || cfg.MaxSyllabusBytes != 10<<20 {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("GRADE_THRESHOLD", "82.5")
	t.Setenv("USE_SYNTHETIC_DATA", "false")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RATE_LIMIT_PER_MIN", "nope")

	cfg := Load()
	if cfg.Env != "production" || cfg.ObjectStoreType != "s3" {
		t.Fatalf("unexpected normalization: %+v", cfg)
	}
	if cfg.GradeThreshold != 82.5 || cfg.UseSyntheticData {
		t.Fatalf("unexpected grade config: %+v", cfg)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("expected invalid rate limit to fall back, got %d", cfg.RateLimitPerMin)
	}
}

func TestLoadReadsDotEnvWithoutOverridingProcess(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := "ALERT_EMAIL=\"me@example.com\"\n# comment\nPORT=9999\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "7000")
	t.Setenv("ALERT_EMAIL", "")
	os.Unsetenv("ALERT_EMAIL")

	cfg := Load()
	if cfg.AlertEmail != "me@example.com" {
		t.Fatalf("expected ALERT_EMAIL from .env, got %q", cfg.AlertEmail)
	}
	if cfg.Port != "7000" {
		t.Fatalf("expected process PORT to win, got %q", cfg.Port)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
