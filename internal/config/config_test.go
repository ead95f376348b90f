package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_DRIVER", "REDIS_URI", "SESSION_TTL_MIN"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StoreDriver != StoreMongo {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreMongo)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
}

func TestLoad_StripsRedisScheme(t *testing.T) {
	t.Setenv("REDIS_URI", "redis://cache:6379")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RedisAddr != "cache:6379" {
		t.Errorf("RedisAddr = %q, want cache:6379", cfg.RedisAddr)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown STORE_DRIVER")
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL_MIN", "soon")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ReportCacheTTL != time.Hour {
		t.Errorf("ReportCacheTTL = %v, want 1h", cfg.ReportCacheTTL)
	}
}

func TestDefaultAIConfig_DisabledWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if DefaultAIConfig().IsEnabled() {
		t.Error("IsEnabled = true without key")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	if !DefaultAIConfig().IsEnabled() {
		t.Error("IsEnabled = false with key")
	}
}

func TestLoadPrompts_EmptyPathReturnsDefaults(t *testing.T) {
	p, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	if p.SystemPrompt != defaultSystemPrompt {
		t.Error("SystemPrompt differs from default")
	}
	if !strings.Contains(p.ImageInstruction, "VALID_PALM") {
		t.Error("image instruction lost its tokens")
	}
}

func TestLoadPrompts_OverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "welcome: \"Hi there\"\napology: \"Oops\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	if p.Welcome != "Hi there" || p.Apology != "Oops" {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.RetakeAck != DefaultPrompts().RetakeAck {
		t.Error("RetakeAck should keep its default")
	}
}

func TestLoadPrompts_MissingFile(t *testing.T) {
	if _, err := LoadPrompts(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
