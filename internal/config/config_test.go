package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":8082" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.MySQL.Enabled() {
		t.Error("mysql should be disabled without DB_HOST")
	}
	if cfg.Redis.Enabled() {
		t.Error("redis should be disabled without REDIS_ADDR")
	}
	if cfg.AI.HistoryLimit != 4 {
		t.Errorf("historyLimit = %d", cfg.AI.HistoryLimit)
	}
	if cfg.AI.FallbackReply == "" {
		t.Error("fallback reply must have a default")
	}
	if cfg.Voice.BaseURL != "https://openai.qiniu.com/v1" {
		t.Errorf("voice baseURL = %q", cfg.Voice.BaseURL)
	}
	if cfg.Voice.ASRRetries != 3 {
		t.Errorf("asr retries = %d", cfg.Voice.ASRRetries)
	}
	if cfg.Storage.Retries != 3 {
		t.Errorf("storage retries = %d", cfg.Storage.Retries)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestPortForms(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("PORT", "9090")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}

	t.Setenv("PORT", "127.0.0.1:7000")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db.local", Port: 3307, User: "app", Password: "pw", Database: "roleverse"}
	want := "app:pw@tcp(db.local:3307)/roleverse?charset=utf8mb4&parseTime=True&loc=Local"
	if got := c.DSN(); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

func TestConfigFileFallbackAndEnvPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[auth]\njwt_secret = \"from-file\"\n\n[voice]\nqiniu_api_key = \"file-key\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("QINIU_API_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("jwtSecret = %q, want file value", cfg.Auth.JWTSecret)
	}
	// 环境变量优先于配置文件。
	if cfg.Voice.APIKey != "env-key" {
		t.Errorf("apiKey = %q, want env value", cfg.Voice.APIKey)
	}
}
