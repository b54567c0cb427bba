package config

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/novabot-studio/web/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Backend.URL != DefaultBackendURL {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, DefaultBackendURL)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Auth.RefreshTimeout.Std() != 10*time.Second {
		t.Errorf("Auth.RefreshTimeout = %v, want 10s", cfg.Auth.RefreshTimeout.Std())
	}
	if cfg.Auth.RedirectStatus != http.StatusTemporaryRedirect {
		t.Errorf("Auth.RedirectStatus = %d, want 307", cfg.Auth.RedirectStatus)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := LoadEnv(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("LoadEnv() error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty without a config file", cfg.Path())
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, `{
  "backend": {"url": "https://api.example.com"},
  "server": {"addr": "127.0.0.1:8080", "upstream": "http://localhost:5173", "shutdownTimeout": "3s"},
  "auth": {"refreshTimeout": "2s"},
  "log": {"level": "debug", "format": "json"},
  "metrics": {"enabled": false}
}`)

	cfg, err := LoadEnv(dir, nil)
	if err != nil {
		t.Fatalf("LoadEnv() error: %v", err)
	}
	if cfg.Path() != filepath.Join(dir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
	if cfg.Backend.URL != "https://api.example.com" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.ValidatePath != "/api/auth/validate-session" {
		t.Errorf("unspecified file fields must keep defaults, got %q", cfg.Backend.ValidatePath)
	}
	if cfg.Server.ShutdownTimeout.Std() != 3*time.Second || cfg.Auth.RefreshTimeout.Std() != 2*time.Second {
		t.Errorf("durations = %v / %v", cfg.Server.ShutdownTimeout.Std(), cfg.Auth.RefreshTimeout.Std())
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics.enabled=false in the file must disable metrics")
	}
	if lvl, err := cfg.SlogLevel(); err != nil || lvl != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v", lvl, err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, `{"backend": `)

	_, err := LoadEnv(dir, nil)
	if errors.CodeOf(err) != "N100" {
		t.Fatalf("expected N100, got %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, `{"backend": {"url": "https://file.example.com"}, "server": {"addr": ":4000"}}`)

	cfg, err := LoadEnv(dir, map[string]string{
		"NOVAWEB_BACKEND_URL":          "https://env.example.com",
		"NOVAWEB_AUTH_REFRESH_TIMEOUT": "750ms",
		"NOVAWEB_METRICS_ENABLED":      "false",
		"NOVAWEB_REFRESH_TOKEN":        "rt",
		"NOVAWEB_SESSION_ID":           "sid",
		"BACKEND_URL":                  "https://unprefixed.example.com",
	})
	if err != nil {
		t.Fatalf("LoadEnv() error: %v", err)
	}
	if cfg.Backend.URL != "https://env.example.com" {
		t.Errorf("Backend.URL = %q, want env value", cfg.Backend.URL)
	}
	if cfg.Server.Addr != ":4000" {
		t.Errorf("Server.Addr = %q, want file value when env is unset", cfg.Server.Addr)
	}
	if cfg.Auth.RefreshTimeout.Std() != 750*time.Millisecond {
		t.Errorf("RefreshTimeout = %v", cfg.Auth.RefreshTimeout.Std())
	}
	if cfg.Metrics.Enabled {
		t.Error("NOVAWEB_METRICS_ENABLED=false must disable metrics")
	}
	if !cfg.Credentials.Complete() {
		t.Errorf("Credentials = %+v, want both set", cfg.Credentials)
	}
}

func TestLoad_DotEnvFillsGaps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DotEnvFileName, "NOVAWEB_SERVER_ADDR=:5000\nNOVAWEB_LOG_LEVEL=warn\n")

	cfg, err := LoadEnv(dir, map[string]string{"NOVAWEB_LOG_LEVEL": "error"})
	if err != nil {
		t.Fatalf("LoadEnv() error: %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("Server.Addr = %q, want .env value", cfg.Server.Addr)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, process env must win over .env", cfg.Log.Level)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	_, err := LoadEnv(t.TempDir(), map[string]string{"NOVAWEB_AUTH_REFRESH_TIMEOUT": "soon"})
	if errors.CodeOf(err) != "N105" {
		t.Fatalf("expected N105, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"bad backend scheme", func(c *Config) { c.Backend.URL = "ftp://x" }, "N101"},
		{"backend without host", func(c *Config) { c.Backend.URL = "http://" }, "N101"},
		{"bad upstream", func(c *Config) { c.Server.Upstream = "localhost:5173" }, "N102"},
		{"bad addr", func(c *Config) { c.Server.Addr = "3000" }, "N103"},
		{"zero timeout", func(c *Config) { c.Auth.RefreshTimeout = 0 }, "N104"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "N106"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "N106"},
		{"metrics on gated path", func(c *Config) { c.Metrics.Path = "/home/metrics" }, "N107"},
		{"metrics relative", func(c *Config) { c.Metrics.Path = "metrics" }, "N107"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if got := errors.CodeOf(err); got != tt.code {
				t.Fatalf("Validate() = %v, want code %s", err, tt.code)
			}
		})
	}

	t.Run("redirect status", func(t *testing.T) {
		cfg := New()
		cfg.Auth.RedirectStatus = http.StatusOK
		var ne *errors.NovaError
		if err := cfg.Validate(); !stderrors.As(err, &ne) || ne.Category != errors.CategoryConfig {
			t.Fatalf("Validate() = %v, want config error", err)
		}
	})

	t.Run("metrics path ignored when disabled", func(t *testing.T) {
		cfg := New()
		cfg.Metrics.Enabled = false
		cfg.Metrics.Path = "/home"
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() = %v", err)
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Server.Upstream = "http://localhost:5173"
	cfg.Credentials = CredentialsConfig{RefreshToken: "secret", SessionID: "secret"}

	path := filepath.Join(dir, ConfigFileName)
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := LoadEnv(dir, nil)
	if err != nil {
		t.Fatalf("LoadEnv() error: %v", err)
	}
	if loaded.Server.Upstream != cfg.Server.Upstream {
		t.Errorf("Upstream = %q", loaded.Server.Upstream)
	}
	if loaded.Server.ShutdownTimeout != cfg.Server.ShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v", loaded.Server.ShutdownTimeout.Std())
	}
	if loaded.Credentials.RefreshToken != "" {
		t.Error("credentials must never be written to the config file")
	}
}

func TestBackendURL(t *testing.T) {
	cfg := New()
	cfg.Backend.URL = "https://api.example.com/"
	if got := cfg.BackendURL().String(); got != "https://api.example.com" {
		t.Errorf("BackendURL() = %q", got)
	}
}
