package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/novabot-studio/web/internal/errors"
	"github.com/novabot-studio/web/pkg/authmw"
)

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "novaweb.json"

	// DotEnvFileName is the optional environment file next to it.
	DotEnvFileName = ".env"

	// EnvPrefix prefixes every environment variable this package reads.
	EnvPrefix = "NOVAWEB_"

	// DefaultBackendURL is the backend used when none is configured.
	DefaultBackendURL = "http://localhost:8000"

	// DefaultAddr is the default gateway listen address.
	DefaultAddr = ":3000"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"
)

// Duration is a time.Duration that reads and writes as a string like "10s"
// in both JSON and environment variables.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the complete novaweb configuration.
type Config struct {
	Backend     BackendConfig     `json:"backend" envPrefix:"BACKEND_"`
	Server      ServerConfig      `json:"server" envPrefix:"SERVER_"`
	Auth        AuthConfig        `json:"auth" envPrefix:"AUTH_"`
	Log         LogConfig         `json:"log" envPrefix:"LOG_"`
	Metrics     MetricsConfig     `json:"metrics" envPrefix:"METRICS_"`
	Credentials CredentialsConfig `json:"-"`

	// configPath stores the path the file layer was loaded from, if any.
	configPath string
}

// BackendConfig locates the Nova backend.
type BackendConfig struct {
	URL            string `json:"url,omitempty" env:"URL"`
	ValidatePath   string `json:"validatePath,omitempty" env:"VALIDATE_PATH"`
	BotSummaryPath string `json:"botSummaryPath,omitempty" env:"BOT_SUMMARY_PATH"`
}

// ServerConfig configures the gateway listener.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" env:"ADDR"`

	// Upstream is the page server requests are proxied to once past the
	// gate. Empty serves built-in placeholder pages.
	Upstream string `json:"upstream,omitempty" env:"UPSTREAM"`

	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" env:"SHUTDOWN_TIMEOUT"`
}

// AuthConfig tunes the session client and the edge gate.
type AuthConfig struct {
	RefreshTimeout Duration `json:"refreshTimeout,omitempty" env:"REFRESH_TIMEOUT"`
	RedirectStatus int      `json:"redirectStatus,omitempty" env:"REDIRECT_STATUS"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level,omitempty" env:"LEVEL"`
	Format string `json:"format,omitempty" env:"FORMAT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" env:"ENABLED"`
	Path    string `json:"path,omitempty" env:"PATH"`
}

// CredentialsConfig holds session cookie values for CLI commands.
type CredentialsConfig struct {
	RefreshToken string `env:"REFRESH_TOKEN"`
	SessionID    string `env:"SESSION_ID"`
}

// Complete reports whether both session cookies are set.
func (c CredentialsConfig) Complete() bool {
	return c.RefreshToken != "" && c.SessionID != ""
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:            DefaultBackendURL,
			ValidatePath:   "/api/auth/validate-session",
			BotSummaryPath: "/api/bots/details",
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Auth: AuthConfig{
			RefreshTimeout: Duration(10 * time.Second),
			RedirectStatus: http.StatusTemporaryRedirect,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}

// Load reads configuration for the project in dir using the process
// environment.
func Load(dir string) (*Config, error) {
	return LoadEnv(dir, processEnv())
}

// LoadEnv is Load with an explicit environment. Values from dir/.env are
// used only for keys environ does not contain.
func LoadEnv(dir string, environ map[string]string) (*Config, error) {
	cfg := New()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("N100").
				WithDetail("Failed to parse " + path).
				Wrap(err)
		}
		cfg.configPath = path
	case !stderrors.Is(err, fs.ErrNotExist):
		return nil, errors.New("N100").Wrap(err)
	}

	merged, err := withDotEnv(filepath.Join(dir, DotEnvFileName), environ)
	if err != nil {
		return nil, errors.New("N105").
			WithDetail("Failed to read " + DotEnvFileName).
			Wrap(err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: merged,
	}); err != nil {
		return nil, errors.New("N105").Wrap(err)
	}

	return cfg, nil
}

// withDotEnv overlays environ on top of the .env file at path.
func withDotEnv(path string, environ map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(environ))
	values, err := godotenv.Read(path)
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for k, v := range values {
		merged[k] = v
	}
	for k, v := range environ {
		merged[k] = v
	}
	return merged, nil
}

func processEnv() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// Path returns the file the config was loaded from, or "" when no
// novaweb.json was found.
func (c *Config) Path() string {
	return c.configPath
}

// Save writes the file layer of the configuration to path.
// Credentials are never written.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("N100").Wrap(err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("N100").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if err := checkHTTPURL(c.Backend.URL); err != nil {
		return errors.New("N101").
			WithDetailf("backend.url %q: %v", c.Backend.URL, err)
	}
	if c.Server.Upstream != "" {
		if err := checkHTTPURL(c.Server.Upstream); err != nil {
			return errors.New("N102").
				WithDetailf("server.upstream %q: %v", c.Server.Upstream, err)
		}
	}
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return errors.New("N103").
			WithDetailf("server.addr %q: %v", c.Server.Addr, err)
	}
	if c.Auth.RefreshTimeout <= 0 {
		return errors.New("N104").
			WithDetailf("got %s", c.Auth.RefreshTimeout.Std())
	}
	if s := c.Auth.RedirectStatus; s < 300 || s > 399 {
		return errors.Newf(errors.CategoryConfig, "auth.redirectStatus %d is not a 3xx status", s)
	}
	if _, err := c.SlogLevel(); err != nil {
		return errors.New("N106").WithDetail(err.Error())
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		return errors.New("N106").WithDetailf("log.format %q", f)
	}
	if c.Metrics.Enabled {
		p := c.Metrics.Path
		if !strings.HasPrefix(p, "/") || authmw.DefaultRules().Matches(p) {
			return errors.New("N107").WithDetailf("metrics.path %q", p)
		}
	}
	return nil
}

// SlogLevel parses log.level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// BackendURL returns the parsed backend URL. It assumes Validate passed.
func (c *Config) BackendURL() *url.URL {
	u, _ := url.Parse(strings.TrimRight(c.Backend.URL, "/"))
	return u
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
