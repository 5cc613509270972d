package textbulker

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/textbulker/textbulker/auth"
	"github.com/textbulker/textbulker/plugin"
)

// Config holds all configuration for a TextBulker site.
type Config struct {
	Addr         string `yaml:"addr"`          // Listen address (default ":8080")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/textbulker.db")
	RESTPrefix   string `yaml:"rest_prefix"`   // REST API root (default "/wp-json")

	AdminPassword string `yaml:"admin_password"` // Required to serve: admin login password
	SessionSecret string `yaml:"session_secret"` // Required to serve: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	// ActivePlugins lists the plugin files considered active,
	// e.g. "wordpress-seo/wp-seo.php".
	ActivePlugins []string       `yaml:"active_plugins"`
	APIUsers      []auth.APIUser `yaml:"api_users"`

	SettingsCacheTTL time.Duration `yaml:"settings_cache_ttl"` // default 30s
	LogLevel         string        `yaml:"log_level"`          // default "info"
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/textbulker.db"
	}
	if c.RESTPrefix == "" {
		c.RESTPrefix = "/wp-json"
	}
	c.RESTPrefix = "/" + strings.Trim(c.RESTPrefix, "/")
	if c.SettingsCacheTTL == 0 {
		c.SettingsCacheTTL = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// validateServe checks the settings only needed to serve HTTP.
func (c *Config) validateServe() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("textbulker: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("textbulker: SessionSecret is required")
	}
	return nil
}

// applyEnvOverrides lets TEXTBULKER_* variables override file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TEXTBULKER_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("TEXTBULKER_DB"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("TEXTBULKER_REST_PREFIX"); v != "" {
		c.RESTPrefix = v
	}
	if v := os.Getenv("TEXTBULKER_ADMIN_PASSWORD"); v != "" {
		c.AdminPassword = v
	}
	if v := os.Getenv("TEXTBULKER_SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv("TEXTBULKER_COOKIE_SECURE"); v != "" {
		c.CookieSecure = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TEXTBULKER_ACTIVE_PLUGINS"); v != "" {
		c.ActivePlugins = FilterEmpty(strings.Split(v, ","))
	}
	if v := os.Getenv("TEXTBULKER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// LoadConfig reads the YAML file at path (skipped when path is empty),
// applies environment overrides and fills defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("textbulker: read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("textbulker: parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	cfg.setDefaults()
	return cfg, nil
}

// NewLogger builds a production zap logger at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("textbulker: log level: %w", err)
	}
	cfg.Level = lvl
	return cfg.Build()
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithPluginDetector replaces the detector built from Config.ActivePlugins.
func WithPluginDetector(d plugin.PluginDetector) Option {
	return func(a *App) {
		a.detector = d
	}
}

// WithLogger sets the application logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}
