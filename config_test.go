package textbulker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "data/textbulker.db", cfg.DatabasePath)
	assert.Equal(t, "/wp-json", cfg.RESTPrefix)
	assert.Equal(t, 30*time.Second, cfg.SettingsCacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textbulker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
rest_prefix: "api/"
admin_password: from-file
settings_cache_ttl: 5s
active_plugins:
  - wordpress-seo/wp-seo.php
api_users:
  - name: publisher
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
    role: editor
`), 0o644))

	t.Setenv("TEXTBULKER_ADMIN_PASSWORD", "from-env")
	t.Setenv("TEXTBULKER_ACTIVE_PLUGINS", "seo-by-rank-math/rank-math.php, wordpress-seo/wp-seo.php ,")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/api", cfg.RESTPrefix)
	assert.Equal(t, "from-env", cfg.AdminPassword)
	assert.Equal(t, 5*time.Second, cfg.SettingsCacheTTL)
	assert.Equal(t, []string{"seo-by-rank-math/rank-math.php", "wordpress-seo/wp-seo.php"}, cfg.ActivePlugins)
	require.Len(t, cfg.APIUsers, 1)
	assert.Equal(t, "editor", cfg.APIUsers[0].Role)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateServe(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.validateServe())
	cfg.AdminPassword = "x"
	assert.Error(t, cfg.validateServe())
	cfg.SessionSecret = "y"
	assert.NoError(t, cfg.validateServe())
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
