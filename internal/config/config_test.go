package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "screener.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2026, cfg.Screening.FPLYear)
	assert.Equal(t, int64(524000), cfg.Screening.PerPersonIncrementCents)
	assert.Equal(t, "data/programs.json", cfg.Screening.ProgramsPath)
	assert.Equal(t, "data/asset_limits.yaml", cfg.Screening.AssetLimitsPath)
	assert.Equal(t, 60, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.Retries)
	assert.InDelta(t, 2.0, cfg.Fetch.RequestsPerSec, 0.001)
	assert.Contains(t, cfg.Fetch.GuidelinesURL, "aspe.hhs.gov")
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/screener
log:
  level: debug
  format: console
server:
  port: 9090
screening:
  fpl_year: 2025
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2025, cfg.Screening.FPLYear)
	// Defaults still apply for unset values
	assert.Equal(t, int64(524000), cfg.Screening.PerPersonIncrementCents)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SCREENER_STORE_DRIVER", "postgres")
	t.Setenv("SCREENER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("SCREENER_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "screener.db"
	cfg.Screening.FPLYear = 2026
	cfg.Screening.PerPersonIncrementCents = 524000
	cfg.Screening.ProgramsPath = "data/programs.json"
	cfg.Screening.RulesPath = "data/rules.json"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateScreen_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("screen"))
}

func TestValidateScreen_MissingPaths(t *testing.T) {
	cfg := validDefaults()
	cfg.Screening.ProgramsPath = ""
	cfg.Screening.RulesPath = ""

	err := cfg.Validate("screen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "programs_path is required")
	assert.Contains(t, err.Error(), "rules_path is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateSync_MissingNotion(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.token is required")
	assert.Contains(t, err.Error(), "notion.question_db is required")
}

func TestValidateFPLSync_NeedsSource(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("fplsync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guidelines_url or fetch.ftp_host")

	cfg.Fetch.FTPHost = "ftp.example.gov"
	assert.NoError(t, cfg.Validate("fplsync"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateBadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("screen")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}
