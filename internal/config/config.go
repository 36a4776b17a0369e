package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benefitsnav/screener-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Screening ScreeningConfig `yaml:"screening" mapstructure:"screening"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ScreeningConfig tunes the eligibility engine.
type ScreeningConfig struct {
	FPLYear                 int    `yaml:"fpl_year" mapstructure:"fpl_year"`
	PerPersonIncrementCents int64  `yaml:"per_person_increment_cents" mapstructure:"per_person_increment_cents"`
	ProgramsPath            string `yaml:"programs_path" mapstructure:"programs_path"`
	RulesPath               string `yaml:"rules_path" mapstructure:"rules_path"`
	FPLPath                 string `yaml:"fpl_path" mapstructure:"fpl_path"`
	AssetLimitsPath         string `yaml:"asset_limits_path" mapstructure:"asset_limits_path"`
	JargonPath              string `yaml:"jargon_path" mapstructure:"jargon_path"`
}

// NotionConfig holds Notion API credentials and database IDs.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	QuestionDB string `yaml:"question_db" mapstructure:"question_db"`
}

// FetchConfig configures poverty-guideline downloads.
type FetchConfig struct {
	GuidelinesURL  string  `yaml:"guidelines_url" mapstructure:"guidelines_url"`
	FTPHost        string  `yaml:"ftp_host" mapstructure:"ftp_host"`
	FTPPath        string  `yaml:"ftp_path" mapstructure:"ftp_path"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries        int     `yaml:"retries" mapstructure:"retries"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// ServerConfig configures the screening API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCREENER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "screener.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("screening.fpl_year", 2026)
	v.SetDefault("screening.per_person_increment_cents", 524000)
	v.SetDefault("screening.programs_path", "data/programs.json")
	v.SetDefault("screening.rules_path", "data/rules.json")
	v.SetDefault("screening.fpl_path", "data/fpl.json")
	v.SetDefault("screening.asset_limits_path", "data/asset_limits.yaml")
	v.SetDefault("screening.jargon_path", "data/jargon.yaml")
	v.SetDefault("fetch.guidelines_url", "https://aspe.hhs.gov/topics/poverty-economic-mobility/poverty-guidelines")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.retries", 3)
	v.SetDefault("fetch.requests_per_sec", 2)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a command mode depends on and reports every
// problem at once. Modes: "screen", "serve", "sync", "fplsync".
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	// Shared engine settings.
	check(c.Screening.FPLYear >= 2000, "screening.fpl_year must be a four-digit year")
	check(c.Screening.PerPersonIncrementCents > 0, "screening.per_person_increment_cents must be > 0")
	check(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres",
		fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))

	switch mode {
	case "screen":
		check(c.Screening.ProgramsPath != "", "screening.programs_path is required")
		check(c.Screening.RulesPath != "", "screening.rules_path is required")
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	case "sync":
		check(c.Notion.Token != "", "notion.token is required")
		check(c.Notion.QuestionDB != "", "notion.question_db is required")
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	case "fplsync":
		check(c.Fetch.GuidelinesURL != "" || c.Fetch.FTPHost != "",
			"fetch.guidelines_url or fetch.ftp_host is required")
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
