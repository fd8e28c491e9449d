package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/assessment"
)

// FileName is the config file auto-discovered next to assessment input.
const FileName = "sos2a"

// EnvPrefix prefixes environment overrides, e.g. SOS2A_SERVER_PORT.
const EnvPrefix = "SOS2A"

// Config is the full application configuration.
type Config struct {
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Client   ClientConfig   `mapstructure:"client"`

	// Path is the config file that was read, empty when none was found.
	Path string `mapstructure:"-"`
}

// ScoringConfig controls the assessment engine.
type ScoringConfig struct {
	ReportType string                      `mapstructure:"report_type"`
	Industry   string                      `mapstructure:"industry"`
	Jitter     bool                        `mapstructure:"jitter"`
	Seed       int64                       `mapstructure:"seed"`
	MinScore   float64                     `mapstructure:"min_score"`
	Thresholds analysis.PriorityThresholds `mapstructure:"thresholds"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host         string          `mapstructure:"host"`
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig configures the token-bucket limiter.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// DatabaseConfig contains PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains draft-store configuration. An empty Addr keeps
// drafts in memory.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	DraftTTL time.Duration `mapstructure:"draft_ttl"`
}

// KafkaConfig contains report notification configuration.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LoggingConfig contains logger configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClientConfig configures the API client used by `sos2a submit`.
type ClientConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

func setDefaults(v *viper.Viper) {
	th := analysis.DefaultThresholds()
	v.SetDefault("scoring.report_type", assessment.ReportPreliminary)
	v.SetDefault("scoring.industry", "")
	v.SetDefault("scoring.jitter", false)
	v.SetDefault("scoring.seed", 0)
	v.SetDefault("scoring.min_score", analysis.NeedsImprovementThreshold)
	v.SetDefault("scoring.thresholds.critical", th.Critical)
	v.SetDefault("scoring.thresholds.high", th.High)
	v.SetDefault("scoring.thresholds.medium", th.Medium)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.rps", 50)
	v.SetDefault("server.rate_limit.burst", 100)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "sos2a")
	v.SetDefault("database.username", "sos2a")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.draft_ttl", "72h")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "sos2a.reports")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", "30s")
	v.SetDefault("client.max_retries", 3)
}

// Load reads configuration from configPath, or discovers sos2a.yaml next to
// inputPath, in ./config or in the working directory. Environment variables
// prefixed with SOS2A_ override file values.
func Load(configPath, inputPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		if dir := searchDir(inputPath); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Path = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func searchDir(inputPath string) string {
	if inputPath == "" {
		return ""
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return inputPath
	}
	return filepath.Dir(inputPath)
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	switch c.Scoring.ReportType {
	case assessment.ReportPreliminary, assessment.ReportComprehensive:
	default:
		return fmt.Errorf("scoring.report_type must be %q or %q, got %q",
			assessment.ReportPreliminary, assessment.ReportComprehensive, c.Scoring.ReportType)
	}
	if c.Scoring.MinScore < 0 || c.Scoring.MinScore > 100 {
		return fmt.Errorf("scoring.min_score must be within 0-100, got %v", c.Scoring.MinScore)
	}
	if err := c.Scoring.Thresholds.Validate(); err != nil {
		return fmt.Errorf("scoring.thresholds: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be within 1-65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		return errors.New("server.rate_limit: rps and burst must be positive when enabled")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) exceeds max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return errors.New("kafka: brokers and topic are required when enabled")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("client.max_retries must be non-negative, got %d", c.Client.MaxRetries)
	}
	return nil
}

// DSN builds the lib/pq key/value connection string. Values are quoted so
// spaces, quotes and backslashes survive.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dsnQuote(d.Host), d.Port, dsnQuote(d.Username), dsnQuote(d.Password),
		dsnQuote(d.Database), dsnQuote(d.SSLMode))
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func dsnQuote(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

// URL builds the postgres:// URL form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
