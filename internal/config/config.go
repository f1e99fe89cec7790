// Package config loads service configuration from config.yml with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort       = 8001
	defaultServerTimeout    = 30 * time.Second
	defaultDatabasePort     = 5432
	defaultMaxOpenConns     = 25
	defaultMaxIdleConns     = 5
	defaultConnMaxLifetime  = 5 * time.Minute
	defaultMaxItems         = 50
	defaultJaccardThreshold = 0.6
	defaultDedupCacheSize   = 4096
	defaultLeadsDir         = "./leads"
	defaultResolverTimeout  = 15 * time.Second
	defaultRedisAddress     = "localhost:6379"
)

// Config is the root configuration for the ingestion service.
type Config struct {
	Debug    bool           `mapstructure:"debug"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Dedup    DedupConfig    `mapstructure:"dedup"`
	Spiders  SpidersConfig  `mapstructure:"spiders"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis settings for optional job event publishing.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"` // feature flag for event publishing
}

// PipelineConfig holds ingestion pipeline settings.
type PipelineConfig struct {
	DefaultMaxItems  int           `mapstructure:"default_max_items"`
	ResolveRedirects bool          `mapstructure:"resolve_redirects"`
	ResolverTimeout  time.Duration `mapstructure:"resolver_timeout"`
}

// DedupConfig holds deduplication policy settings. The secondary
// name/description heuristic carries false-positive risk and is off by
// default until product requirements say otherwise.
type DedupConfig struct {
	SecondaryEnabled bool    `mapstructure:"secondary_enabled"`
	JaccardThreshold float64 `mapstructure:"jaccard_threshold"`
	CacheSize        int     `mapstructure:"cache_size"`
}

// SpidersConfig locates the output of the external extraction layer.
type SpidersConfig struct {
	LeadsDir string `mapstructure:"leads_dir"`
}

// Load reads config.yml (path optional) and applies env overrides.
// A missing config file is not an error; defaults and env carry the day.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INGESTOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && path != "" {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Dedup.JaccardThreshold <= 0 || c.Dedup.JaccardThreshold > 1 {
		return errors.New("dedup.jaccard_threshold must be in (0, 1]")
	}
	if c.Pipeline.DefaultMaxItems <= 0 {
		return errors.New("pipeline.default_max_items must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", defaultDatabasePort)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "tool_ingestor")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", defaultConnMaxLifetime)

	v.SetDefault("redis.address", defaultRedisAddress)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("pipeline.default_max_items", defaultMaxItems)
	v.SetDefault("pipeline.resolve_redirects", true)
	v.SetDefault("pipeline.resolver_timeout", defaultResolverTimeout)

	v.SetDefault("dedup.secondary_enabled", false)
	v.SetDefault("dedup.jaccard_threshold", defaultJaccardThreshold)
	v.SetDefault("dedup.cache_size", defaultDedupCacheSize)

	v.SetDefault("spiders.leads_dir", defaultLeadsDir)
}
