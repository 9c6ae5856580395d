package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PIEZA_SEARCH_URL.
const EnvPrefix = "PIEZA"

// Config holds the web front end settings.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	SearchURL     string // empty: built-in demo catalog
	SearchTimeout time.Duration

	SessionTTL      time.Duration
	SessionCapacity int
	SecureCookie    bool

	RedisAddr   string // empty: in-memory session snapshots
	KafkaBroker string // empty: search events disabled
	KafkaTopic  string

	DataDir string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("search.url", "")
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.capacity", 10000)
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("kafka.broker", "")
	v.SetDefault("kafka.topic", "pieza.search.completed")
	v.SetDefault("data.dir", "./data")
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present), the optional config file, then builds a Config.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("http.addr"),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		SearchURL:       strings.TrimRight(v.GetString("search.url"), "/"),
		SearchTimeout:   v.GetDuration("search.timeout"),
		SessionTTL:      v.GetDuration("session.ttl"),
		SessionCapacity: v.GetInt("session.capacity"),
		SecureCookie:    v.GetBool("session.secure_cookie"),
		RedisAddr:       v.GetString("redis.addr"),
		KafkaBroker:     v.GetString("kafka.broker"),
		KafkaTopic:      v.GetString("kafka.topic"),
		DataDir:         v.GetString("data.dir"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	if c.SearchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("search.timeout must be positive, got %s", c.SearchTimeout))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session.ttl must be positive, got %s", c.SessionTTL))
	}
	if c.SessionCapacity <= 0 {
		errs = append(errs, fmt.Errorf("session.capacity must be positive, got %d", c.SessionCapacity))
	}
	if c.KafkaBroker != "" && c.KafkaTopic == "" {
		errs = append(errs, errors.New("kafka.topic is required when kafka.broker is set"))
	}
	return errors.Join(errs...)
}

// DemoMode reports whether searches are served by the built-in catalog.
func (c *Config) DemoMode() bool {
	return c.SearchURL == ""
}
