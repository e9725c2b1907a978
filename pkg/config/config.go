package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"FolioPull/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log        logger.Config `yaml:"log"`
	Ghostfolio struct {
		BaseURL        string        `yaml:"base_url" validate:"required,url"`
		AccessToken    string        `yaml:"access_token" validate:"required"`
		VerifySSL      bool          `yaml:"verify_ssl" default:"true"`
		UpdateInterval int           `yaml:"update_interval" default:"15" validate:"gte=1"` // minutes
		RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
		LockTTL        time.Duration `yaml:"lock_ttl" default:"2m"`
		Providers      []string      `yaml:"providers" default:"[\"YAHOO\",\"COINGECKO\",\"MANUAL\"]"`
	} `yaml:"ghostfolio"`
	Entry struct {
		ID            string `yaml:"id" default:"default" validate:"required"`
		PortfolioName string `yaml:"portfolio_name" default:"Ghostfolio"`
		BaseCurrency  string `yaml:"base_currency" default:"USD" validate:"len=3"`
		ShowTotals    bool   `yaml:"show_totals" default:"true"`
		ShowAccounts  bool   `yaml:"show_accounts" default:"true"`
		ShowHoldings  bool   `yaml:"show_holdings" default:"true"`
		ShowWatchlist bool   `yaml:"show_watchlist" default:"true"`
	} `yaml:"entry"`
	Maintenance struct {
		PruneBurst     int     `yaml:"prune_burst" default:"3" validate:"gte=1"`
		PrunePerMinute float64 `yaml:"prune_per_minute" default:"6"`
	} `yaml:"maintenance"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"foliopull"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"foliopull.events"`
		CommandTopic string   `yaml:"command_topic"`
		GroupID      string   `yaml:"group_id" default:"foliopull"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		MaxAttempts  int      `yaml:"max_attempts" default:"3"`
	} `yaml:"kafka"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. Missing keys take their
// `default` tag values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file in the working directory is loaded first when present.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("GHOSTFOLIO_BASE_URL"); v != "" {
		c.Ghostfolio.BaseURL = v
	}
	if v := getenv("GHOSTFOLIO_ACCESS_TOKEN"); v != "" {
		c.Ghostfolio.AccessToken = v
	}
	if v := getenv("GHOSTFOLIO_VERIFY_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Ghostfolio.VerifySSL = b
		}
	}
	if v := getenv("UPDATE_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Ghostfolio.UpdateInterval = n
		}
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, found := strings.Cut(v, ":")
		c.Redis.Enabled = true
		c.Redis.Host = host
		if found {
			if n, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = n
			}
		}
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if len(c.Ghostfolio.Providers) == 0 {
		return fmt.Errorf("ghostfolio.providers cannot be empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// UpdateInterval returns the refresh period.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.Ghostfolio.UpdateInterval) * time.Minute
}
