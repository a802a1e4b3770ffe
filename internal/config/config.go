package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"spese/internal/clock"
	"spese/internal/log"
	"spese/internal/storage"
)

// Backend names accepted by DataBackend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ValidBackends lists the accepted DataBackend values.
var ValidBackends = []string{BackendFile, BackendSQLite, BackendMemory}

// maxStartupDelay bounds the wait before the ledger is first loaded.
const maxStartupDelay = time.Minute

type Config struct {
	// HTTP Server, loopback only unless Host says otherwise
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`

	// Persistence
	DataBackend  string `mapstructure:"data_backend"`
	DataDir      string `mapstructure:"data_dir"`
	SQLiteDBPath string `mapstructure:"sqlite_db_path"`
	SnapshotKey  string `mapstructure:"snapshot_key"`

	// Ledger
	StartupDelay time.Duration `mapstructure:"startup_delay"`
	Timezone     string        `mapstructure:"timezone"`
	DateLocale   string        `mapstructure:"date_locale"`
	DateLayout   string        `mapstructure:"date_layout"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`
}

// Load reads configuration from defaults, an optional config file named by
// SPESE_CONFIG and environment variables prefixed with SPESE_ (highest
// precedence).
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", "8081")
	v.SetDefault("data_backend", BackendFile)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("sqlite_db_path", "./data/spese.db")
	v.SetDefault("snapshot_key", storage.DefaultKey)
	v.SetDefault("startup_delay", 1500*time.Millisecond)
	v.SetDefault("timezone", "Local")
	v.SetDefault("date_locale", clock.DefaultLocale)
	v.SetDefault("date_layout", clock.DefaultLayout)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "spese")
	v.SetDefault("amqp_queue", "ledger_events")

	v.SetEnvPrefix("SPESE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("SPESE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.Host) == "" {
		errors = append(errors, "host cannot be empty")
	} else if strings.ContainsAny(c.Host, " /:") && net.ParseIP(c.Host) == nil {
		errors = append(errors, fmt.Sprintf("invalid host '%s': must be an IP address or a host name", c.Host))
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range ValidBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}

	if c.DataBackend == BackendFile && c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty when using file backend")
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if strings.TrimSpace(c.SnapshotKey) == "" {
		errors = append(errors, "snapshot key cannot be empty")
	}

	if c.StartupDelay < 0 || c.StartupDelay > maxStartupDelay {
		errors = append(errors, fmt.Sprintf("invalid startup delay %v: must be between 0 and %v", c.StartupDelay, maxStartupDelay))
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
		}
	}
	if !clock.IsSupportedLocale(c.DateLocale) {
		errors = append(errors, fmt.Sprintf("unsupported date locale '%s'", c.DateLocale))
	}
	if strings.TrimSpace(c.DateLayout) == "" {
		errors = append(errors, "date layout cannot be empty")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// EventsEnabled reports whether change events should be published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}
