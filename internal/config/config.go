// Package config loads application configuration from environment
// variables and an optional config file via viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates all application settings.
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	DB     DBConfig
	JWT    JWTConfig
	Log    LogConfig
	Drafts DraftsConfig
	Alerts AlertsConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// IsDevelopment reports whether the app runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DBConfig holds PostgreSQL settings.
// If DatabaseURL is set it is used as the full connection string.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
}

// ConnectionString returns the DSN: DatabaseURL when set, otherwise built
// from the individual fields.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	// url.UserPassword handles special characters in the password
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig holds token validation settings.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// DraftsConfig holds purchase-order draft limits.
type DraftsConfig struct {
	// ManualCap is the maximum number of manual drafts per actor.
	ManualCap int
}

// AlertsConfig holds availability-alert thresholds.
type AlertsConfig struct {
	// DefaultOverstockThreshold applies when a product has no max level set.
	DefaultOverstockThreshold int64
}

// Load reads configuration from environment variables (prefix STOCKYARD_)
// and an optional config.yaml. Env vars take priority.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env vars may carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOCKYARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Name: v.GetString("app.name"),
		},
		HTTP: HTTPConfig{
			Host:            v.GetString("http.host"),
			Port:            v.GetInt("http.port"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		DB: DBConfig{
			DatabaseURL: v.GetString("db.url"),
			Host:        v.GetString("db.host"),
			Port:        v.GetInt("db.port"),
			User:        v.GetString("db.user"),
			Password:    v.GetString("db.password"),
			DBName:      v.GetString("db.name"),
			SSLMode:     v.GetString("db.sslmode"),
			MaxConns:    v.GetInt32("db.max_conns"),
			MinConns:    v.GetInt32("db.min_conns"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
			TTL:    v.GetDuration("jwt.ttl"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Drafts: DraftsConfig{
			ManualCap: v.GetInt("drafts.manual_cap"),
		},
		Alerts: AlertsConfig{
			DefaultOverstockThreshold: v.GetInt64("alerts.default_overstock_threshold"),
		},
	}

	if cfg.JWT.Secret == "" && !cfg.App.IsDevelopment() {
		return nil, fmt.Errorf("jwt.secret is required outside development")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "stockyard")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "stockyard")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 2)

	v.SetDefault("jwt.issuer", "stockyard")
	v.SetDefault("jwt.ttl", time.Hour)

	v.SetDefault("log.level", "info")

	v.SetDefault("drafts.manual_cap", 10)
	v.SetDefault("alerts.default_overstock_threshold", 100)
}
