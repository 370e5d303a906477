package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Log          LogConfig
	Stock        StockConfig
	Budget       BudgetConfig
	Notification NotificationConfig
	Telemetry    TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings.
// An empty Host disables Redis and low-stock alerts are throttled in memory.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig controls forwarding of domain events to Kafka
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// StockConfig holds stock ledger settings
type StockConfig struct {
	MaxRetries int           // retries on optimistic-lock conflicts
	AlertTTL   time.Duration // window in which one low-stock alert per item is sent
}

// BudgetConfig holds budget expiry settings
type BudgetConfig struct {
	Validity      time.Duration // how long a sent budget stays open
	SweepInterval time.Duration // how often the expiry sweep runs
	SweepBatch    int
}

// NotificationConfig selects how customer notifications are delivered
type NotificationConfig struct {
	Driver       string // log, smtp
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
	AlertTo      []string // recipients of low-stock alerts
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	LogsEnabled       bool    // Export logs through the OTLP bridge
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool    // Include bound SQL values in spans and statement logs (dev only)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with OFICINA_ prefix (e.g., OFICINA_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("OFICINA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "oficina-backend")
	v.SetDefault("app.env", "development")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "oficina")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "file::memory:?cache=shared")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.conn_max_idle_time", 30)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "oficina.domain-events")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("stock.max_retries", 3)
	v.SetDefault("stock.alert_ttl", 24*time.Hour)

	v.SetDefault("budget.validity", 7*24*time.Hour)
	v.SetDefault("budget.sweep_interval", time.Hour)
	v.SetDefault("budget.sweep_batch", 100)

	v.SetDefault("notification.driver", "log")
	v.SetDefault("notification.smtp_host", "")
	v.SetDefault("notification.smtp_port", 587)
	v.SetDefault("notification.smtp_user", "")
	v.SetDefault("notification.smtp_password", "")
	v.SetDefault("notification.from", "oficina@localhost")
	v.SetDefault("notification.alert_to", []string{})

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.service_name", "oficina-backend")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.logs_enabled", false)
	v.SetDefault("telemetry.db_trace_enabled", false)
	v.SetDefault("telemetry.db_log_full_sql", false)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("kafka.enabled"),
			Brokers: v.GetStringSlice("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Stock: StockConfig{
			MaxRetries: v.GetInt("stock.max_retries"),
			AlertTTL:   v.GetDuration("stock.alert_ttl"),
		},
		Budget: BudgetConfig{
			Validity:      v.GetDuration("budget.validity"),
			SweepInterval: v.GetDuration("budget.sweep_interval"),
			SweepBatch:    v.GetInt("budget.sweep_batch"),
		},
		Notification: NotificationConfig{
			Driver:       v.GetString("notification.driver"),
			SMTPHost:     v.GetString("notification.smtp_host"),
			SMTPPort:     v.GetInt("notification.smtp_port"),
			SMTPUser:     v.GetString("notification.smtp_user"),
			SMTPPassword: v.GetString("notification.smtp_password"),
			From:         v.GetString("notification.from"),
			AlertTo:      v.GetStringSlice("notification.alert_to"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
	}
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Stock.MaxRetries < 0 {
		return fmt.Errorf("stock.max_retries cannot be negative")
	}
	if c.Stock.AlertTTL <= 0 {
		return fmt.Errorf("stock.alert_ttl must be positive")
	}
	if c.Budget.Validity <= 0 {
		return fmt.Errorf("budget.validity must be positive")
	}
	if c.Budget.SweepInterval <= 0 {
		return fmt.Errorf("budget.sweep_interval must be positive")
	}
	if c.Budget.SweepBatch <= 0 {
		return fmt.Errorf("budget.sweep_batch must be positive")
	}

	switch c.Notification.Driver {
	case "log":
	case "smtp":
		if c.Notification.SMTPHost == "" {
			return fmt.Errorf("notification.smtp_host is required when notification.driver is smtp")
		}
		if c.Notification.From == "" {
			return fmt.Errorf("notification.from is required when notification.driver is smtp")
		}
	default:
		return fmt.Errorf("notification.driver must be log or smtp, got %q", c.Notification.Driver)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}

	if c.App.Env == "production" {
		if c.Database.Driver == DriverSQLite {
			return fmt.Errorf("database.driver sqlite is not allowed in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsSQLite reports whether the sqlite driver is configured
func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == DriverSQLite
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.SQLitePath
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
