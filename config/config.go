package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Email    EmailConfig    `mapstructure:"email"`
	Record   RecordConfig   `mapstructure:"record"`
	Airtable AirtableConfig `mapstructure:"airtable"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Operator OperatorConfig `mapstructure:"operator"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// StripeConfig holds billing-provider credentials. An empty WebhookSecret
// disables signature verification.
type StripeConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	WebhookSecret      string        `mapstructure:"webhook_secret"`
	SignatureTolerance time.Duration `mapstructure:"signature_tolerance"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"` // app password for Gmail
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// Addr returns the SMTP address string.
func (e EmailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Sender returns From, falling back to the SMTP username.
func (e EmailConfig) Sender() string {
	if e.From != "" {
		return e.From
	}
	return e.Username
}

// Recipient returns To, falling back to the sender address.
func (e EmailConfig) Recipient() string {
	if e.To != "" {
		return e.To
	}
	return e.Sender()
}

// Record backends.
const (
	RecordBackendAirtable = "airtable"
	RecordBackendPostgres = "postgres"
)

type RecordConfig struct {
	Backend string `mapstructure:"backend"` // airtable, postgres
}

type AirtableConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseID  string        `mapstructure:"base_id"`
	Table   string        `mapstructure:"table"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 = no client-side timeout
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// OperatorConfig protects /logs and /test. Empty JWTSecret leaves them open.
type OperatorConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Sink failure modes.
const (
	SinkFailurePerSinkIndependent = "per_sink_independent"
	SinkFailureAnyFailureFails    = "any_failure_fails"
	SinkFailureAllMustSucceed     = "all_must_succeed"
)

type NotifyConfig struct {
	SinkFailureMode string `mapstructure:"sink_failure_mode"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PFM_ (Payment Failure Monitor).
// Nested keys use underscore: PFM_STRIPE_WEBHOOK_SECRET, PFM_AIRTABLE_BASE_ID, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("stripe.api_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.signature_tolerance", "5m")
	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.to", "")
	v.SetDefault("record.backend", RecordBackendAirtable)
	v.SetDefault("airtable.api_key", "")
	v.SetDefault("airtable.base_id", "")
	v.SetDefault("airtable.table", "Failed Payments")
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	v.SetDefault("airtable.timeout", "0s")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payment_failures")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("operator.jwt_secret", "")
	v.SetDefault("operator.issuer", "payment-failure-monitor")
	v.SetDefault("operator.token_ttl", "24h")
	v.SetDefault("notify.sink_failure_mode", SinkFailurePerSinkIndependent)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PFM_STRIPE_WEBHOOK_SECRET -> stripe.webhook_secret
	v.SetEnvPrefix("PFM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required: env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects enum values the rest of the program cannot interpret.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q", c.Server.Mode)
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	switch c.Record.Backend {
	case RecordBackendAirtable, RecordBackendPostgres:
	default:
		return fmt.Errorf("invalid record.backend %q", c.Record.Backend)
	}
	switch c.Notify.SinkFailureMode {
	case SinkFailurePerSinkIndependent, SinkFailureAnyFailureFails, SinkFailureAllMustSucceed:
	default:
		return fmt.Errorf("invalid notify.sink_failure_mode %q", c.Notify.SinkFailureMode)
	}
	return nil
}
