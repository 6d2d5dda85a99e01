package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Telemetry  TelemetryConfig
	Ledger     LedgerConfig
	Settlement SettlementConfig
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
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	MigrateOnStart  bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds settings for verifying caller tokens. Tokens are issued
// elsewhere; this service only checks them.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool    // Expose Prometheus metrics on /metrics
}

// LedgerConfig holds the external ledger settings: the network, the operator
// (treasury) credentials and the mirror node used for reads.
type LedgerConfig struct {
	Network            string // mainnet, testnet, previewnet
	OperatorAccountID  string
	OperatorPrivateKey string
	TreasuryAccountID  string // defaults to the operator account
	SettlementTokenID  string
	SettlementDecimals int32
	MirrorURL          string
	MirrorTimeout      time.Duration
	TransferWindow     int // how many recent transfers the matcher scans
	SubmitTimeout      time.Duration

	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold uint32
}

// SettlementConfig holds settlement engine settings
type SettlementConfig struct {
	IdempotencyBackend   string // postgres, redis, memory
	IdempotencyKeyPrefix string
	RequestTimeout       time.Duration
}

var ledgerAccountPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PENTHOUSE_ prefix (e.g., PENTHOUSE_LEDGER_OPERATOR_PRIVATE_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

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

	return loadFromViper(v)
}

func loadFromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("PENTHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			MigrateOnStart:  v.GetBool("database.migrate_on_start"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
		},
		Ledger: LedgerConfig{
			Network:                 v.GetString("ledger.network"),
			OperatorAccountID:       v.GetString("ledger.operator_account_id"),
			OperatorPrivateKey:      v.GetString("ledger.operator_private_key"),
			TreasuryAccountID:       v.GetString("ledger.treasury_account_id"),
			SettlementTokenID:       v.GetString("ledger.settlement_token_id"),
			SettlementDecimals:      v.GetInt32("ledger.settlement_decimals"),
			MirrorURL:               v.GetString("ledger.mirror_url"),
			MirrorTimeout:           v.GetDuration("ledger.mirror_timeout"),
			TransferWindow:          v.GetInt("ledger.transfer_window"),
			SubmitTimeout:           v.GetDuration("ledger.submit_timeout"),
			BreakerMaxRequests:      v.GetUint32("ledger.breaker_max_requests"),
			BreakerInterval:         v.GetDuration("ledger.breaker_interval"),
			BreakerTimeout:          v.GetDuration("ledger.breaker_timeout"),
			BreakerFailureThreshold: v.GetUint32("ledger.breaker_failure_threshold"),
		},
		Settlement: SettlementConfig{
			IdempotencyBackend:   v.GetString("settlement.idempotency_backend"),
			IdempotencyKeyPrefix: v.GetString("settlement.idempotency_key_prefix"),
			RequestTimeout:       v.GetDuration("settlement.request_timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "penthouse-settlement"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "penthouse"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "penthouse-identity"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Settlement waits on the mirror and on ledger consensus.
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Ledger.Network == "" {
		cfg.Ledger.Network = "testnet"
	}
	if cfg.Ledger.TreasuryAccountID == "" {
		cfg.Ledger.TreasuryAccountID = cfg.Ledger.OperatorAccountID
	}
	if cfg.Ledger.SettlementDecimals == 0 {
		cfg.Ledger.SettlementDecimals = 6
	}
	if cfg.Ledger.MirrorURL == "" {
		cfg.Ledger.MirrorURL = mirrorURLFor(cfg.Ledger.Network)
	}
	if cfg.Ledger.MirrorTimeout == 0 {
		cfg.Ledger.MirrorTimeout = 10 * time.Second
	}
	if cfg.Ledger.TransferWindow == 0 {
		cfg.Ledger.TransferWindow = 10
	}
	if cfg.Ledger.SubmitTimeout == 0 {
		cfg.Ledger.SubmitTimeout = 30 * time.Second
	}
	if cfg.Ledger.BreakerMaxRequests == 0 {
		cfg.Ledger.BreakerMaxRequests = 1
	}
	if cfg.Ledger.BreakerInterval == 0 {
		cfg.Ledger.BreakerInterval = time.Minute
	}
	if cfg.Ledger.BreakerTimeout == 0 {
		cfg.Ledger.BreakerTimeout = 30 * time.Second
	}
	if cfg.Ledger.BreakerFailureThreshold == 0 {
		cfg.Ledger.BreakerFailureThreshold = 5
	}
	if cfg.Settlement.IdempotencyBackend == "" {
		cfg.Settlement.IdempotencyBackend = "postgres"
	}
	if cfg.Settlement.IdempotencyKeyPrefix == "" {
		cfg.Settlement.IdempotencyKeyPrefix = "settlement:processed:"
	}
	if cfg.Settlement.RequestTimeout == 0 {
		cfg.Settlement.RequestTimeout = 45 * time.Second
	}
}

func mirrorURLFor(network string) string {
	switch network {
	case "mainnet":
		return "https://mainnet-public.mirrornode.hedera.com"
	case "previewnet":
		return "https://previewnet.mirrornode.hedera.com"
	default:
		return "https://testnet.mirrornode.hedera.com"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
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

	switch c.Ledger.Network {
	case "mainnet", "testnet", "previewnet":
	default:
		return fmt.Errorf("ledger.network must be mainnet, testnet or previewnet, got %q", c.Ledger.Network)
	}
	for key, account := range map[string]string{
		"ledger.operator_account_id": c.Ledger.OperatorAccountID,
		"ledger.treasury_account_id": c.Ledger.TreasuryAccountID,
		"ledger.settlement_token_id": c.Ledger.SettlementTokenID,
	} {
		if account != "" && !ledgerAccountPattern.MatchString(account) {
			return fmt.Errorf("%s must look like shard.realm.num, got %q", key, account)
		}
	}
	if c.Ledger.SettlementDecimals < 0 || c.Ledger.SettlementDecimals > 18 {
		return fmt.Errorf("ledger.settlement_decimals must be between 0 and 18")
	}
	if c.Ledger.TransferWindow < 1 || c.Ledger.TransferWindow > 100 {
		return fmt.Errorf("ledger.transfer_window must be between 1 and 100 (mirror page size)")
	}
	if _, err := url.ParseRequestURI(c.Ledger.MirrorURL); err != nil {
		return fmt.Errorf("ledger.mirror_url is invalid: %w", err)
	}

	switch c.Settlement.IdempotencyBackend {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("settlement.idempotency_backend must be postgres, redis or memory, got %q", c.Settlement.IdempotencyBackend)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Ledger.OperatorAccountID == "" || c.Ledger.OperatorPrivateKey == "" {
			return fmt.Errorf("ledger operator account and private key are required in production")
		}
		if c.Ledger.SettlementTokenID == "" {
			return fmt.Errorf("ledger.settlement_token_id is required in production")
		}
		if c.Settlement.IdempotencyBackend == "memory" {
			return fmt.Errorf("settlement.idempotency_backend=memory cannot be used in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
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

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
