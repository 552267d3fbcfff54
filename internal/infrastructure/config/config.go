package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Telemetry   TelemetryConfig
	Storage     StorageConfig
	Forwarder   ForwarderConfig
	Profit      ProfitConfig
	Worker      WorkerConfig
	Marketplace MarketplaceConfig
	Fulfillment FulfillmentConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string `validate:"required,numeric"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string `validate:"required"`
	Port            int    `validate:"gt=0"`
	User            string
	Password        string
	DBName          string `validate:"required"`
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int `validate:"gte=0"`
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	// RateLimit is requests per second per client IP; zero disables limiting
	RateLimit      float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces and metrics
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only, disable in prod for security)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
}

// StorageConfig holds S3-compatible object storage settings for shipment receipts
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string `validate:"required_if=Enabled true"`
	AccessKey    string `validate:"required_if=Enabled true"`
	SecretKey    string `validate:"required_if=Enabled true"`
	UseSSL       bool
	UsePathStyle bool
	Prefix       string
}

// ForwarderConfig holds forwarder gateway and adapter settings
type ForwarderConfig struct {
	RateTimeout       time.Duration
	ShipmentTimeout   time.Duration
	TrackingTimeout   time.Duration
	HTTPTimeout       time.Duration
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gt=0"`
	UserAgent         string
	// EstimateDeliveryDays is reported on fallback rate quotes
	EstimateDeliveryDays int `validate:"gt=0"`
}

// ProfitConfig holds the landed-cost policy constants
type ProfitConfig struct {
	Currency                string  `validate:"len=3"`
	ShippingBaseRate        float64 `validate:"gte=0"`
	ShippingPerKgRate       float64 `validate:"gte=0"`
	InsuranceRate           float64 `validate:"gte=0,lt=1"`
	ProcessingFeeRate       float64 `validate:"gte=0,lt=1"`
	RepackPerKgRate         float64 `validate:"gte=0"`
	RepackFeeCap            float64 `validate:"gte=0"`
	MarketplaceFeeRate      float64 `validate:"gte=0,lt=1"`
	MinimumMarginRate       float64 `validate:"gte=0,lt=1"`
	DefaultTargetProfitRate float64 `validate:"gte=0,lt=1"`
	// UseGatewayShipping prices shipping from forwarder quotes instead of the linear model
	UseGatewayShipping bool
	GatewayProvider    string `validate:"required_if=UseGatewayShipping true"`
}

// WorkerConfig holds the adaptive queue worker parameters
type WorkerConfig struct {
	Enabled          bool
	BatchSize        int `validate:"gt=0"`
	MinDelay         time.Duration
	MaxDelay         time.Duration
	IdleDelay        time.Duration
	MaxRetries       int `validate:"gt=0"`
	BackoffThreshold int `validate:"gt=0"`
	BreakerThreshold int `validate:"gtefield=BackoffThreshold"`
	RefreshTimeout   time.Duration
	MaxRunDuration   time.Duration
}

// MarketplaceConfig holds the marketplace and supplier API clients settings
type MarketplaceConfig struct {
	BaseURL           string `validate:"omitempty,url"`
	APIToken          string
	SupplierBaseURL   string `validate:"omitempty,url"`
	SupplierAPIToken  string
	Timeout           time.Duration
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gt=0"`
}

// FulfillmentConfig holds saga settings
type FulfillmentConfig struct {
	RemoveBranding          bool
	MaxTrackingSyncAttempts int `validate:"gt=0"`
	LockEnabled             bool
	LockTTL                 time.Duration
	DeliveryMonitorEnabled  bool
	DeliveryMonitorInterval time.Duration
	DeliveryMonitorBatch    int `validate:"gt=0"`
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DDP_ prefix (e.g., DDP_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Boolean defaults that are true cannot be told apart from unset after reading
	v.SetDefault("fulfillment.remove_branding", true)
	v.SetDefault("worker.enabled", true)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Enable environment variable override
	v.SetEnvPrefix("DDP")
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
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("storage.enabled"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			Prefix:       v.GetString("storage.prefix"),
		},
		Forwarder: ForwarderConfig{
			RateTimeout:          v.GetDuration("forwarder.rate_timeout"),
			ShipmentTimeout:      v.GetDuration("forwarder.shipment_timeout"),
			TrackingTimeout:      v.GetDuration("forwarder.tracking_timeout"),
			HTTPTimeout:          v.GetDuration("forwarder.http_timeout"),
			RequestsPerSecond:    v.GetFloat64("forwarder.requests_per_second"),
			Burst:                v.GetInt("forwarder.burst"),
			UserAgent:            v.GetString("forwarder.user_agent"),
			EstimateDeliveryDays: v.GetInt("forwarder.estimate_delivery_days"),
		},
		Profit: ProfitConfig{
			Currency:                v.GetString("profit.currency"),
			ShippingBaseRate:        v.GetFloat64("profit.shipping_base_rate"),
			ShippingPerKgRate:       v.GetFloat64("profit.shipping_per_kg_rate"),
			InsuranceRate:           v.GetFloat64("profit.insurance_rate"),
			ProcessingFeeRate:       v.GetFloat64("profit.processing_fee_rate"),
			RepackPerKgRate:         v.GetFloat64("profit.repack_per_kg_rate"),
			RepackFeeCap:            v.GetFloat64("profit.repack_fee_cap"),
			MarketplaceFeeRate:      v.GetFloat64("profit.marketplace_fee_rate"),
			MinimumMarginRate:       v.GetFloat64("profit.minimum_margin_rate"),
			DefaultTargetProfitRate: v.GetFloat64("profit.default_target_profit_rate"),
			UseGatewayShipping:      v.GetBool("profit.use_gateway_shipping"),
			GatewayProvider:         v.GetString("profit.gateway_provider"),
		},
		Worker: WorkerConfig{
			Enabled:          v.GetBool("worker.enabled"),
			BatchSize:        v.GetInt("worker.batch_size"),
			MinDelay:         v.GetDuration("worker.min_delay"),
			MaxDelay:         v.GetDuration("worker.max_delay"),
			IdleDelay:        v.GetDuration("worker.idle_delay"),
			MaxRetries:       v.GetInt("worker.max_retries"),
			BackoffThreshold: v.GetInt("worker.backoff_threshold"),
			BreakerThreshold: v.GetInt("worker.breaker_threshold"),
			RefreshTimeout:   v.GetDuration("worker.refresh_timeout"),
			MaxRunDuration:   v.GetDuration("worker.max_run_duration"),
		},
		Marketplace: MarketplaceConfig{
			BaseURL:           v.GetString("marketplace.base_url"),
			APIToken:          v.GetString("marketplace.api_token"),
			SupplierBaseURL:   v.GetString("marketplace.supplier_base_url"),
			SupplierAPIToken:  v.GetString("marketplace.supplier_api_token"),
			Timeout:           v.GetDuration("marketplace.timeout"),
			RequestsPerSecond: v.GetFloat64("marketplace.requests_per_second"),
			Burst:             v.GetInt("marketplace.burst"),
		},
		Fulfillment: FulfillmentConfig{
			RemoveBranding:          v.GetBool("fulfillment.remove_branding"),
			MaxTrackingSyncAttempts: v.GetInt("fulfillment.max_tracking_sync_attempts"),
			LockEnabled:             v.GetBool("fulfillment.lock_enabled"),
			LockTTL:                 v.GetDuration("fulfillment.lock_ttl"),
			DeliveryMonitorEnabled:  v.GetBool("fulfillment.delivery_monitor_enabled"),
			DeliveryMonitorInterval: v.GetDuration("fulfillment.delivery_monitor_interval"),
			DeliveryMonitorBatch:    v.GetInt("fulfillment.delivery_monitor_batch"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ddp-backend"
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
		cfg.Database.DBName = "ddp"
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
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
	if cfg.HTTP.WriteTimeout == 0 {
		// booking calls may take up to the 60s shipment timeout
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = max(1, int(cfg.HTTP.RateLimit*2))
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "ddp-backend"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "shipments"
	}

	if cfg.Forwarder.RateTimeout == 0 {
		cfg.Forwarder.RateTimeout = 30 * time.Second
	}
	if cfg.Forwarder.ShipmentTimeout == 0 {
		cfg.Forwarder.ShipmentTimeout = 60 * time.Second
	}
	if cfg.Forwarder.TrackingTimeout == 0 {
		cfg.Forwarder.TrackingTimeout = 30 * time.Second
	}
	if cfg.Forwarder.HTTPTimeout == 0 {
		cfg.Forwarder.HTTPTimeout = 60 * time.Second
	}
	if cfg.Forwarder.RequestsPerSecond == 0 {
		cfg.Forwarder.RequestsPerSecond = 5
	}
	if cfg.Forwarder.Burst == 0 {
		cfg.Forwarder.Burst = 5
	}
	if cfg.Forwarder.UserAgent == "" {
		cfg.Forwarder.UserAgent = "ddp-backend/1.0"
	}
	if cfg.Forwarder.EstimateDeliveryDays == 0 {
		cfg.Forwarder.EstimateDeliveryDays = 10
	}

	applyProfitDefaults(&cfg.Profit)

	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = 10
	}
	if cfg.Worker.MinDelay == 0 {
		cfg.Worker.MinDelay = 5 * time.Second
	}
	if cfg.Worker.MaxDelay == 0 {
		cfg.Worker.MaxDelay = 60 * time.Second
	}
	if cfg.Worker.IdleDelay == 0 {
		cfg.Worker.IdleDelay = 30 * time.Second
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.BackoffThreshold == 0 {
		cfg.Worker.BackoffThreshold = 3
	}
	if cfg.Worker.BreakerThreshold == 0 {
		cfg.Worker.BreakerThreshold = 5
	}
	if cfg.Worker.RefreshTimeout == 0 {
		cfg.Worker.RefreshTimeout = 30 * time.Second
	}

	if cfg.Marketplace.Timeout == 0 {
		cfg.Marketplace.Timeout = 30 * time.Second
	}
	if cfg.Marketplace.RequestsPerSecond == 0 {
		cfg.Marketplace.RequestsPerSecond = 1
	}
	if cfg.Marketplace.Burst == 0 {
		cfg.Marketplace.Burst = 1
	}

	if cfg.Fulfillment.MaxTrackingSyncAttempts == 0 {
		cfg.Fulfillment.MaxTrackingSyncAttempts = 5
	}
	if cfg.Fulfillment.LockTTL == 0 {
		cfg.Fulfillment.LockTTL = 5 * time.Minute
	}
	if cfg.Fulfillment.DeliveryMonitorInterval == 0 {
		cfg.Fulfillment.DeliveryMonitorInterval = time.Hour
	}
	if cfg.Fulfillment.DeliveryMonitorBatch == 0 {
		cfg.Fulfillment.DeliveryMonitorBatch = 50
	}
}

func applyProfitDefaults(p *ProfitConfig) {
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.ShippingBaseRate == 0 {
		p.ShippingBaseRate = 15
	}
	if p.ShippingPerKgRate == 0 {
		p.ShippingPerKgRate = 8
	}
	if p.InsuranceRate == 0 {
		p.InsuranceRate = 0.05
	}
	if p.ProcessingFeeRate == 0 {
		p.ProcessingFeeRate = 0.20
	}
	if p.RepackPerKgRate == 0 {
		p.RepackPerKgRate = 2
	}
	if p.RepackFeeCap == 0 {
		p.RepackFeeCap = 5
	}
	if p.MarketplaceFeeRate == 0 {
		p.MarketplaceFeeRate = 0.15
	}
	if p.MinimumMarginRate == 0 {
		p.MinimumMarginRate = 0.05
	}
	if p.DefaultTargetProfitRate == 0 {
		p.DefaultTargetProfitRate = 0.20
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Validate connection pool settings
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

	if c.Worker.MaxDelay < c.Worker.MinDelay {
		return fmt.Errorf("worker.max_delay (%s) cannot be below worker.min_delay (%s)", c.Worker.MaxDelay, c.Worker.MinDelay)
	}
	if c.Profit.MarketplaceFeeRate+c.Profit.DefaultTargetProfitRate >= 1 {
		return fmt.Errorf("profit.marketplace_fee_rate + profit.default_target_profit_rate must be below 1")
	}
	if c.Profit.MarketplaceFeeRate+c.Profit.MinimumMarginRate >= 1 {
		return fmt.Errorf("profit.marketplace_fee_rate + profit.minimum_margin_rate must be below 1")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
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
