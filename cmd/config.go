package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"deliveryhub/internal/core/domain/model/delivery"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	HTTPPort int
	LogLevel slog.Level

	DB       DB
	RabbitMQ RabbitMQ
	Retry    Retry
	Jobs     Jobs

	Store      Store
	Chaskis    Chaskis
	UberDirect UberDirect

	// SkipTolerant lists providers whose webhooks may jump over intermediate statuses.
	SkipTolerant []delivery.Provider
}

type DB struct {
	Host    string
	Port    string
	User    string
	Pass    string
	Name    string
	SslMode string
}

// DSN renders the settings in the keyword/value form the postgres driver accepts.
func (db DB) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Pass, db.Name, db.SslMode)
}

// RabbitMQ is optional; an empty URL makes status changes go to the log only.
type RabbitMQ struct {
	URL      string
	Exchange string
}

type Retry struct {
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	MaxDispatchAttempts int
}

type Jobs struct {
	DispatchSchedule  string
	DispatchBatchSize int
	PollingSchedule   string
	RoundTimeout      time.Duration
	Concurrency       int
}

type Store struct {
	Fee             string
	Currency        string
	DropoffEta      time.Duration
	OpensAt         time.Duration
	ClosesAt        time.Duration
	TimeZone        string
	TrackingBaseURL string
}

type Chaskis struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type UberDirect struct {
	BaseURL    string
	CustomerID string
	Token      string
	Timeout    time.Duration
}

// LoadConfig reads configuration in order: .env (if present) → environment → flags.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env not loaded", "error", err)
	}

	cfg := &Config{
		HTTPPort: envInt("HTTP_PORT", DefaultHTTPPort()),
		LogLevel: slog.LevelInfo,
		DB: DB{
			Host:    envString("DB_HOST", defaultDB.Host),
			Port:    envString("DB_PORT", defaultDB.Port),
			User:    envString("DB_USER", defaultDB.User),
			Pass:    envString("DB_PASSWORD", defaultDB.Pass),
			Name:    envString("DB_NAME", defaultDB.Name),
			SslMode: envString("DB_SSLMODE", defaultDB.SslMode),
		},
		RabbitMQ: RabbitMQ{
			URL:      os.Getenv("RABBITMQ_URL"),
			Exchange: os.Getenv("RABBITMQ_EXCHANGE"),
		},
		Retry: Retry{
			MaxAttempts:         envInt("PROVIDER_RETRY_MAX_ATTEMPTS", defaultRetry.MaxAttempts),
			InitialInterval:     envDuration("PROVIDER_RETRY_INITIAL_INTERVAL", defaultRetry.InitialInterval),
			MaxInterval:         envDuration("PROVIDER_RETRY_MAX_INTERVAL", defaultRetry.MaxInterval),
			MaxDispatchAttempts: envInt("MAX_DISPATCH_ATTEMPTS", defaultRetry.MaxDispatchAttempts),
		},
		Jobs: Jobs{
			DispatchSchedule:  envString("JOB_DISPATCH_SCHEDULE", defaultJobs.DispatchSchedule),
			DispatchBatchSize: envInt("JOB_DISPATCH_BATCH_SIZE", defaultJobs.DispatchBatchSize),
			PollingSchedule:   envString("JOB_POLLING_SCHEDULE", defaultJobs.PollingSchedule),
			RoundTimeout:      envDuration("JOB_ROUND_TIMEOUT", defaultJobs.RoundTimeout),
			Concurrency:       envInt("JOB_CONCURRENCY", defaultJobs.Concurrency),
		},
		Store: Store{
			Fee:             envString("STORE_FEE", defaultStore.Fee),
			Currency:        envString("STORE_CURRENCY", defaultStore.Currency),
			DropoffEta:      envDuration("STORE_DROPOFF_ETA", defaultStore.DropoffEta),
			OpensAt:         envDuration("STORE_OPENS_AT", defaultStore.OpensAt),
			ClosesAt:        envDuration("STORE_CLOSES_AT", defaultStore.ClosesAt),
			TimeZone:        envString("STORE_TIME_ZONE", defaultStore.TimeZone),
			TrackingBaseURL: os.Getenv("STORE_TRACKING_BASE_URL"),
		},
		Chaskis: Chaskis{
			BaseURL: os.Getenv("CHASKIS_BASE_URL"),
			APIKey:  os.Getenv("CHASKIS_API_KEY"),
			Timeout: envDuration("CHASKIS_TIMEOUT", defaultProviderTimeout),
		},
		UberDirect: UberDirect{
			BaseURL:    os.Getenv("UBER_DIRECT_BASE_URL"),
			CustomerID: os.Getenv("UBER_DIRECT_CUSTOMER_ID"),
			Token:      os.Getenv("UBER_DIRECT_TOKEN"),
			Timeout:    envDuration("UBER_DIRECT_TIMEOUT", defaultProviderTimeout),
		},
	}

	logLevel := envString("LOG_LEVEL", "info")
	skipTolerant := envString("SKIP_TOLERANT_PROVIDERS", "")

	pflag.IntVarP(&cfg.HTTPPort, "port", "p", cfg.HTTPPort, "port to listen on")
	pflag.StringVar(&logLevel, "log-level", logLevel, "debug, info, warn or error")
	pflag.StringVar(&cfg.RabbitMQ.URL, "rabbitmq-url", cfg.RabbitMQ.URL, "AMQP URL for status events (empty logs them)")
	pflag.StringVar(&skipTolerant, "skip-tolerant", skipTolerant, "comma-separated providers allowed to skip statuses")
	pflag.Parse()

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	providers, err := parseProviders(skipTolerant)
	if err != nil {
		return nil, err
	}
	cfg.SkipTolerant = providers

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errList []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errList = append(errList, fmt.Errorf("invalid port: %d", c.HTTPPort))
	}
	if c.Retry.MaxAttempts <= 0 {
		errList = append(errList, fmt.Errorf("invalid provider retry attempts: %d", c.Retry.MaxAttempts))
	}
	if c.Retry.MaxDispatchAttempts <= 0 {
		errList = append(errList, fmt.Errorf("invalid max dispatch attempts: %d", c.Retry.MaxDispatchAttempts))
	}
	if c.Jobs.DispatchBatchSize <= 0 {
		errList = append(errList, fmt.Errorf("invalid dispatch batch size: %d", c.Jobs.DispatchBatchSize))
	}
	return errors.Join(errList...)
}

func parseProviders(list string) ([]delivery.Provider, error) {
	var providers []delivery.Provider
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := delivery.ParseProvider(name)
		if err != nil {
			return nil, fmt.Errorf("skip-tolerant providers: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
