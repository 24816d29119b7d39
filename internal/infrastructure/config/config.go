package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	ServiceName string
	LogLevel    string
	LogFormat   string
	LockBackend string // "memory" or "redis"
	EventSink   string // "outbox" or "kafka"

	DB        DBConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	Telemetry TelemetryConfig
	TLS       TLSConfig
	Penalty   PenaltyConfig
	Sweep     SweepConfig

	GRPCPort         int
	HTTPPort         int
	BatchParallelism int
	ExcludeSaturdays bool
	GRPCReflection   bool
	MigrationsDir    string
	ReceiptPrefix    string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Port     int
	MaxConns int32
	MinConns int32
}

type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	LoansTopic    string
	ConsumerGroup string
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	TLS           bool
	SASLEnabled   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	LockTTL  time.Duration
	DB       int
}

type SMTPConfig struct {
	Host     string
	Username string
	Password string
	From     string
	Port     int
}

// Enabled reports whether email notifications are configured.
func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.From != "" }

// Addr returns host:port.
func (s SMTPConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

type TelemetryConfig struct {
	OTLPEndpoint string
	SampleRatio  float64
}

type TLSConfig struct {
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

// PenaltyConfig seeds penalty settings when none are stored.
type PenaltyConfig struct {
	Rate string
	Type string
}

type SweepConfig struct {
	Schedule       string // cron spec; empty disables the sweep
	BatchSize      int
	OutboxInterval time.Duration
	OutboxBatch    int
}

// Validate checks required configuration values.
func (c Config) Validate() error {
	var errs []error
	if c.DB.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	switch c.LockBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("LOCK_BACKEND must be memory or redis, got %q", c.LockBackend))
	}
	switch c.EventSink {
	case "outbox", "kafka":
	default:
		errs = append(errs, fmt.Errorf("EVENT_SINK must be outbox or kafka, got %q", c.EventSink))
	}
	if c.BatchParallelism <= 0 {
		errs = append(errs, errors.New("BATCH_PARALLELISM must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		ServiceName: "repayment-service",
		GRPCPort:    getEnvInt("GRPC_PORT", 9095),
		HTTPPort:    getEnvInt("HTTP_PORT", 8095),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "bib"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "bib_repayment"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		MigrationsDir: getEnv("MIGRATIONS_DIR", "internal/infrastructure/persistence/postgres/migrations"),
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", "localhost:9092"),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "repayment-events"),
			LoansTopic:    getEnv("KAFKA_LOANS_TOPIC", "lending-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "repayment-service"),
			SASLEnabled:   getEnvBool("KAFKA_SASL_ENABLED", false),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", "SCRAM-SHA-512"),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			TLS:           getEnvBool("KAFKA_TLS", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			LockTTL:  getEnvDuration("REDIS_LOCK_TTL", 15*time.Second),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		},
		TLS: TLSConfig{
			CertFile:     getEnv("TLS_CERT_FILE", ""),
			KeyFile:      getEnv("TLS_KEY_FILE", ""),
			ClientCAFile: getEnv("TLS_CLIENT_CA_FILE", ""),
		},
		Penalty: PenaltyConfig{
			Rate: getEnv("PENALTY_RATE", ""),
			Type: getEnv("PENALTY_TYPE", ""),
		},
		Sweep: SweepConfig{
			Schedule:       getEnv("OVERDUE_SWEEP_SCHEDULE", "0 6 * * *"),
			BatchSize:      getEnvInt("OVERDUE_SWEEP_BATCH_SIZE", 500),
			OutboxInterval: getEnvDuration("OUTBOX_RELAY_INTERVAL", 2*time.Second),
			OutboxBatch:    getEnvInt("OUTBOX_RELAY_BATCH", 100),
		},
		ExcludeSaturdays: getEnvBool("EXCLUDE_SATURDAYS", false),
		GRPCReflection:   getEnvBool("GRPC_REFLECTION", false),
		ReceiptPrefix:    getEnv("RECEIPT_PREFIX", "RCP"),
		BatchParallelism: getEnvInt("BATCH_PARALLELISM", 8),
		LockBackend:      strings.ToLower(getEnv("LOCK_BACKEND", "memory")),
		EventSink:        strings.ToLower(getEnv("EVENT_SINK", "outbox")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key, fallback string) []string {
	var out []string
	for _, s := range strings.Split(getEnv(key, fallback), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
