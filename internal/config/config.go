package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mail     MailConfig
	Ticket   TicketConfig
	Pricing  PricingConfig
	Outbox   OutboxConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines verification parameters for CMS-issued admin tokens.
// This service never issues tokens; it only checks the shared-secret
// signature and reads the role claim.
type AuthConfig struct {
	JWTSecret string
}

// MailProvider names a transport kind in the fallback chain.
type MailProvider string

const (
	MailProviderAPI  MailProvider = "api"
	MailProviderSMTP MailProvider = "smtp"
)

// MailConfig configures the email delivery pipeline. Passed explicitly to
// the pipeline constructor so tests can inject doubles; there is no
// module-level transporter.
type MailConfig struct {
	Enabled        bool
	Providers      []MailProvider
	From           string
	FromName       string
	APIBaseURL     string
	APIKey         string
	SMTPHost       string
	SMTPUsername   string
	SMTPPassword   string
	SMTPPorts      []int
	MaxRetries     int
	RetryBackoffMS int
	TimeoutSeconds int
}

// TicketConfig configures artifact generation.
type TicketConfig struct {
	OutputDir string
	LogoPath  string
	FontPath  string
	EventName string
	BaseURL   string
}

// PricingConfig holds per-tier workshop amounts in IDR. FreeMode zeroes
// the amount and finalizes payment at registration.
type PricingConfig struct {
	FreeMode           bool
	BeginnerAmount     int64
	IntermediateAmount int64
	AdvancedAmount     int64
}

// OutboxConfig tunes the background ticket dispatcher.
type OutboxConfig struct {
	PollIntervalSeconds int
	BatchSize           int
	MaxAttempts         int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	smtpPorts, err := parsePorts(getEnv("MAIL_SMTP_PORTS", "587,465,2525"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAIL_SMTP_PORTS: %w", err)
	}

	providers, err := parseProviders(getEnv("MAIL_PROVIDERS", "api,smtp"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAIL_PROVIDERS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "event-registration"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Mail: MailConfig{
			Enabled:        getEnvAsBool("MAIL_ENABLED", false),
			Providers:      providers,
			From:           getEnv("MAIL_FROM", "tickets@example.com"),
			FromName:       getEnv("MAIL_FROM_NAME", "Registration Desk"),
			APIBaseURL:     getEnv("MAIL_API_BASE_URL", "https://api.resend.com"),
			APIKey:         os.Getenv("MAIL_API_KEY"),
			SMTPHost:       getEnv("MAIL_SMTP_HOST", "localhost"),
			SMTPUsername:   os.Getenv("MAIL_SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("MAIL_SMTP_PASSWORD"),
			SMTPPorts:      smtpPorts,
			MaxRetries:     getEnvAsInt("MAIL_MAX_RETRIES", 3),
			RetryBackoffMS: getEnvAsInt("MAIL_RETRY_BACKOFF_MS", 500),
			TimeoutSeconds: getEnvAsInt("MAIL_TIMEOUT_SECONDS", 15),
		},
		Ticket: TicketConfig{
			OutputDir: getEnv("TICKET_OUTPUT_DIR", "tickets"),
			LogoPath:  getEnv("TICKET_LOGO_PATH", "assets/logo.png"),
			FontPath:  getEnv("TICKET_FONT_PATH", "assets/fonts/Inter-Regular.ttf"),
			EventName: getEnv("TICKET_EVENT_NAME", "MUSDA"),
			BaseURL:   getEnv("TICKET_BASE_URL", ""),
		},
		Pricing: PricingConfig{
			FreeMode:           getEnvAsBool("SPH_FREE_MODE", false),
			BeginnerAmount:     int64(getEnvAsInt("SPH_AMOUNT_BEGINNER", 150000)),
			IntermediateAmount: int64(getEnvAsInt("SPH_AMOUNT_INTERMEDIATE", 250000)),
			AdvancedAmount:     int64(getEnvAsInt("SPH_AMOUNT_ADVANCED", 350000)),
		},
		Outbox: OutboxConfig{
			PollIntervalSeconds: getEnvAsInt("OUTBOX_POLL_INTERVAL_SECONDS", 5),
			BatchSize:           getEnvAsInt("OUTBOX_BATCH_SIZE", 10),
			MaxAttempts:         getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RetryBackoff returns the base delay between transport retries.
func (m MailConfig) RetryBackoff() time.Duration {
	if m.RetryBackoffMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(m.RetryBackoffMS) * time.Millisecond
}

// Timeout returns the per-transport dial/send timeout.
func (m MailConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// PollInterval returns the outbox poll cadence.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(o.PollIntervalSeconds) * time.Second
}

// AmountFor resolves the price tier for an experience level.
func (p PricingConfig) AmountFor(level string) int64 {
	if p.FreeMode {
		return 0
	}
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "INTERMEDIATE":
		return p.IntermediateAmount
	case "ADVANCED":
		return p.AdvancedAmount
	default:
		return p.BeginnerAmount
	}
}

func parsePorts(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ports := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		port, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("port %q: %w", part, err)
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func parseProviders(raw string) ([]MailProvider, error) {
	parts := strings.Split(raw, ",")
	providers := make([]MailProvider, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch MailProvider(part) {
		case MailProviderAPI, MailProviderSMTP:
			providers = append(providers, MailProvider(part))
		default:
			return nil, fmt.Errorf("unknown provider %q", part)
		}
	}
	return providers, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
