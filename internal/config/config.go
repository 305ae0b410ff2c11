package config

import (
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Receipt   ReceiptConfig
	Log       LogConfig
	Kafka     KafkaConfig
	Email     EmailConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
	Path     string
	Seed     bool
}

// AuthConfig holds the shared secret of the hosted auth provider.
// An empty secret disables token validation.
type AuthConfig struct {
	JWTSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// ReceiptConfig controls valuation and document generation
type ReceiptConfig struct {
	RatePerServing    decimal.Decimal
	Currency          string
	IssuerName        string
	LegalStatement    string
	RenderConcurrency int
	MaxBatchSize      int
	StrictBookkeeping bool
	CompressDocuments bool
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

const (
	defaultRatePerServing = "50"
	defaultLegalStatement = "This receipt acknowledges a donation in kind of surplus food and may be " +
		"retained as supporting documentation when claiming a tax deduction for charitable " +
		"contributions (for example under Section 80G of the Income Tax Act, 1961), subject to " +
		"the registration status of the recipient organization."
)

func Load() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.WithError(err).Warn(".env file not found, using environment variables")
	}

	// Set defaults
	v.SetDefault("APP_NAME", "foodbridge-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "foodbridge")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("DB_PATH", "foodbridge.db")
	v.SetDefault("DB_SEED", false)
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	v.SetDefault("RATE_LIMIT_REQUESTS", 60)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("RECEIPT_RATE_PER_SERVING", defaultRatePerServing)
	v.SetDefault("RECEIPT_CURRENCY", "INR")
	v.SetDefault("RECEIPT_ISSUER_NAME", "FoodBridge")
	v.SetDefault("RECEIPT_LEGAL_STATEMENT", defaultLegalStatement)
	v.SetDefault("RECEIPT_RENDER_CONCURRENCY", 8)
	v.SetDefault("RECEIPT_MAX_BATCH_SIZE", 500)
	v.SetDefault("RECEIPT_STRICT_BOOKKEEPING", false)
	v.SetDefault("RECEIPT_PDF_COMPRESS", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "receipts")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM_NAME", "FoodBridge Receipts")
	v.SetDefault("SMTP_FROM_EMAIL", "receipts@foodbridge.local")

	return &Config{
		App: AppConfig{
			Name:  v.GetString("APP_NAME"),
			Env:   v.GetString("APP_ENV"),
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
			Timezone: v.GetString("DB_TIMEZONE"),
			Path:     v.GetString("DB_PATH"),
			Seed:     v.GetBool("DB_SEED"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetStringSlice("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetStringSlice("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetStringSlice("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Receipt: ReceiptConfig{
			RatePerServing:    parseRate(v.GetString("RECEIPT_RATE_PER_SERVING")),
			Currency:          v.GetString("RECEIPT_CURRENCY"),
			IssuerName:        v.GetString("RECEIPT_ISSUER_NAME"),
			LegalStatement:    v.GetString("RECEIPT_LEGAL_STATEMENT"),
			RenderConcurrency: positive(v.GetInt("RECEIPT_RENDER_CONCURRENCY"), 8),
			MaxBatchSize:      positive(v.GetInt("RECEIPT_MAX_BATCH_SIZE"), 500),
			StrictBookkeeping: v.GetBool("RECEIPT_STRICT_BOOKKEEPING"),
			CompressDocuments: v.GetBool("RECEIPT_PDF_COMPRESS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			File:   v.GetString("LOG_FILE"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetStringSlice("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Email: EmailConfig{
			SMTPHost:     v.GetString("SMTP_HOST"),
			SMTPPort:     v.GetInt("SMTP_PORT"),
			SMTPUsername: v.GetString("SMTP_USERNAME"),
			SMTPPassword: v.GetString("SMTP_PASSWORD"),
			FromName:     v.GetString("SMTP_FROM_NAME"),
			FromEmail:    v.GetString("SMTP_FROM_EMAIL"),
		},
	}
}

// DefaultReceiptConfig returns the receipt settings used when nothing is configured
func DefaultReceiptConfig() ReceiptConfig {
	return ReceiptConfig{
		RatePerServing:    decimal.RequireFromString(defaultRatePerServing),
		Currency:          "INR",
		IssuerName:        "FoodBridge",
		LegalStatement:    defaultLegalStatement,
		RenderConcurrency: 8,
		MaxBatchSize:      500,
		CompressDocuments: true,
	}
}

func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "mysql":
		return c.User + ":" + c.Password +
			"@tcp(" + c.Host + ":" + c.Port + ")/" + c.Name +
			"?charset=utf8mb4&parseTime=True&loc=UTC"
	case "sqlite":
		return c.Path
	default:
		return "host=" + c.Host +
			" user=" + c.User +
			" password=" + c.Password +
			" dbname=" + c.Name +
			" port=" + c.Port +
			" sslmode=" + c.SSLMode +
			" TimeZone=" + c.Timezone
	}
}

func parseRate(raw string) decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || rate.IsNegative() {
		log.WithField("value", raw).Warnf("invalid RECEIPT_RATE_PER_SERVING, using %s", defaultRatePerServing)
		return decimal.RequireFromString(defaultRatePerServing)
	}
	return rate
}

func positive(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

// splitList accepts both space separated (viper's default) and comma separated env values
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
