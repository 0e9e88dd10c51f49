package utils

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Email     EmailConfig
	Payment   PaymentConfig
	Square    SquareConfig
	Braintree BraintreeConfig
	Redis     RedisConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	BaseURL     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type SessionConfig struct {
	ExpiryHours int
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay is configured.
func (c EmailConfig) Enabled() bool {
	return c.Host != ""
}

type PaymentConfig struct {
	Primary   string
	Secondary string
	Timeout   time.Duration
	Currency  string
}

type SquareConfig struct {
	AccessToken string
	Environment string
	APIVersion  string
	LocationID  string
}

type BraintreeConfig struct {
	Environment string
	MerchantID  string
	PublicKey   string
	PrivateKey  string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	ListingTTL time.Duration
}

type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "dinewith")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("SESSION_EXPIRY_HOURS", 24)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("EMAIL_FROM", "no-reply@dinewith.com")
	viper.SetDefault("PAYMENT_PRIMARY", "square")
	viper.SetDefault("PAYMENT_SECONDARY", "braintree")
	viper.SetDefault("PAYMENT_TIMEOUT", "10s")
	viper.SetDefault("PAYMENT_CURRENCY", "USD")
	viper.SetDefault("SQUARE_ENVIRONMENT", "sandbox")
	viper.SetDefault("SQUARE_API_VERSION", "2024-06-04")
	viper.SetDefault("BRAINTREE_ENVIRONMENT", "sandbox")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_LISTING_TTL", "5m")
	viper.SetDefault("TRACING_SERVICE_NAME", "dinewith-api")

	// .env is optional outside local development
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			BaseURL:     viper.GetString("APP_BASE_URL"),
			CORSOrigins: splitList(viper.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Session: SessionConfig{
			ExpiryHours: viper.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		Payment: PaymentConfig{
			Primary:   viper.GetString("PAYMENT_PRIMARY"),
			Secondary: viper.GetString("PAYMENT_SECONDARY"),
			Timeout:   viper.GetDuration("PAYMENT_TIMEOUT"),
			Currency:  viper.GetString("PAYMENT_CURRENCY"),
		},
		Square: SquareConfig{
			AccessToken: viper.GetString("SQUARE_ACCESS_TOKEN"),
			Environment: viper.GetString("SQUARE_ENVIRONMENT"),
			APIVersion:  viper.GetString("SQUARE_API_VERSION"),
			LocationID:  viper.GetString("SQUARE_LOCATION_ID"),
		},
		Braintree: BraintreeConfig{
			Environment: viper.GetString("BRAINTREE_ENVIRONMENT"),
			MerchantID:  viper.GetString("BRAINTREE_MERCHANT_ID"),
			PublicKey:   viper.GetString("BRAINTREE_PUBLIC_KEY"),
			PrivateKey:  viper.GetString("BRAINTREE_PRIVATE_KEY"),
		},
		Redis: RedisConfig{
			Addr:       viper.GetString("REDIS_ADDR"),
			Password:   viper.GetString("REDIS_PASSWORD"),
			DB:         viper.GetInt("REDIS_DB"),
			ListingTTL: viper.GetDuration("REDIS_LISTING_TTL"),
		},
		Tracing: TracingConfig{
			Enabled:        viper.GetBool("TRACING_ENABLED"),
			ServiceName:    viper.GetString("TRACING_SERVICE_NAME"),
			JaegerEndpoint: viper.GetString("JAEGER_ENDPOINT"),
		},
	}

	return config, nil
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
