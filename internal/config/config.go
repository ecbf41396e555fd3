// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// --- Application ---
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	GinMode   string `envconfig:"GIN_MODE"`
	Port      string `envconfig:"PORT" default:"8080"`
	GRPCPort  string `envconfig:"GRPC_PORT" default:"50051"`

	// --- Database ---
	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"3306"`
	DBUser     string `envconfig:"DB_USER" default:"puja"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"puja"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL" default:"localhost:6379"`

	// --- Auth ---
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL            time.Duration `envconfig:"JWT_TTL" default:"24h"`
	AdminEmail        string        `envconfig:"ADMIN_EMAIL" default:"admin@puja.local"`
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`

	// --- Object storage ---
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `envconfig:"AWS_REGION" default:"ap-south-1"`
	S3Bucket           string `envconfig:"S3_BUCKET"`
	S3Endpoint         string `envconfig:"S3_ENDPOINT"`

	// --- Astrology API ---
	AstroAPIKey       string        `envconfig:"ASTRO_API_KEY"`
	AstroBaseURL      string        `envconfig:"ASTRO_BASE_URL" default:"https://json.freeastrologyapi.com"`
	AstroLatitude     float64       `envconfig:"ASTRO_LATITUDE" default:"17.385"`
	AstroLongitude    float64       `envconfig:"ASTRO_LONGITUDE" default:"78.4867"`
	AstroTimezone     float64       `envconfig:"ASTRO_TIMEZONE" default:"5.5"`
	AstroRetryCount   int           `envconfig:"ASTRO_RETRY_COUNT" default:"2"`
	AstroRetryWait    time.Duration `envconfig:"ASTRO_RETRY_WAIT" default:"2s"`
	AstroRequestPause time.Duration `envconfig:"ASTRO_REQUEST_PAUSE" default:"1s"`
	PanchangamCron    string        `envconfig:"PANCHANGAM_CRON" default:"5 0 * * *"`
	PanchangamKeep    time.Duration `envconfig:"PANCHANGAM_RETENTION" default:"2160h"`
	Timezone          string        `envconfig:"TZ_NAME" default:"Asia/Kolkata"`

	// --- Cashfree ---
	CashfreeClientID     string `envconfig:"CASHFREE_CLIENT_ID"`
	CashfreeClientSecret string `envconfig:"CASHFREE_CLIENT_SECRET"`
	CashfreeBaseURL      string `envconfig:"CASHFREE_BASE_URL" default:"https://sandbox.cashfree.com"`
	CashfreeAPIVersion   string `envconfig:"CASHFREE_API_VERSION" default:"2023-08-01"`
	CashfreeReturnURL    string `envconfig:"CASHFREE_RETURN_URL"`

	// --- SMTP ---
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@puja.local"`
}

// DatabaseDSN returns the connection string for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.DBDriver == "postgres" {
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
		)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func (c *Config) Validate() error {
	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be mysql or postgres, got %q", c.DBDriver)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if c.AstroRetryCount < 0 {
		return fmt.Errorf("ASTRO_RETRY_COUNT must be >= 0")
	}
	return nil
}

// Location is the calendar zone for daily jobs. An unknown zone name falls
// back to the fixed astrology offset.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("astro", int(c.AstroTimezone*3600))
}

// Load reads .env (current directory, then parent) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found in current directory, trying parent")
		if err := godotenv.Load("../.env"); err != nil {
			log.Debug("No .env file found, using system environment variables")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetupLogging applies level and formatter to the standard logrus logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
