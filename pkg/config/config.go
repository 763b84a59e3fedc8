package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	Paystack PaystackConfig
	Security SecurityConfig
	Billing  BillingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DOCUFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"DOCUFLOW_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"DOCUFLOW_APP_BASE_URL" required:"true"`
	LogLevel     string `envconfig:"DOCUFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DOCUFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DOCUFLOW_DB_DSN"`
	Driver string `envconfig:"DOCUFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DOCUFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"DOCUFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DOCUFLOW_DB_USER"`
	LegacyPassword string `envconfig:"DOCUFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"DOCUFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"DOCUFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DOCUFLOW_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DOCUFLOW_DB_MAX_IDLE_CONNS" default:"0"`
	ConnMaxLifetime time.Duration `envconfig:"DOCUFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DOCUFLOW_DB_CONN_MAX_IDLE_TIME" default:"30s"`

	AutoMigrate bool `envconfig:"DOCUFLOW_DB_AUTO_MIGRATE" default:"false"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DOCUFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DOCUFLOW_JWT_ISSUER" default:"docuflow"`
	ExpirationMinutes int    `envconfig:"DOCUFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PaystackConfig struct {
	SecretKey     string        `envconfig:"DOCUFLOW_PAYSTACK_SECRET_KEY" required:"true"`
	BaseURL       string        `envconfig:"DOCUFLOW_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackPath  string        `envconfig:"DOCUFLOW_PAYSTACK_CALLBACK_PATH" default:"/billing/payments/callback"`
	Timeout       time.Duration `envconfig:"DOCUFLOW_PAYSTACK_TIMEOUT" default:"15s"`
	WebhookSecret string        `envconfig:"DOCUFLOW_PAYSTACK_WEBHOOK_SECRET"`
}

// SigningSecret returns the key used to verify webhook signatures. Paystack
// signs events with the account secret key unless a dedicated secret is set.
func (p PaystackConfig) SigningSecret() string {
	if s := strings.TrimSpace(p.WebhookSecret); s != "" {
		return s
	}
	return p.SecretKey
}

type SecurityConfig struct {
	ArgonMemoryKB    int `envconfig:"DOCUFLOW_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DOCUFLOW_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DOCUFLOW_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DOCUFLOW_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DOCUFLOW_ARGON_KEY_LEN" default:"32"`
}

type BillingConfig struct {
	DefaultVATRate  string `envconfig:"DOCUFLOW_BILLING_DEFAULT_VAT_RATE" default:"15"`
	DefaultCurrency string `envconfig:"DOCUFLOW_BILLING_DEFAULT_CURRENCY" default:"ZAR"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"DOCUFLOW_DB_HOST": db.LegacyHost,
		"DOCUFLOW_DB_USER": db.LegacyUser,
		"DOCUFLOW_DB_NAME": db.LegacyName,
	}
	for _, name := range []string{"DOCUFLOW_DB_HOST", "DOCUFLOW_DB_USER", "DOCUFLOW_DB_NAME"} {
		if legacyValues[name] == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either DOCUFLOW_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
