package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	SupabaseURL         string // storage sign URLs and public URLs
	SupabaseSecretKey   string // must be the service_role key, not the anon key
	DonationsAPIKey     string // x-api-key for the /donations control plane
	LedgerURL           string // empty = local recorder
	LedgerAPIKey        string
	LedgerAccount       string // on-chain account that signs donation records
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string
	MailFrom            string
	AppBaseURL          string // links in notification e-mails
	LogLevel            string
	LogFormat           string
	AutoMigrate         bool

	RequestTimeout         time.Duration
	DefaultRequestDeadline time.Duration
	IdempotencyTTL         time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REQUEST_TIMEOUT", "15s")
	viper.SetDefault("REQUEST_DEFAULT_DEADLINE_DAYS", 30)
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LEDGER_ACCOUNT", "givehub-treasury")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	deadlineDays := viper.GetInt("REQUEST_DEFAULT_DEADLINE_DAYS")
	if deadlineDays <= 0 {
		deadlineDays = 30
	}

	return &Config{
		Env:                    env,
		Port:                   viper.GetString("PORT"),
		SessionSecret:          viper.GetString("SESSION_SECRET"),
		DatabaseURL:            dbURL,
		RedisURL:               viper.GetString("REDIS_URL"),
		SupabaseURL:            viper.GetString("SUPABASE_URL"),
		SupabaseSecretKey:      viper.GetString("SUPABASE_SECRET_KEY"),
		DonationsAPIKey:        viper.GetString("DONATIONS_API_KEY"),
		LedgerURL:              viper.GetString("LEDGER_URL"),
		LedgerAPIKey:           viper.GetString("LEDGER_API_KEY"),
		LedgerAccount:          viper.GetString("LEDGER_ACCOUNT"),
		FrontendURLEndsWith:    viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:            viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:      strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:         viper.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:       viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:               viper.GetString("MAIL_FROM"),
		AppBaseURL:             appBaseURL(viper.GetString("APP_BASE_URL")),
		LogLevel:               viper.GetString("LOG_LEVEL"),
		LogFormat:              viper.GetString("LOG_FORMAT"),
		AutoMigrate:            viper.GetBool("AUTO_MIGRATE"),
		RequestTimeout:         durationOr(viper.GetDuration("REQUEST_TIMEOUT"), 15*time.Second),
		DefaultRequestDeadline: time.Duration(deadlineDays) * 24 * time.Hour,
		IdempotencyTTL:         durationOr(viper.GetDuration("IDEMPOTENCY_TTL"), 24*time.Hour),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func appBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://givehub.app"
	}
	return strings.TrimRight(s, "/")
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
