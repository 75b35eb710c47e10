package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port    string `env:"PORT,default=8080"`
	AppName string `env:"APP_NAME,default=petport"`
	AppEnv  string `env:"APP_ENV,default=development"`
	// URL pública del SPA (redirects, links de emails)
	AppURL string `env:"APP_URL,default=http://localhost:5173"`

	// Database. Vacío => repos in-memory (modo dev).
	DBDSN       string `env:"DB_DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=false"`

	// Redis (locks de jobs). Vacío => lock local.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	// Supabase auth
	SupabaseURL       string `env:"SUPABASE_URL"`
	SupabaseAnonKey   string `env:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	// Stripe
	StripeSecretKey    string `env:"STRIPE_SECRET_KEY"`
	StripeAPIBase      string `env:"STRIPE_API_BASE,default=https://api.stripe.com"`
	StripePriceMonthly string `env:"STRIPE_PRICE_MONTHLY"`
	StripePriceYearly  string `env:"STRIPE_PRICE_YEARLY"`
	StripePriceGift    string `env:"STRIPE_PRICE_GIFT"`
	StripePriceExtra   string `env:"STRIPE_PRICE_EXTRA_PET"`
	TrialDays          int    `env:"TRIAL_DAYS,default=7"`

	// Email (API de templates)
	EmailAPIURL   string `env:"EMAIL_API_URL,default=https://api.postmarkapp.com"`
	EmailAPIToken string `env:"EMAIL_API_TOKEN"`
	EmailFrom     string `env:"EMAIL_FROM,default=PetPort <hello@petport.app>"`

	// Cloudinary
	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `env:"CLOUDINARY_FOLDER,default=petport/pets"`

	// Observabilidad
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
	SentryDSN string `env:"SENTRY_DSN"`

	// Admin / jobs
	AdminEmails string `env:"ADMIN_EMAILS"`
	CronSecret  string `env:"CRON_SECRET"`

	// Reglas de negocio
	FreePetLimit            int           `env:"FREE_PET_LIMIT,default=1"`
	MaxPhotosPerPet         int           `env:"MAX_PHOTOS_PER_PET,default=20"`
	ReferralCommissionCents int64         `env:"REFERRAL_COMMISSION_CENTS,default=2000"`
	GracePeriod             time.Duration `env:"GRACE_PERIOD,default=168h"`
	ShareImageBaseURL       string        `env:"SHARE_IMAGE_BASE_URL,default=https://petport.app/og"`

	// Rate limit de endpoints públicos / canje de gifts
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=2"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=10"`

	// Cron del worker (formato robfig/cron con segundos opcionales deshabilitados)
	CronApproveReferrals string `env:"CRON_APPROVE_REFERRALS,default=0 3 * * *"`
	CronPayoutReferrals  string `env:"CRON_PAYOUT_REFERRALS,default=0 4 1 * *"`
	CronScheduledGifts   string `env:"CRON_SCHEDULED_GIFTS,default=0 8 * * *"`
	CronExpireGifts      string `env:"CRON_EXPIRE_GIFTS,default=30 0 * * *"`
	CronGiftReminders    string `env:"CRON_GIFT_REMINDERS,default=0 9 * * *"`
	CronIntegrityCheck   string `env:"CRON_INTEGRITY_CHECK,default=0 6 * * 1"`
}

// Load lee un .env opcional (ENV_FILE o ./.env) y decodifica el entorno.
func Load() (*Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, err
		}
	}

	var c Config
	// Sin ninguna variable seteada envdecode devuelve ErrNoTargetFieldsAreSet;
	// para nosotros eso es "todo por default".
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}
	return &c, nil
}

// AdminEmailList normaliza ADMIN_EMAILS (CSV) a minúsculas.
func (c *Config) AdminEmailList() []string {
	out := make([]string, 0)
	for _, p := range strings.Split(c.AdminEmails, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) UsesPostgres() bool {
	return strings.TrimSpace(c.DBDSN) != ""
}
