package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"petport/internal/adapters/auth/supabase"
	"petport/internal/adapters/email/postmark"
	"petport/internal/adapters/media/cloudinary"
	"petport/internal/adapters/payments/stripe"
	pg "petport/internal/adapters/storage/postgres"
	"petport/internal/config"
	"petport/internal/platform/errreport"
	"petport/internal/platform/joblock"
	"petport/internal/platform/logger"
	"petport/internal/ports/media"
	"petport/internal/router"

	"github.com/go-redis/redis/v8"
)

type App struct {
	Config *config.Config
	Log    logger.Logger
	DB     *sql.DB
	Redis  *redis.Client

	Options router.Options
}

func New(ctx context.Context, component string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	base, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := base.With(map[string]any{"component": component})

	if err := errreport.Init(errreport.Options{DSN: cfg.SentryDSN, Environment: cfg.AppEnv}); err != nil {
		// sin Sentry el servicio sigue
		log.Warn("sentry disabled", map[string]any{"error": err})
	}

	a := &App{Config: cfg, Log: log}

	if cfg.UsesPostgres() {
		if cfg.AutoMigrate {
			v, err := pg.Migrate(cfg.DBDSN)
			if err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied", map[string]any{"version": v})
		}
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.DB = db
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	var locker joblock.Locker
	if cfg.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := a.Redis.Ping(pctx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		locker = joblock.NewRedisLocker(a.Redis, cfg.AppName+":joblock:")
	}

	opts, err := adapters(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	opts.DB = a.DB
	opts.Config = cfg
	opts.Locker = locker
	opts.Log = log
	a.Options = opts
	return a, nil
}

func adapters(cfg *config.Config, log logger.Logger) (router.Options, error) {
	var opts router.Options

	proc, err := stripe.NewClient(stripe.Config{SecretKey: cfg.StripeSecretKey, APIBase: cfg.StripeAPIBase})
	if err != nil {
		return opts, fmt.Errorf("stripe client: %w", err)
	}
	if !proc.IsConfigured() {
		log.Warn("STRIPE_SECRET_KEY not set, payment endpoints answer 503", nil)
	}
	opts.Payments = proc

	// sin token los emails van al log (logsink, lo elige el router)
	if cfg.EmailAPIToken != "" {
		mail, err := postmark.NewClient(postmark.Config{
			BaseURL: cfg.EmailAPIURL,
			Token:   cfg.EmailAPIToken,
			From:    cfg.EmailFrom,
		})
		if err != nil {
			return opts, fmt.Errorf("email client: %w", err)
		}
		opts.Email = mail
	}

	store, err := cloudinary.NewStore(cloudinary.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	})
	switch {
	case errors.Is(err, media.ErrNotConfigured):
		log.Warn("cloudinary not configured, photo uploads answer 503", nil)
	case err != nil:
		return opts, fmt.Errorf("cloudinary: %w", err)
	default:
		opts.Media = store
	}

	// Sin URL ni secret => modo dev con headers X-Debug-*.
	if cfg.SupabaseJWTSecret != "" || cfg.SupabaseURL != "" {
		var client *supabase.Client
		if cfg.SupabaseURL != "" {
			client, err = supabase.NewClient(supabase.Config{URL: cfg.SupabaseURL, AnonKey: cfg.SupabaseAnonKey})
			if err != nil {
				return opts, fmt.Errorf("supabase client: %w", err)
			}
		}
		opts.AuthVerifier = supabase.NewVerifier(cfg.SupabaseJWTSecret, client)
	} else {
		log.Warn("supabase not configured, using X-Debug-User-ID auth", nil)
	}

	return opts, nil
}

// Close libera DB, Redis y vacía Sentry/logger.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	errreport.Flush(2 * time.Second)
	logger.Sync(a.Log)
}
