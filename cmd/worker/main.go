package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petport/internal/bootstrap"
	"petport/internal/config"
	"petport/internal/jobs"
	"petport/internal/platform/logger"
	"petport/internal/router"

	"github.com/robfig/cron/v3"
)

func main() {
	runOnce := flag.String("run", "", "corre un job una vez y sale (ej: -run expire-gifts)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "worker")
	if err != nil {
		os.Stderr.WriteString("startup: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer app.Close()

	svcs, err := router.NewServices(app.Options)
	if err != nil {
		app.Log.Error("services init failed", map[string]any{"error": err})
		return
	}

	if *runOnce != "" {
		res, err := svcs.Jobs.Run(ctx, *runOnce)
		_ = json.NewEncoder(os.Stdout).Encode(res)
		if err != nil {
			app.Log.Error("job failed", map[string]any{"job": *runOnce, "error": err})
			app.Close()
			os.Exit(1)
		}
		return
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{log: app.Log}),
		cron.WithChain(cron.Recover(cronLogger{log: app.Log})),
	)
	for name, spec := range schedule(app.Config) {
		if spec == "" || spec == "-" {
			app.Log.Info("job disabled", map[string]any{"job": name})
			continue
		}
		if _, err := c.AddFunc(spec, func() {
			// el Runner loguea y reporta; acá solo se dispara
			_, _ = svcs.Jobs.Run(ctx, name)
		}); err != nil {
			app.Log.Error("invalid cron spec", map[string]any{"job": name, "spec": spec, "error": err})
			return
		}
		app.Log.Info("job scheduled", map[string]any{"job": name, "spec": spec})
	}

	c.Start()
	app.Log.Info("worker started", map[string]any{"jobs": svcs.Jobs.Names()})

	<-ctx.Done()
	app.Log.Info("stopping worker, waiting for running jobs", nil)
	<-c.Stop().Done()
}

// schedule mapea cada job a su expresión CRON_*; "-" deshabilita.
func schedule(cfg *config.Config) map[string]string {
	return map[string]string{
		jobs.ApproveReferrals:   cfg.CronApproveReferrals,
		jobs.PayoutReferrals:    cfg.CronPayoutReferrals,
		jobs.SendScheduledGifts: cfg.CronScheduledGifts,
		jobs.ExpireGifts:        cfg.CronExpireGifts,
		jobs.GiftReminders:      cfg.CronGiftReminders,
		jobs.CheckIntegrity:     cfg.CronIntegrityCheck,
	}
}

// cronLogger adapta logger.Logger a cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kv(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	f := kv(keysAndValues)
	f["error"] = err
	l.log.Error("cron: "+msg, f)
}

func kv(pairs []any) map[string]any {
	out := make(map[string]any, len(pairs)/2+1)
	for i := 0; i+1 < len(pairs); i += 2 {
		if k, ok := pairs[i].(string); ok {
			out[k] = pairs[i+1]
		}
	}
	return out
}
