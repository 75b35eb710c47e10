package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_EMAILS", " Ops@PetPort.app, ,billing@petport.app")
	t.Setenv("GRACE_PERIOD", "72h")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", c.Port)
	}
	if c.GracePeriod != 72*time.Hour {
		t.Fatalf("expected grace 72h, got %s", c.GracePeriod)
	}
	if c.TrialDays != 7 {
		t.Fatalf("expected default trial days 7, got %d", c.TrialDays)
	}
	if c.ReferralCommissionCents != 2000 {
		t.Fatalf("expected default commission 2000, got %d", c.ReferralCommissionCents)
	}
	if c.CronApproveReferrals != "0 3 * * *" {
		t.Fatalf("unexpected cron default %q", c.CronApproveReferrals)
	}
	if c.UsesPostgres() {
		t.Fatalf("expected in-memory mode without DB_DSN")
	}

	admins := c.AdminEmailList()
	if len(admins) != 2 || admins[0] != "ops@petport.app" || admins[1] != "billing@petport.app" {
		t.Fatalf("unexpected admin list %#v", admins)
	}
}
