package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petport/internal/platform/joblock"
	"petport/internal/ports/email"
	"petport/internal/ports/email/emailtest"
	"petport/internal/ports/integrity"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, joblock.ErrHeld
}

type auditorFunc func(ctx context.Context) ([]integrity.Issue, error)

func (f auditorFunc) Audit(ctx context.Context) ([]integrity.Issue, error) { return f(ctx) }

func TestRun_ReturnsSummary(t *testing.T) {
	r := NewRunner(nil, nil)
	r.Register("count", func(context.Context) (any, error) { return map[string]int{"processed": 3}, nil })

	res, err := r.Run(context.Background(), "count")
	require.NoError(t, err)
	assert.Equal(t, "count", res.Job)
	assert.False(t, res.Skipped)
	assert.Equal(t, map[string]int{"processed": 3}, res.Summary)
}

func TestRun_UnknownJob(t *testing.T) {
	r := NewRunner(nil, nil)
	_, err := r.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRun_SkipsWhenLockHeld(t *testing.T) {
	r := NewRunner(heldLocker{}, nil)
	called := false
	r.Register("x", func(context.Context) (any, error) { called = true; return nil, nil })

	res, err := r.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.False(t, called)
}

func TestRun_ErrorAndPanic(t *testing.T) {
	r := NewRunner(nil, nil)
	r.Register("fail", func(context.Context) (any, error) { return nil, errors.New("db down") })
	r.Register("boom", func(context.Context) (any, error) { panic("kaboom") })

	res, err := r.Run(context.Background(), "fail")
	require.Error(t, err)
	assert.Equal(t, "db down", res.Error)

	res, err = r.Run(context.Background(), "boom")
	require.Error(t, err)
	assert.Contains(t, res.Error, "kaboom")

	// el lock se libera aunque el job falle
	_, err = r.Run(context.Background(), "fail")
	assert.EqualError(t, err, "db down")
}

func TestRun_RedisLockSharedBetweenRunners(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := joblock.NewRedisLocker(client, "test:")
	// otra réplica tiene el lock
	release, err := locker.Acquire(context.Background(), "expire-gifts", time.Minute)
	require.NoError(t, err)

	r := NewRunner(locker, nil)
	r.Register("expire-gifts", func(context.Context) (any, error) { return "ran", nil })

	res, err := r.Run(context.Background(), "expire-gifts")
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	release()
	res, err = r.Run(context.Background(), "expire-gifts")
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, "ran", res.Summary)
}

func TestIntegrityCheck_AlertsAdmins(t *testing.T) {
	mail := &emailtest.Recorder{}
	fn := IntegrityCheck(map[string]integrity.Auditor{
		"gifts": auditorFunc(func(context.Context) ([]integrity.Issue, error) {
			return []integrity.Issue{{Kind: "gift_active_without_expiry", Ref: "GIFT-1"}}, nil
		}),
		"referrals": auditorFunc(func(context.Context) ([]integrity.Issue, error) {
			return nil, errors.New("timeout")
		}),
	}, mail, []string{"a@petport.app", "b@petport.app"}, nil)

	out, err := fn(context.Background())
	require.NoError(t, err)
	sum := out.(IntegritySummary)
	assert.Len(t, sum.Issues, 1)
	assert.Equal(t, 2, sum.Notified)
	assert.Equal(t, []string{"referrals: timeout"}, sum.Errors)
	assert.Len(t, mail.ByTemplate(email.TemplateIntegrityAlert), 2)
}

func TestIntegrityCheck_NoIssuesNoEmail(t *testing.T) {
	mail := &emailtest.Recorder{}
	fn := IntegrityCheck(map[string]integrity.Auditor{
		"gifts": auditorFunc(func(context.Context) ([]integrity.Issue, error) { return nil, nil }),
	}, mail, []string{"a@petport.app"}, nil)

	out, err := fn(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.(IntegritySummary).Issues)
	assert.Empty(t, mail.Sent)
}

func TestRunJobHandler(t *testing.T) {
	r := NewRunner(nil, nil)
	r.Register("ok", func(context.Context) (any, error) { return "done", nil })
	r.Register("bad", func(context.Context) (any, error) { return nil, errors.New("x") })

	mux := chi.NewRouter()
	RegisterRoutes(mux, r)

	cases := map[string]int{"/jobs/ok": http.StatusOK, "/jobs/bad": http.StatusInternalServerError, "/jobs/missing": http.StatusNotFound}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
