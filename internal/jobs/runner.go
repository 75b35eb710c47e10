package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"petport/internal/platform/errreport"
	"petport/internal/platform/joblock"
	"petport/internal/platform/logger"
	"petport/internal/platform/metrics"
)

var ErrUnknownJob = errors.New("unknown job")

// Func corre una pasada del job y devuelve su resumen (se serializa a JSON).
// Los errores por fila van dentro del resumen; error es solo para fallos del batch entero.
type Func func(ctx context.Context) (any, error)

type Result struct {
	Job        string    `json:"job"`
	Skipped    bool      `json:"skipped,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Summary    any       `json:"summary,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type Runner struct {
	mu     sync.RWMutex
	jobs   map[string]Func
	locker joblock.Locker
	ttl    time.Duration
	log    logger.Logger
	now    func() time.Time
}

const defaultLockTTL = 15 * time.Minute

// NewRunner: locker nil => lock local (una sola réplica).
func NewRunner(locker joblock.Locker, log logger.Logger) *Runner {
	if locker == nil {
		locker = joblock.NewLocalLocker()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		jobs:   map[string]Func{},
		locker: locker,
		ttl:    defaultLockTTL,
		log:    log.With(map[string]any{"component": "jobs"}),
		now:    time.Now,
	}
}

func (r *Runner) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[name] = fn
}

func (r *Runner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.jobs))
	for n := range r.jobs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Run ejecuta el job si nadie más tiene el lock. Lock tomado => Result.Skipped.
func (r *Runner) Run(ctx context.Context, name string) (Result, error) {
	r.mu.RLock()
	fn, ok := r.jobs[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	start := r.now()
	res := Result{Job: name, StartedAt: start}
	log := r.log.With(map[string]any{"job": name})

	release, err := r.locker.Acquire(ctx, name, r.ttl)
	if errors.Is(err, joblock.ErrHeld) {
		res.Skipped = true
		metrics.ObserveJob(name, "skipped", 0)
		log.Info("job skipped, lock held", nil)
		return res, nil
	}
	if err != nil {
		metrics.ObserveJob(name, "error", 0)
		errreport.Capture(ctx, err, map[string]string{"job": name, "stage": "lock"})
		return res, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	defer release()

	summary, err := r.call(ctx, name, fn)
	d := r.now().Sub(start)
	res.DurationMs = d.Milliseconds()
	res.Summary = summary

	if err != nil {
		res.Error = err.Error()
		metrics.ObserveJob(name, "error", d)
		errreport.Capture(ctx, err, map[string]string{"job": name})
		log.Error("job failed", map[string]any{"duration_ms": res.DurationMs, "error": err})
		return res, err
	}

	metrics.ObserveJob(name, "ok", d)
	log.Info("job finished", map[string]any{"duration_ms": res.DurationMs, "summary": summary})
	return res, nil
}

// call convierte un panic del job en error para no tirar el worker.
func (r *Runner) call(ctx context.Context, name string, fn Func) (summary any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			errreport.CapturePanic(ctx, rec, map[string]string{"job": name})
			err = fmt.Errorf("job %s panicked: %v", name, rec)
		}
	}()
	return fn(ctx)
}
