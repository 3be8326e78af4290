package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/logger"
)

// CacheReconcileTask periodically rebuilds every variant attribute cache so
// entries left stale by value renames or deletions converge.
type CacheReconcileTask struct {
	sync    domain.CacheSyncUsecase
	cron    *cron.Cron
	spec    string
	timeout time.Duration
	log     zerolog.Logger
}

// NewCacheReconcileTask takes a six-field (seconds first) cron spec. An empty
// spec disables the schedule.
func NewCacheReconcileTask(sync domain.CacheSyncUsecase, spec string, timeout time.Duration) *CacheReconcileTask {
	log := logger.WithComponent("cache-reconcile")
	cl := cronLogger{log: log}
	return &CacheReconcileTask{
		sync: sync,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:    spec,
		timeout: timeout,
		log:     log,
	}
}

func (t *CacheReconcileTask) Start() error {
	if t.spec == "" {
		t.log.Info().Msg("Attribute cache reconcile disabled")
		return nil
	}
	if _, err := t.cron.AddFunc(t.spec, t.run); err != nil {
		return fmt.Errorf("schedule cache reconcile %q: %w", t.spec, err)
	}
	t.cron.Start()
	t.log.Info().Str("spec", t.spec).Msg("Attribute cache reconcile scheduled")
	return nil
}

// Stop waits for a running reconcile to finish.
func (t *CacheReconcileTask) Stop() {
	<-t.cron.Stop().Done()
}

func (t *CacheReconcileTask) run() {
	ctx := context.Background()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	_, _ = t.RunOnce(ctx)
}

// RunOnce performs one full reconcile with the task's logger in ctx.
func (t *CacheReconcileTask) RunOnce(ctx context.Context) (domain.RebuildStats, error) {
	ctx = logger.NewContext(ctx, &t.log)
	stats, err := t.sync.RebuildAll(ctx)
	if err != nil {
		t.log.Error().Err(err).
			Int("products", stats.Products).
			Msg("Attribute cache reconcile aborted")
	}
	return stats, err
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
