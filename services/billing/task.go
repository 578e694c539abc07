package billing

import (
	"context"
	"time"

	"farmavida-master/pkg/config"
	"farmavida-master/pkg/task"
	"farmavida-master/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Monitor interface {
	MonitorSubscriptions(ctx context.Context, now time.Time) (*MonitorReport, error)
}

type TaskHandler struct {
	monitor Monitor
	now     func() time.Time
}

func NewTaskHandler(m Monitor) *TaskHandler {
	return &TaskHandler{monitor: m, now: time.Now}
}

func (h *TaskHandler) HandleMonitorRun(ctx context.Context, _ *asynq.Task) error {
	start := h.now()
	report, err := h.monitor.MonitorSubscriptions(ctx, start)
	if err != nil {
		return err
	}
	zap.L().Info("[Billing] subscription monitor finished",
		zap.Int("checked", report.Checked),
		zap.Int("past_due", len(report.PastDue)),
		zap.Int("blocked", len(report.Blocked)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Scheduler enqueues the subscription monitor once a day.
type Scheduler struct {
	enqueuer task.Enqueuer
	hour     int
	now      func() time.Time
}

func NewScheduler(enqueuer task.Enqueuer, cfg *config.Config) *Scheduler {
	return &Scheduler{enqueuer: enqueuer, hour: cfg.Billing.MonitorHour, now: time.Now}
}

func startScheduler(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("[Scheduler] started subscription monitor scheduler", zap.Int("hour", s.hour))

	for {
		now := s.now()
		next := nextRunTime(now, s.hour, 0)

		zap.L().Info("[Scheduler] next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", next.Sub(now)),
		)
		select {
		case <-time.After(next.Sub(now)):
			s.enqueue(ctx)
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

// enqueue is unique per day so several workers schedule a single run.
func (s *Scheduler) enqueue(ctx context.Context) {
	_, err := s.enqueuer.Enqueue(ctx,
		asynq.NewTask(taskname.BillingMonitorRun, nil),
		asynq.Unique(23*time.Hour),
		asynq.MaxRetry(3),
	)
	if err != nil {
		zap.L().Error("[Scheduler] failed to enqueue subscription monitor", zap.Error(err))
	}
}

func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

type registerParams struct {
	fx.In
	Mux     *asynq.ServeMux
	Service *Service
}

func registerTasks(p registerParams) {
	h := NewTaskHandler(p.Service)
	p.Mux.HandleFunc(taskname.BillingMonitorRun, h.HandleMonitorRun)
}
