package scheduler

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

// BillJobs is the slice of the bills service the worker needs.
type BillJobs interface {
	GenerateMonthly(ctx context.Context, month time.Time) (int, error)
	SendDueReminders(ctx context.Context, month time.Time) (int, error)
}

// Worker consumes bill jobs from the queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bills  BillJobs
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, bills BillJobs, log *logger.Logger) (*Worker, error) {
	opt, queue, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		bills:  bills,
		log:    log,
	}

	mux.HandleFunc(TaskGenerateMonthlyBills, w.handleGenerateMonthlyBills)
	mux.HandleFunc(TaskSendDueReminders, w.handleSendDueReminders)

	return w, nil
}

func (w *Worker) handleGenerateMonthlyBills(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMonthPayload(task)
	if err != nil {
		return err
	}

	month, err := payload.ParseMonth()
	if err != nil {
		return err
	}

	created, err := w.bills.GenerateMonthly(ctx, month)
	if err != nil {
		return err
	}

	w.log.Info("monthly bills generated", "month", month.Format("2006-01"), "created", created)
	return nil
}

func (w *Worker) handleSendDueReminders(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMonthPayload(task)
	if err != nil {
		return err
	}

	month, err := payload.ParseMonth()
	if err != nil {
		return err
	}

	notified, err := w.bills.SendDueReminders(ctx, month)
	if err != nil {
		return err
	}

	w.log.Info("due reminders sent", "month", month.Format("2006-01"), "notified", notified)
	return nil
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// NewPeriodic builds the cron registrations: bill generation on the 1st of
// each month, due reminders on the 10th.
func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*asynq.Scheduler, error) {
	opt, queue, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	sched := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})

	generate, err := NewGenerateMonthlyBillsTask(MonthPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := sched.Register("0 2 1 * *", generate, asynq.Queue(queue)); err != nil {
		return nil, err
	}

	remind, err := NewSendDueRemindersTask(MonthPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := sched.Register("0 4 10 * *", remind, asynq.Queue(queue)); err != nil {
		return nil, err
	}

	log.Info("periodic bill jobs registered", "queue", queue)
	return sched, nil
}
