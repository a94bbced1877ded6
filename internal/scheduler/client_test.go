package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"

	"github.com/raftaar7864/rental-management-backend/platform/config"
)

func TestParseMonthDefaultsToCurrentMonth(t *testing.T) {
	month, err := MonthPayload{}.ParseMonth()
	if err != nil {
		t.Fatalf("parse month: %v", err)
	}
	now := time.Now()
	if month.Year() != now.Year() || month.Month() != now.Month() {
		t.Fatalf("month = %v, want current month", month)
	}
	if month.Day() != 1 {
		t.Fatalf("day = %d, want first of month", month.Day())
	}
}

func TestParseMonthExplicit(t *testing.T) {
	month, err := MonthPayload{Month: "2024-03"}.ParseMonth()
	if err != nil {
		t.Fatalf("parse month: %v", err)
	}
	want := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !month.Equal(want) {
		t.Fatalf("month = %v, want %v", month, want)
	}

	if _, err := (MonthPayload{Month: "March 2024"}).ParseMonth(); err == nil {
		t.Fatal("malformed month should error")
	}
}

func TestParseMonthPayloadRoundTrip(t *testing.T) {
	task, err := NewGenerateMonthlyBillsTask(MonthPayload{Month: "2024-03"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskGenerateMonthlyBills {
		t.Fatalf("task type = %q, want %q", task.Type(), TaskGenerateMonthlyBills)
	}

	payload, err := ParseMonthPayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.Month != "2024-03" {
		t.Fatalf("month = %q, want 2024-03", payload.Month)
	}
}

func TestParseMonthPayloadEmpty(t *testing.T) {
	payload, err := ParseMonthPayload(asynq.NewTask(TaskSendDueReminders, nil))
	if err != nil {
		t.Fatalf("parse empty payload: %v", err)
	}
	if payload.Month != "" {
		t.Fatalf("month = %q, want empty", payload.Month)
	}
}

func TestRedisClientOpt(t *testing.T) {
	cfg := &config.Config{RedisURL: "redis://:s3cret@localhost:6379/2"}

	opt, queue, err := redisClientOpt(cfg)
	if err != nil {
		t.Fatalf("redis client opt: %v", err)
	}
	if opt.Addr != "localhost:6379" {
		t.Fatalf("addr = %q, want localhost:6379", opt.Addr)
	}
	if opt.Password != "s3cret" {
		t.Fatalf("password = %q, want s3cret", opt.Password)
	}
	if opt.DB != 2 {
		t.Fatalf("db = %d, want 2", opt.DB)
	}
	if queue != "default" {
		t.Fatalf("queue = %q, want default", queue)
	}
}

func TestRedisClientOptRequiresURL(t *testing.T) {
	if _, _, err := redisClientOpt(&config.Config{}); err == nil {
		t.Fatal("missing redis url should error")
	}
}

func TestClientEnqueuesBillJobs(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := &config.Config{
		RedisURL:       "redis://" + srv.Addr(),
		AsynqQueueName: "bills",
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.EnqueueGenerateMonthlyBills(ctx, MonthPayload{Month: "2024-03"}); err != nil {
		t.Fatalf("enqueue generate: %v", err)
	}
	if err := client.EnqueueSendDueReminders(ctx, MonthPayload{}); err != nil {
		t.Fatalf("enqueue reminders: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: srv.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks("bills")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("pending tasks = %d, want 2", len(tasks))
	}

	types := map[string]bool{}
	for _, task := range tasks {
		types[task.Type] = true
	}
	if !types[TaskGenerateMonthlyBills] || !types[TaskSendDueReminders] {
		t.Fatalf("pending task types = %v, want both bill jobs", types)
	}
}
