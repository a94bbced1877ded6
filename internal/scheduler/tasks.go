package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskGenerateMonthlyBills = "bills.generate_monthly"

const TaskSendDueReminders = "bills.due_reminders"

// MonthPayload addresses one billing month.
type MonthPayload struct {
	Month string `json:"month"` // "2006-01"
}

// ParseMonth resolves the payload month, defaulting to the current month
// for periodic runs that carry no explicit payload.
func (p MonthPayload) ParseMonth() (time.Time, error) {
	if p.Month == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01", p.Month)
}

func NewGenerateMonthlyBillsTask(payload MonthPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateMonthlyBills, data), nil
}

func NewSendDueRemindersTask(payload MonthPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendDueReminders, data), nil
}

func ParseMonthPayload(task *asynq.Task) (MonthPayload, error) {
	var payload MonthPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MonthPayload{}, err
	}
	return payload, nil
}
