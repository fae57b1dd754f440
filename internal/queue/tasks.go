package queue

import (
	"encoding/json"

	"github.com/neonclub/neon-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderEventApply rolls one recorded order event into the tree.
	TaskOrderEventApply = constants.TaskOrderEventApply
	// TaskRankReevaluate re-checks one distributor's rank.
	TaskRankReevaluate = constants.TaskRankReevaluate
	// TaskPeriodClose runs the month-end close for one period.
	TaskPeriodClose = constants.TaskPeriodClose
	// TaskPayoutDispatch pushes one approved payout through processing.
	TaskPayoutDispatch = constants.TaskPayoutDispatch
	// TaskNotificationDispatch sends one notification email.
	TaskNotificationDispatch = constants.TaskNotificationDispatch
)

// OrderEventApplyPayload identifies the event to roll up.
type OrderEventApplyPayload struct {
	EventKey string `json:"event_key"`
}

// RankReevaluatePayload identifies the distributor to re-check.
type RankReevaluatePayload struct {
	DistributorID uint   `json:"distributor_id"`
	PeriodKey     string `json:"period_key"`
}

// PeriodClosePayload identifies the period to close.
type PeriodClosePayload struct {
	PeriodKey string `json:"period_key"`
}

// PayoutDispatchPayload identifies the payout to process.
type PayoutDispatchPayload struct {
	PayoutID uint `json:"payout_id"`
}

// NotificationPayload carries one notification to deliver.
type NotificationPayload struct {
	Kind          string `json:"kind"`
	DistributorID uint   `json:"distributor_id"`
	RefID         uint   `json:"ref_id,omitempty"`
	PeriodKey     string `json:"period_key,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// NewOrderEventApplyTask creates the roll-up task.
func NewOrderEventApplyTask(payload OrderEventApplyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderEventApply, body), nil
}

// NewRankReevaluateTask creates the rank re-check task.
func NewRankReevaluateTask(payload RankReevaluatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRankReevaluate, body), nil
}

// NewPeriodCloseTask creates the period close task.
func NewPeriodCloseTask(payload PeriodClosePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPeriodClose, body), nil
}

// NewPayoutDispatchTask creates the payout processing task.
func NewPayoutDispatchTask(payload PayoutDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayoutDispatch, body), nil
}

// NewNotificationTask creates the notification delivery task.
func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}
