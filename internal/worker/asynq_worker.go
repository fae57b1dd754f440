package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/provider"
	"github.com/neonclub/neon-api/internal/queue"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles the engine's asynchronous tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register binds every task type to its handler.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderEventApply, c.handleOrderEventApply)
	mux.HandleFunc(queue.TaskRankReevaluate, c.handleRankReevaluate)
	mux.HandleFunc(queue.TaskPeriodClose, c.handlePeriodClose)
	mux.HandleFunc(queue.TaskPayoutDispatch, c.handlePayoutDispatch)
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
}

func (c *Consumer) handleOrderEventApply(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_event_apply_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderEventApplyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_event_apply_unmarshal_failed", "error", err)
		return err
	}
	if payload.EventKey == "" {
		logger.Debugw("worker_order_event_apply_skip_invalid_payload")
		return nil
	}
	if c.VolumeService == nil {
		logger.Warnw("worker_order_event_apply_skip_volume_service_nil", "event_key", payload.EventKey)
		return nil
	}
	if err := c.VolumeService.ApplyEventByKey(payload.EventKey); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			logger.Debugw("worker_order_event_apply_skip_event_not_found", "event_key", payload.EventKey)
			return nil
		}
		logger.Warnw("worker_order_event_apply_failed", "event_key", payload.EventKey, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleRankReevaluate(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_rank_reevaluate_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RankReevaluatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_rank_reevaluate_unmarshal_failed", "error", err)
		return err
	}
	if payload.DistributorID == 0 {
		logger.Debugw("worker_rank_reevaluate_skip_invalid_payload", "distributor_id", payload.DistributorID)
		return nil
	}
	if c.RankService == nil {
		logger.Warnw("worker_rank_reevaluate_skip_rank_service_nil", "distributor_id", payload.DistributorID)
		return nil
	}
	periodKey := payload.PeriodKey
	if periodKey == "" {
		periodKey = service.CurrentPeriodKey()
	}
	if err := c.RankService.Evaluate(payload.DistributorID, periodKey); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Debugw("worker_rank_reevaluate_skip_distributor_not_found", "distributor_id", payload.DistributorID)
			return nil
		}
		logger.Warnw("worker_rank_reevaluate_failed", "distributor_id", payload.DistributorID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handlePeriodClose(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_period_close_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PeriodClosePayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_period_close_unmarshal_failed", "error", err)
			return err
		}
	}
	if payload.PeriodKey == "" {
		// Scheduler ticks carry no payload; close the period that just ended.
		payload.PeriodKey = service.PreviousPeriodKey(time.Now())
	}
	if c.PeriodCloseService == nil {
		logger.Warnw("worker_period_close_skip_service_nil", "period_key", payload.PeriodKey)
		return nil
	}
	run, err := c.PeriodCloseService.RunPeriodClose(payload.PeriodKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPeriodCloseRunning):
			// Another node holds the period. Retry through asynq backoff.
			logger.Debugw("worker_period_close_contended", "period_key", payload.PeriodKey)
			return err
		case errors.Is(err, service.ErrPeriodNotElapsed):
			logger.Debugw("worker_period_close_skip_not_elapsed", "period_key", payload.PeriodKey)
			return nil
		case errors.Is(err, service.ErrNotFound):
			logger.Debugw("worker_period_close_skip_invalid_key", "period_key", payload.PeriodKey)
			return nil
		default:
			logger.Warnw("worker_period_close_failed", "period_key", payload.PeriodKey, "error", err)
			return err
		}
	}
	logger.Infow("worker_period_close_done",
		"period_key", run.PeriodKey,
		"status", run.Status,
		"commission_count", run.CommissionsCreated,
		"events_skipped", run.EventsSkipped,
	)
	return nil
}

func (c *Consumer) handlePayoutDispatch(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payout_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PayoutDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payout_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.PayoutID == 0 {
		logger.Debugw("worker_payout_dispatch_skip_invalid_payload", "payout_id", payload.PayoutID)
		return nil
	}
	if c.PayoutService == nil {
		logger.Warnw("worker_payout_dispatch_skip_payout_service_nil", "payout_id", payload.PayoutID)
		return nil
	}
	if _, err := c.PayoutService.Complete(payload.PayoutID); err != nil {
		switch {
		case errors.Is(err, service.ErrPayoutNotFound):
			logger.Debugw("worker_payout_dispatch_skip_payout_not_found", "payout_id", payload.PayoutID)
			return nil
		case errors.Is(err, service.ErrInvalidTransition):
			// Already completed, failed, or cancelled since dispatch.
			logger.Debugw("worker_payout_dispatch_skip_invalid_status", "payout_id", payload.PayoutID)
			return nil
		default:
			logger.Warnw("worker_payout_dispatch_failed", "payout_id", payload.PayoutID, "error", err)
			if _, failErr := c.PayoutService.Fail(payload.PayoutID, err.Error()); failErr != nil {
				logger.Warnw("worker_payout_dispatch_mark_failed_error", "payout_id", payload.PayoutID, "error", failErr)
			}
			return err
		}
	}
	return nil
}

func (c *Consumer) handleNotificationDispatch(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.Kind == "" || payload.DistributorID == 0 {
		logger.Debugw("worker_notification_skip_invalid_payload", "kind", payload.Kind, "distributor_id", payload.DistributorID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_skip_service_nil", "kind", payload.Kind)
		return nil
	}
	err := c.NotificationService.Deliver(service.NotificationInput{
		Kind:          payload.Kind,
		DistributorID: payload.DistributorID,
		RefID:         payload.RefID,
		PeriodKey:     payload.PeriodKey,
		Detail:        payload.Detail,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailDisabled), errors.Is(err, service.ErrEmailNotConfigured):
			logger.Debugw("worker_notification_skip_email_disabled", "kind", payload.Kind, "distributor_id", payload.DistributorID)
			return nil
		case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidEmail):
			logger.Debugw("worker_notification_skip_unroutable", "kind", payload.Kind, "distributor_id", payload.DistributorID)
			return nil
		default:
			logger.Warnw("worker_notification_send_failed", "kind", payload.Kind, "distributor_id", payload.DistributorID, "error", err)
			return err
		}
	}
	return nil
}
