package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/neonclub/neon-api/internal/provider"
	"github.com/neonclub/neon-api/internal/queue"

	"github.com/hibiken/asynq"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestHandleOrderEventApplyBadPayload(t *testing.T) {
	c := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskOrderEventApply, []byte("{not json"))
	if err := c.handleOrderEventApply(context.Background(), task); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestHandleOrderEventApplyEmptyKeySkipped(t *testing.T) {
	c := NewConsumer(&provider.Container{})
	payload := mustMarshal(t, queue.OrderEventApplyPayload{})
	task := asynq.NewTask(queue.TaskOrderEventApply, payload)
	if err := c.handleOrderEventApply(context.Background(), task); err != nil {
		t.Fatalf("empty event key should be skipped, got %v", err)
	}
}

func TestHandleRankReevaluateZeroIDSkipped(t *testing.T) {
	c := NewConsumer(&provider.Container{})
	payload := mustMarshal(t, queue.RankReevaluatePayload{DistributorID: 0})
	task := asynq.NewTask(queue.TaskRankReevaluate, payload)
	if err := c.handleRankReevaluate(context.Background(), task); err != nil {
		t.Fatalf("zero distributor id should be skipped, got %v", err)
	}
}

func TestHandleNotificationMissingServiceSkipped(t *testing.T) {
	c := NewConsumer(&provider.Container{})
	payload := mustMarshal(t, queue.NotificationPayload{Kind: "rank_changed", DistributorID: 7})
	task := asynq.NewTask(queue.TaskNotificationDispatch, payload)
	if err := c.handleNotificationDispatch(context.Background(), task); err != nil {
		t.Fatalf("nil notification service should be skipped, got %v", err)
	}
}

func TestRegisterNilMux(t *testing.T) {
	c := NewConsumer(nil)
	c.Register(nil)
}
