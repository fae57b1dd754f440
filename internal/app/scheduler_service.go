package app

import (
	"context"
	"errors"

	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultCloseCronSpec = "10 0 1 * *"

// SchedulerService enqueues the monthly period close on a cron schedule.
// The close task itself is idempotent, so a scheduler running on several
// nodes at once only costs duplicate enqueues.
type SchedulerService struct {
	name      string
	scheduler *asynq.Scheduler
}

// NewSchedulerService creates the close scheduler.
func NewSchedulerService(cfg *config.Config) (*SchedulerService, error) {
	if cfg == nil || !cfg.Close.Enabled {
		return nil, errors.New("close scheduler disabled")
	}
	if !cfg.Queue.Enabled {
		return nil, errors.New("close scheduler requires the queue")
	}

	cronSpec := cfg.Close.CronSpec
	if cronSpec == "" {
		cronSpec = defaultCloseCronSpec
	}

	scheduler := asynq.NewScheduler(queue.BuildRedisOpt(&cfg.Queue), &asynq.SchedulerOpts{
		Logger: schedulerLogger{},
	})

	// An empty payload tells the worker to close the period that just
	// ended at the time the task fires.
	task := asynq.NewTask(queue.TaskPeriodClose, nil)
	_, err := scheduler.Register(cronSpec, task,
		asynq.Queue(queue.CriticalQueue),
		asynq.MaxRetry(5),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerService{
		name:      "scheduler",
		scheduler: scheduler,
	}, nil
}

// schedulerLogger adapts the global logger to the asynq.Logger interface.
type schedulerLogger struct{}

func (schedulerLogger) Debug(args ...interface{}) { logger.S().Debug(args...) }
func (schedulerLogger) Info(args ...interface{})  { logger.S().Info(args...) }
func (schedulerLogger) Warn(args ...interface{})  { logger.S().Warn(args...) }
func (schedulerLogger) Error(args ...interface{}) { logger.S().Error(args...) }
func (schedulerLogger) Fatal(args ...interface{}) { logger.S().Fatal(args...) }

// Name returns the service name.
func (s *SchedulerService) Name() string {
	if s == nil || s.name == "" {
		return "scheduler"
	}
	return s.name
}

// Start runs the scheduler until shutdown.
func (s *SchedulerService) Start(_ context.Context) error {
	if s == nil || s.scheduler == nil {
		return errors.New("scheduler not initialized")
	}
	return s.scheduler.Run()
}

// Stop shuts the scheduler down.
func (s *SchedulerService) Stop(_ context.Context) error {
	if s == nil || s.scheduler == nil {
		return nil
	}
	s.scheduler.Shutdown()
	return nil
}
