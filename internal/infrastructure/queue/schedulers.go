package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"library-backend/internal/config"
	"library-backend/internal/domains/loan/model"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	cfg       config.WorkerConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, cfg config.WorkerConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		cfg:       cfg,
	}
}

// RegisterJobs wires every recurring job. Currently just the nightly
// fine sweep.
func (s *Scheduler) RegisterJobs() error {
	return s.registerFineSweepJob()
}

// ================================================
// JOB: Fine Sweep (nightly)
// ================================================
func (s *Scheduler) registerFineSweepJob() error {
	// Empty payload: the handler sweeps as of its own current date.
	payload, err := json.Marshal(model.FineSweepPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeFinesSweep, payload)

	_, err = s.scheduler.Register(
		s.cfg.SweepCron,
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register FineSweep job", err)
		return err
	}

	logger.Info("✓ Registered FineSweep", map[string]interface{}{
		"cron": s.cfg.SweepCron,
	})
	return nil
}

func (s *Scheduler) Run() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
