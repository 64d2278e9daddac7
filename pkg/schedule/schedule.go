// Package schedule runs periodic maintenance on go-co-op/gocron.
//
//	s, _ := schedule.New()
//	_ = s.Every("orders.sample-open", time.Minute, sampleOpenOrders)
//	_ = s.Daily("queue.prune-failed", 3, 0, pruneFailedJobs)
//	s.Start()
//	defer s.Shutdown()
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/cherrydine/cherrydine/pkg/logger"
)

type Task func(ctx context.Context) error

type Scheduler struct {
	cron   gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts ...gocron.SchedulerOption) (*Scheduler, error) {
	cron, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{cron: cron, ctx: ctx, cancel: cancel}, nil
}

// Every runs task every d, starting immediately. A run that is still going
// when the next one is due makes the next one skip.
func (s *Scheduler) Every(name string, d time.Duration, task Task) error {
	return s.add(name, gocron.DurationJob(d), task, gocron.WithStartAt(gocron.WithStartImmediately()))
}

// Daily runs task once a day at hour:minute in the scheduler's location.
func (s *Scheduler) Daily(name string, hour, minute uint, task Task) error {
	return s.add(name, gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))), task)
}

// Cron takes a standard five-field expression.
func (s *Scheduler) Cron(name, expr string, task Task) error {
	return s.add(name, gocron.CronJob(expr, false), task)
}

func (s *Scheduler) add(name string, def gocron.JobDefinition, task Task, extra ...gocron.JobOption) error {
	opts := append([]gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, extra...)

	_, err := s.cron.NewJob(def, gocron.NewTask(s.wrap(name, task)), opts...)
	if err != nil {
		return fmt.Errorf("schedule: add %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) wrap(name string, task Task) func() {
	return func() {
		start := time.Now()
		log := logger.L.With("task", name)
		defer func() {
			if r := recover(); r != nil {
				log.Error("schedule: task panicked", "panic", r)
			}
		}()
		if err := task(s.ctx); err != nil {
			log.Error("schedule: task failed", "error", err)
			return
		}
		log.Debug("schedule: task done", "duration_ms", time.Since(start).Milliseconds())
	}
}

// Names lists registered jobs, for the schedule:list command.
func (s *Scheduler) Names() []string {
	jobs := s.cron.Jobs()
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Name())
	}
	return out
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("schedule: started", "jobs", len(s.cron.Jobs()))
}

// Shutdown waits for running tasks.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.cron.Shutdown()
}
