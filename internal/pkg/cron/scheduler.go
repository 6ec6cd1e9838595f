package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

// Scheduler runs each registered job on its own ticker until the context is cancelled
type Scheduler struct {
	jobs []job
	wg   sync.WaitGroup
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) AddJob(name string, interval time.Duration, fn JobFunc) {
	s.jobs = append(s.jobs, job{name: name, interval: interval, fn: fn})
}

func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j job) {
			defer s.wg.Done()
			ticker := time.NewTicker(j.interval)
			defer ticker.Stop()

			slog.Info("Cron: job registered", "job", j.name, "interval", j.interval.String())
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.run(ctx, j)
				}
			}
		}(j)
	}
}

// Wait blocks until every job goroutine has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, j job) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Cron: job panicked", "job", j.name, "panic", p)
		}
	}()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		slog.Error("Cron: job failed", "job", j.name, "error", err)
		return
	}
	slog.Debug("Cron: job finished", "job", j.name, "duration", time.Since(start).String())
}
