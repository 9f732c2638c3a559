// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"bgverify-jobs/internal/common/errors"
	"bgverify-jobs/internal/common/logger"
)

// Runner is the job a scheduler triggers; implemented by notify.Service.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler fires the delay notification job at fixed wall-clock times
// each day. Times are configured as "HH:MM" in the server's local zone.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger logger.Logger
}

func New(runner Runner, times []string, log logger.Logger) (*Scheduler, error) {
	if len(times) == 0 {
		return nil, errors.NewInvalidConfigurationError("at least one trigger time is required")
	}

	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		logger: log.WithFields(map[string]interface{}{"component": "scheduler"}),
	}

	for _, at := range times {
		spec, err := CronSpec(at)
		if err != nil {
			return nil, err
		}
		at := at
		if _, err := s.cron.AddFunc(spec, func() { s.fire(at) }); err != nil {
			return nil, errors.NewInvalidConfigurationError(
				fmt.Sprintf("trigger time %q: %v", at, err))
		}
	}

	return s, nil
}

// CronSpec converts an "HH:MM" trigger time into a daily cron expression.
func CronSpec(at string) (string, error) {
	parts := strings.Split(strings.TrimSpace(at), ":")
	if len(parts) != 2 {
		return "", errors.NewInvalidConfigurationError(
			fmt.Sprintf("trigger time %q is not HH:MM", at))
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", errors.NewInvalidConfigurationError(
			fmt.Sprintf("trigger time %q has invalid hour", at))
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", errors.NewInvalidConfigurationError(
			fmt.Sprintf("trigger time %q has invalid minute", at))
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func (s *Scheduler) fire(at string) {
	s.logger.Info("scheduled trigger fired", map[string]interface{}{"at": at})
	if err := s.runner.Run(context.Background()); err != nil {
		s.logger.Error("scheduled run failed", map[string]interface{}{
			"at":    at,
			"error": err.Error(),
		})
	}
}

// Start begins firing at the configured times. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{
		"entries": len(s.cron.Entries()),
	})
}

// Stop halts scheduling and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped", nil)
}
