// internal/notify/service.go
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bgverify-jobs/internal/common/errors"
	"bgverify-jobs/internal/common/logger"
	"bgverify-jobs/internal/common/metrics"
	"bgverify-jobs/internal/common/observability"
	"bgverify-jobs/internal/models"
	"bgverify-jobs/internal/tat"
)

const runLockKey = "tat:delay-run-lock"

// Engine computes the delay hierarchy; implemented by tat.Engine.
type Engine interface {
	ComputeDelayedApplications(ctx context.Context) (*tat.Hierarchy, error)
}

// Roster fetches active admin recipients; implemented by store.Store.
type Roster interface {
	ActiveAdmins(ctx context.Context, role string) ([]models.AdminUser, error)
}

// RunRecorder writes the per-run audit row; implemented by store.Store.
type RunRecorder interface {
	RecordRun(ctx context.Context, run models.NotificationRun) error
}

// Locker guards against overlapping triggers; implemented by
// database.RedisClient. A nil Locker disables locking.
type Locker interface {
	AcquireRunLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context, key, owner string) error
}

// Indexer ships run reports to the ops search index. A nil Indexer
// disables indexing; indexing failures never fail the run.
type Indexer interface {
	IndexRun(ctx context.Context, run models.NotificationRun, rows []tat.ReportRow) error
}

// Config holds settings for the delay notification trigger.
type Config struct {
	AdminRole    string
	Subject      string
	RunLockTTL   time.Duration
	SMSEnabled   bool
	CriticalDays int
}

func DefaultConfig() *Config {
	return &Config{
		AdminRole:    "admin",
		Subject:      "Applications out of TAT",
		RunLockTTL:   5 * time.Minute,
		CriticalDays: 10,
	}
}

func (c *Config) Validate() error {
	if c.AdminRole == "" {
		return errors.NewInvalidConfigurationError("admin_role is required")
	}
	if c.Subject == "" {
		return errors.NewInvalidConfigurationError("subject is required")
	}
	if c.RunLockTTL <= 0 {
		return errors.NewInvalidConfigurationError("run_lock_ttl must be positive")
	}
	if c.SMSEnabled && c.CriticalDays <= 0 {
		return errors.NewInvalidConfigurationError("critical_days must be positive when SMS is enabled")
	}
	return nil
}

// Dependencies bundles the collaborators of the trigger service.
type Dependencies struct {
	Engine   Engine
	Roster   Roster
	Recorder RunRecorder
	Mailer   Mailer
	SMS      SMSSender
	Locker   Locker
	Indexer  Indexer
	Obs      *observability.Observability
	Logger   logger.Logger
	Now      func() time.Time
}

// Service is the scheduled notification trigger. Every run derives the
// hierarchy fresh from live data, so invoking it repeatedly is safe:
// a crashed or skipped run is simply resolved by the next one.
type Service struct {
	config   *Config
	engine   Engine
	roster   Roster
	recorder RunRecorder
	mailer   Mailer
	sms      SMSSender
	locker   Locker
	indexer  Indexer
	obs      *observability.Observability
	logger   logger.Logger
	now      func() time.Time
}

func NewService(deps Dependencies, config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		config:   config,
		engine:   deps.Engine,
		roster:   deps.Roster,
		recorder: deps.Recorder,
		mailer:   deps.Mailer,
		sms:      deps.SMS,
		locker:   deps.Locker,
		indexer:  deps.Indexer,
		obs:      deps.Obs,
		logger:   deps.Logger.WithFields(map[string]interface{}{"component": "tat-notifier"}),
		now:      now,
	}, nil
}

// Run executes one delay notification cycle. Computation and roster
// failures surface as errors; delivery failures are logged and absorbed
// so the scheduler never sees them.
func (s *Service) Run(ctx context.Context) error {
	started := s.now()
	owner := uuid.New().String()

	if s.locker != nil {
		ok, err := s.locker.AcquireRunLock(ctx, runLockKey, owner, s.config.RunLockTTL)
		if err != nil {
			// Lock store being down must not stop notifications.
			s.logger.Warn("run lock unavailable, proceeding without it", map[string]interface{}{
				"error": err.Error(),
			})
		} else if !ok {
			s.logger.Info("run skipped, lock held by another trigger", nil)
			metrics.RunsTotal.WithLabelValues("skipped").Inc()
			return nil
		} else {
			defer func() {
				if err := s.locker.ReleaseRunLock(ctx, runLockKey, owner); err != nil {
					s.logger.Warn("failed to release run lock", map[string]interface{}{
						"error": err.Error(),
					})
				}
			}()
		}
	}

	hierarchy, err := s.engine.ComputeDelayedApplications(ctx)
	if err != nil {
		s.logger.Error("delay computation failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.finish(ctx, started, "compute_failed")
		return err
	}

	customers, branches, applications := hierarchy.Counts()
	metrics.DelayedApplications.Set(float64(applications))

	run := models.NotificationRun{
		ID:           uuid.New().String(),
		RunAt:        started.UTC(),
		Customers:    customers,
		Branches:     branches,
		Applications: applications,
	}

	if hierarchy.Empty() {
		s.logger.Info("no delayed applications, nothing to notify", nil)
		run.Status = models.RunStatusNoDelays
		s.record(ctx, run)
		s.finish(ctx, started, models.RunStatusNoDelays)
		return nil
	}

	s.logger.Info("delayed applications found", map[string]interface{}{
		"customers":    customers,
		"branches":     branches,
		"applications": applications,
		"maxDays":      hierarchy.MaxDaysOutOfTAT(),
	})

	admins, err := s.roster.ActiveAdmins(ctx, s.config.AdminRole)
	if err != nil {
		stdErr := errors.NewRosterFetchFailedError(err)
		s.logger.Error("admin roster fetch failed, notification aborted", map[string]interface{}{
			"error": err.Error(),
		})
		run.Status = models.RunStatusMailFailed
		run.Error = stdErr.Error()
		s.record(ctx, run)
		s.finish(ctx, started, "roster_failed")
		return stdErr
	}
	if len(admins) == 0 {
		s.logger.Warn("no active admins on roster, notification skipped", map[string]interface{}{
			"role": s.config.AdminRole,
		})
		run.Status = models.RunStatusMailFailed
		run.Error = "no active admins"
		s.record(ctx, run)
		s.finish(ctx, started, models.RunStatusMailFailed)
		return nil
	}

	body, err := RenderReport(hierarchy, started)
	if err != nil {
		s.logger.Error("report rendering failed", map[string]interface{}{
			"error": err.Error(),
		})
		run.Status = models.RunStatusMailFailed
		run.Error = err.Error()
		s.record(ctx, run)
		s.finish(ctx, started, models.RunStatusMailFailed)
		return nil
	}

	to := make([]string, 0, len(admins))
	for _, a := range admins {
		to = append(to, a.Email)
	}

	if err := s.mailer.Send(ctx, to, s.config.Subject, body); err != nil {
		stdErr := errors.NewNotificationSendFailedError(err)
		s.logger.Error("delay report email failed", map[string]interface{}{
			"error":      err.Error(),
			"recipients": len(to),
		})
		metrics.NotificationsFailed.WithLabelValues("email").Inc()
		run.Status = models.RunStatusMailFailed
		run.Error = stdErr.Error()
		s.record(ctx, run)
		s.index(ctx, run, hierarchy)
		s.finish(ctx, started, models.RunStatusMailFailed)
		// Delivery failure never crashes the schedule; the next run
		// recomputes from live data.
		return nil
	}

	metrics.NotificationsSent.WithLabelValues("email").Inc()
	run.Status = models.RunStatusSent

	s.logger.Info("delay report emailed", map[string]interface{}{
		"recipients":   len(to),
		"applications": applications,
	})

	s.sendEscalationSMS(ctx, hierarchy, admins)
	s.record(ctx, run)
	s.index(ctx, run, hierarchy)
	s.finish(ctx, started, models.RunStatusSent)

	return nil
}

func (s *Service) sendEscalationSMS(ctx context.Context, hierarchy *tat.Hierarchy, admins []models.AdminUser) {
	if !s.config.SMSEnabled || s.sms == nil {
		return
	}
	if hierarchy.MaxDaysOutOfTAT() < s.config.CriticalDays {
		return
	}

	message := RenderSMSSummary(hierarchy, s.config.CriticalDays)
	for _, a := range admins {
		if a.Mobile == "" {
			continue
		}
		if err := s.sms.SendSMS(ctx, a.Mobile, message); err != nil {
			s.logger.Error("escalation SMS failed", map[string]interface{}{
				"error":  err.Error(),
				"mobile": a.Mobile,
			})
			metrics.NotificationsFailed.WithLabelValues("sms").Inc()
			continue
		}
		metrics.NotificationsSent.WithLabelValues("sms").Inc()
	}
}

func (s *Service) record(ctx context.Context, run models.NotificationRun) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordRun(ctx, run); err != nil {
		s.logger.Error("failed to record notification run", map[string]interface{}{
			"error": err.Error(),
			"runId": run.ID,
		})
	}
}

func (s *Service) index(ctx context.Context, run models.NotificationRun, hierarchy *tat.Hierarchy) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexRun(ctx, run, hierarchy.Flatten()); err != nil {
		s.logger.Warn("failed to index run report", map[string]interface{}{
			"error": err.Error(),
			"runId": run.ID,
		})
	}
}

func (s *Service) finish(ctx context.Context, started time.Time, status string) {
	elapsed := time.Since(started)
	metrics.RunsTotal.WithLabelValues(status).Inc()
	metrics.RunDuration.Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordRunProcessed(ctx, status)
		s.obs.RecordRunDuration(ctx, elapsed, status)
	}
}
