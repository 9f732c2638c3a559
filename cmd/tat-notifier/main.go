// cmd/tat-notifier/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bgverify-jobs/internal/common/aws"
	"bgverify-jobs/internal/common/config"
	"bgverify-jobs/internal/common/database"
	"bgverify-jobs/internal/common/logger"
	"bgverify-jobs/internal/common/observability"
	"bgverify-jobs/internal/notify"
	"bgverify-jobs/internal/scheduler"
	"bgverify-jobs/internal/search"
	"bgverify-jobs/internal/store"
	"bgverify-jobs/internal/tat"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting TAT notifier...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("tat-notifier")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		// The run lock is best-effort; a single instance works without it.
		zapLog.Warn("redis unavailable, run locking disabled", zap.Error(err))
		redis = nil
	} else {
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Elasticsearch (optional) ---
	var indexer notify.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Warn("elasticsearch unavailable, run indexing disabled", zap.Error(err))
		} else {
			indexer = search.NewRunIndexer(esClient.Client, cfg.Database.Elasticsearch.RunIndex, log)
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Init delivery channels ---
	var mailer notify.Mailer
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		mailer = notify.NewSESMailer(sesClient, cfg.Integrations.AWS.SES.FromEmail)
		zapLog.Info("SES mailer initialized", zap.String("from", cfg.Integrations.AWS.SES.FromEmail))
	} else {
		mailer, err = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Integrations.SMTP.Host,
			Port:     cfg.Integrations.SMTP.Port,
			Username: cfg.Integrations.SMTP.Username,
			Password: cfg.Integrations.SMTP.Password,
			UseTLS:   cfg.Integrations.SMTP.UseTLS,
			From:     cfg.Integrations.SMTP.DefaultFrom,
		})
		if err != nil {
			zapLog.Fatal("smtp mailer failed", zap.Error(err))
		}
		zapLog.Info("SMTP mailer initialized", zap.String("host", cfg.Integrations.SMTP.Host))
	}

	var smsSender notify.SMSSender
	if cfg.Notifications.SMS.Enabled && cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		smsSender = notify.NewSNSSender(snsClient, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
		zapLog.Info("SNS sender initialized")
	}

	// --- Wire the notification service ---
	st := store.NewStore(pg.DB)
	engine := tat.NewEngine(st, log)

	deps := notify.Dependencies{
		Engine:   engine,
		Roster:   st,
		Recorder: st,
		Mailer:   mailer,
		SMS:      smsSender,
		Indexer:  indexer,
		Obs:      obs,
		Logger:   log,
	}
	if redis != nil {
		deps.Locker = redis
	}

	svc, err := notify.NewService(deps, &notify.Config{
		AdminRole:    cfg.Notifications.AdminRole,
		Subject:      cfg.Notifications.Subject,
		RunLockTTL:   time.Duration(cfg.Notifications.RunLockTTL) * time.Second,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		CriticalDays: cfg.Notifications.SMS.CriticalDays,
	})
	if err != nil {
		zapLog.Fatal("notification service failed", zap.Error(err))
	}

	sched, err := scheduler.New(svc, cfg.Notifications.Times, log)
	if err != nil {
		zapLog.Fatal("scheduler setup failed", zap.Error(err))
	}
	sched.Start()
	zapLog.Info("Notification schedule registered", zap.Strings("times", cfg.Notifications.Times))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			go func() {
				if err := svc.Run(context.Background()); err != nil {
					zapLog.Error("manual run failed", zap.Error(err))
				}
			}()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"status": "triggered"})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := http.ListenAndServe(cfg.Server.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping scheduler...")
	sched.Stop()

	zapLog.Info("TAT notifier stopped gracefully")
}
