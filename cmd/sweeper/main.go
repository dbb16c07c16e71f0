package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/config"
	"github.com/spec-kit/ticket-sla-service/internal/events"
	"github.com/spec-kit/ticket-sla-service/internal/mail"
	"github.com/spec-kit/ticket-sla-service/internal/notify"
	"github.com/spec-kit/ticket-sla-service/internal/observability"
	"github.com/spec-kit/ticket-sla-service/internal/persistence"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
	"github.com/spec-kit/ticket-sla-service/internal/sweep"
	"github.com/spec-kit/ticket-sla-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	realtime := notify.NewRealtimePublisher(redis.Client, logger)
	worker.StartRealtimeWorker(realtime, dispatcher)

	var transport notify.PushTransport
	if cfg.Push.CredentialsFile != "" {
		fcmTransport, err := notify.NewFCMTransport(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			logger.Fatal("failed to init fcm transport", zap.Error(err))
		}
		transport = fcmTransport
	} else {
		logger.Warn("FCM_CREDENTIALS_FILE not set; push channel disabled")
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	pushTokenRepo := repository.NewPushTokenRepository(pool)

	notifier := notify.NewDispatcher(notify.DispatcherDependencies{
		NotificationRepo: notificationRepo,
		PushTokenRepo:    pushTokenRepo,
		Transport:        transport,
		Realtime:         realtime,
		Logger:           logger,
		Metrics:          metrics,
		ChunkSize:        cfg.Push.ChunkSize,
	})

	mailer := mail.NewMailer(logger, metrics, cfg.Mail.Async, cfg.Mail.QueueSize)
	if cfg.Mail.Async {
		mailer.Start(ctx)
	}

	autoCloser := sweep.NewAutoCloser(sweep.AutoCloserDependencies{
		TicketRepo:   ticketRepo,
		SettingsRepo: settingsRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})
	escalator := sweep.NewEscalator(sweep.EscalatorDependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		SettingsRepo: settingsRepo,
		TemplateRepo: templateRepo,
		Resolver:     sweep.NewManagerResolver(userRepo, settingsRepo),
		Notifier:     notifier,
		Mailer:       mailer,
		Events:       dispatcher,
		Logger:       logger,
		Metrics:      metrics,
		PublicURL:    cfg.App.PublicURL,
	})

	if cfg.Sweep.Schedule == "" {
		code := runOnce(ctx, logger, metrics, autoCloser, escalator)
		// Queued escalation emails must land before the process may
		// exit; the escalated_at mark is already persisted by now.
		mailer.Stop()
		os.Exit(code)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Sweep.Schedule, func() {
		runOnce(ctx, logger, metrics, autoCloser, escalator)
	}); err != nil {
		logger.Fatal("invalid SWEEP_SCHEDULE", zap.String("schedule", cfg.Sweep.Schedule), zap.Error(err))
	}
	scheduler.Start()
	logger.Info("sweep scheduler started", zap.String("schedule", cfg.Sweep.Schedule))

	waitForShutdown(logger)
	<-scheduler.Stop().Done()
	mailer.Stop()
}

// runOnce executes both sweeps and reports the process exit code: 0 on
// success, 1 when no sweep configuration exists at all.
func runOnce(ctx context.Context, logger *zap.Logger, metrics *observability.Metrics, autoCloser *sweep.AutoCloser, escalator *sweep.Escalator) int {
	closeReport, err := autoCloser.Run(ctx)
	if err != nil {
		logger.Error("autoclose sweep failed", zap.Error(err))
		return 1
	}

	escalateReport, err := escalator.Run(ctx)
	if err != nil {
		logger.Error("escalation sweep failed", zap.Error(err))
		return 1
	}

	logger.Info("sweep counters", zap.Any("counters", metrics.Snapshot()))

	if closeReport.ConfigSkipped && escalateReport.Examined == 0 {
		logger.Warn("no sweep configuration present",
			zap.String("autoclose", closeReport.ConfigWarning))
		return 1
	}
	return 0
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
