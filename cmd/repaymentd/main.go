package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/mfi-repayment/internal/application/usecase"
	"github.com/bibbank/mfi-repayment/internal/domain/model"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	"github.com/bibbank/mfi-repayment/internal/domain/service"
	"github.com/bibbank/mfi-repayment/internal/infrastructure/config"
	"github.com/bibbank/mfi-repayment/internal/infrastructure/lock"
	"github.com/bibbank/mfi-repayment/internal/infrastructure/messaging"
	"github.com/bibbank/mfi-repayment/internal/infrastructure/notification"
	pgRepo "github.com/bibbank/mfi-repayment/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/mfi-repayment/internal/infrastructure/scheduler"
	"github.com/bibbank/mfi-repayment/internal/infrastructure/telemetry"
	grpcPresentation "github.com/bibbank/mfi-repayment/internal/presentation/grpc"
	"github.com/bibbank/mfi-repayment/internal/presentation/rest"
	pkgkafka "github.com/bibbank/mfi-repayment/pkg/kafka"
	"github.com/bibbank/mfi-repayment/pkg/observability"
	pkgpostgres "github.com/bibbank/mfi-repayment/pkg/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("repayment-service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})

	logger.Info("starting repayment-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"lock_backend", cfg.LockBackend,
		"event_sink", cfg.EventSink,
	)

	// Tracing and metrics.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		SampleRatio: cfg.Telemetry.SampleRatio,
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return err
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck // best-effort
	recorder, err := telemetry.NewRecorder(meterProvider.Meter(cfg.ServiceName))
	if err != nil {
		return err
	}

	// Database connection and migrations.
	dbCfg := pkgpostgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	schemaVersion, err := pkgpostgres.RunMigrations(dbCfg.DSN(), "file://"+cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database schema ready", "version", schemaVersion)

	// Repositories.
	installmentRepo := pgRepo.NewInstallmentRepo(pool)
	loanRepo := pgRepo.NewLoanRepo(pool)
	leaveDayRepo := pgRepo.NewLeaveDayRepo(pool)
	penaltyRepo := pgRepo.NewPenaltySettingsRepo(pool)
	if err := seedPenaltySettings(dbCtx, penaltyRepo, cfg.Penalty, logger); err != nil {
		return err
	}

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	// Event sink.
	producer := pkgkafka.NewProducer(kafkaConfig(cfg.Kafka))
	defer func() { _ = producer.Close() }() //nolint:errcheck // best-effort

	var (
		publisher port.EventPublisher
		relay     *messaging.OutboxRelay
	)
	switch cfg.EventSink {
	case "kafka":
		publisher = messaging.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic, logger)
	default:
		outbox := pgRepo.NewOutboxRepo(pool)
		publisher = outbox
		relay = messaging.NewOutboxRelay(outbox, producer, cfg.Kafka.EventsTopic,
			cfg.Sweep.OutboxInterval, cfg.Sweep.OutboxBatch, logger)
	}

	// Notifications stay nil when SMTP is not configured.
	var notifier port.Notifier
	if cfg.SMTP.Enabled() {
		async := notification.NewAsync(notification.NewEmailNotifier(notification.SMTPConfig{
			Addr:     cfg.SMTP.Addr(),
			Host:     cfg.SMTP.Host,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, logger), 4, 256, 30*time.Second, logger)
		defer async.Close()
		notifier = async
	} else {
		logger.Info("SMTP not configured, borrower notifications disabled")
	}

	// Use cases.
	deps := usecase.SettlementDeps{
		Installments: installmentRepo,
		Loans:        loanRepo,
		Penalties:    penaltyRepo,
		Locker:       locker,
		Publisher:    publisher,
		Notifier:     notifier,
		Receipts:     service.NewReceiptNumberer(cfg.ReceiptPrefix),
		Metrics:      recorder,
		Logger:       logger,
	}
	generateUC := usecase.NewGenerateScheduleUseCase(loanRepo, installmentRepo, locker, publisher, logger)
	registerUC := usecase.NewRegisterDisbursedLoanUseCase(loanRepo, generateUC, logger)
	sweepUC := usecase.NewOverdueSweepUseCase(installmentRepo, loanRepo, penaltyRepo, locker, publisher,
		notifier, recorder, logger, cfg.Sweep.BatchSize)

	handler := grpcPresentation.NewRepaymentHandler(grpcPresentation.UseCases{
		CalculateEMI:         usecase.NewCalculateEMIUseCase(),
		GenerateSchedule:     generateUC,
		GetSchedule:          usecase.NewGetScheduleUseCase(installmentRepo, penaltyRepo, logger),
		ApplyPayment:         usecase.NewApplyPaymentUseCase(deps),
		ProcessBatchPayments: usecase.NewProcessBatchPaymentsUseCase(deps, cfg.BatchParallelism),
		CalculatePenalty:     usecase.NewCalculatePenaltyUseCase(installmentRepo, penaltyRepo, logger),
		CountCollectionDays:  usecase.NewCountCollectionDaysUseCase(leaveDayRepo, cfg.ExcludeSaturdays),
	}, logger)

	grpcServer, err := grpcPresentation.NewServer(handler, grpcPresentation.ServerConfig{
		TLS: grpcPresentation.TLSConfig{
			CertFile:     cfg.TLS.CertFile,
			KeyFile:      cfg.TLS.KeyFile,
			ClientCAFile: cfg.TLS.ClientCAFile,
		},
		Reflection: cfg.GRPCReflection,
	}, logger)
	if err != nil {
		return err
	}

	// HTTP server (health checks and metrics).
	mux := http.NewServeMux()
	rest.NewHealthHandler(cfg.ServiceName, map[string]rest.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
	}, metricsHandler, logger).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Background workers.
	consumer := pkgkafka.NewConsumer(kafkaConfig(cfg.Kafka), cfg.Kafka.LoansTopic,
		messaging.NewLoanEventHandler(registerUC, logger).Handle, logger)
	defer func() { _ = consumer.Close() }() //nolint:errcheck // best-effort

	sched := scheduler.New(logger, 30*time.Minute)
	if cfg.Sweep.Schedule != "" {
		if err := sched.AddOverdueSweep(cfg.Sweep.Schedule, sweepUC); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error { return consumer.Start(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	// Graceful shutdown once a signal arrives or any component fails.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		grpcServer.GracefulStop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("repayment-service stopped")
	return err
}

func kafkaConfig(c config.KafkaConfig) pkgkafka.Config {
	return pkgkafka.Config{
		Brokers:       c.Brokers,
		ConsumerGroup: c.ConsumerGroup,
		SASLEnabled:   c.SASLEnabled,
		SASLMechanism: c.SASLMechanism,
		SASLUsername:  c.SASLUsername,
		SASLPassword:  c.SASLPassword,
		TLS:           c.TLS,
	}
}

func newLocker(ctx context.Context, cfg config.Config, logger *slog.Logger) (port.LoanLocker, func(), error) {
	if cfg.LockBackend != "redis" {
		return lock.NewMemoryLocker(), func() {}, nil
	}
	client, err := lock.NewRedisClient(ctx, lock.ConnectionInfo{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLocker(client, cfg.Redis.LockTTL, logger), func() { _ = client.Close() }, nil
}

// seedPenaltySettings stores the configured policy, or the default one, when
// the settings table is empty. Stored settings always win over env values.
func seedPenaltySettings(ctx context.Context, repo *pgRepo.PenaltySettingsRepo, pc config.PenaltyConfig, logger *slog.Logger) error {
	settings := model.DefaultPenaltySettings()
	if pc.Rate != "" || pc.Type != "" {
		rate := model.DefaultPenaltyRate
		if pc.Rate != "" {
			r, err := decimal.NewFromString(pc.Rate)
			if err != nil {
				return fmt.Errorf("PENALTY_RATE %q: %w", pc.Rate, model.ErrConfiguration)
			}
			rate = r
		}
		penaltyType := pc.Type
		if penaltyType == "" {
			penaltyType = settings.Type.String()
		}
		s, err := model.NewPenaltySettings(rate, penaltyType, time.Unix(0, 0).UTC())
		if err != nil {
			return err
		}
		settings = s
	}

	seeded, err := repo.SeedIfEmpty(ctx, settings)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("seeded penalty settings", "rate", settings.Rate.String(), "type", settings.Type.String())
	}
	return nil
}
