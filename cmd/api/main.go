package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/event-registration/internal/api/http"
	"github.com/spec-kit/event-registration/internal/api/http/handlers"
	"github.com/spec-kit/event-registration/internal/auth"
	"github.com/spec-kit/event-registration/internal/config"
	"github.com/spec-kit/event-registration/internal/events"
	"github.com/spec-kit/event-registration/internal/mail"
	"github.com/spec-kit/event-registration/internal/observability"
	"github.com/spec-kit/event-registration/internal/persistence"
	"github.com/spec-kit/event-registration/internal/repository"
	"github.com/spec-kit/event-registration/internal/service"
	"github.com/spec-kit/event-registration/internal/ticket"
	"github.com/spec-kit/event-registration/internal/worker"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	guestRepo := repository.NewGuestRepository(pool)
	sphRepo := repository.NewSPHRepository(pool)
	outboxRepo := repository.NewOutboxRepository(pool)
	txManager := repository.NewTxManager(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()

	registrationService := service.NewRegistrationService(service.RegistrationDependencies{
		GuestRepo:  guestRepo,
		SPHRepo:    sphRepo,
		OutboxRepo: outboxRepo,
		Tx:         txManager,
		Pricing:    cfg.Pricing,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		SPHRepo:    sphRepo,
		OutboxRepo: outboxRepo,
		Tx:         txManager,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	attendanceService := service.NewAttendanceService(service.AttendanceDependencies{
		GuestRepo:  guestRepo,
		SPHRepo:    sphRepo,
		Redis:      redis,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	service.NewNotificationService(dispatcher, logger).RegisterHandlers()

	pipeline := mail.NewPipeline(cfg.Mail, logger, metrics)
	generator := ticket.NewGenerator(cfg.Ticket, logger)

	outboxWorker := worker.NewOutboxWorker(worker.OutboxWorkerDependencies{
		OutboxRepo: outboxRepo,
		GuestRepo:  guestRepo,
		SPHRepo:    sphRepo,
		Generator:  generator,
		Mailer:     pipeline,
		Outbox:     cfg.Outbox,
		Ticket:     cfg.Ticket,
		Logger:     logger,
	})
	go outboxWorker.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenVerifier(cfg.Auth.JWTSecret))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Participants:   handlers.NewParticipantsHandler(registrationService, attendanceService, guestRepo),
		SPH:            handlers.NewSPHHandler(registrationService, paymentService, attendanceService, sphRepo),
		Attendance:     handlers.NewAttendanceHandler(attendanceService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
