package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/helpdeskhq/helpdesk-service/internal/api/http"
	"github.com/helpdeskhq/helpdesk-service/internal/api/http/handlers"
	"github.com/helpdeskhq/helpdesk-service/internal/config"
	"github.com/helpdeskhq/helpdesk-service/internal/directory"
	"github.com/helpdeskhq/helpdesk-service/internal/observability"
	"github.com/helpdeskhq/helpdesk-service/internal/persistence"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
	"github.com/helpdeskhq/helpdesk-service/internal/service"
	"github.com/helpdeskhq/helpdesk-service/internal/worker"
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
	ticketRepo := repository.NewTicketRepository(pool)
	actionRepo := repository.NewTicketActionRepository(pool)
	commentRepo := repository.NewTicketCommentRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	outboxRepo := repository.NewOutboxRepository(pool)

	userDirectory := directory.NewUserDirectory(userRepo, redis.ClientHandle(), cfg.Directory.CacheTTL(), logger)
	categoryDirectory := directory.NewCategoryDirectory(categoryRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		ActionRepo: actionRepo,
		Users:      userDirectory,
		Categories: categoryDirectory,
	})
	commentService := service.NewCommentService(commentRepo, ticketRepo, userDirectory)
	categoryService := service.NewCategoryService(categoryRepo, ticketRepo, userDirectory)
	userService := service.NewUserService(userRepo, userDirectory)
	attachmentService := service.NewAttachmentService(attachmentRepo, ticketRepo, userDirectory)

	mailer := service.NewLogMailer(logger, cfg.Notification)
	notificationService := service.NewNotificationService(ticketRepo, userRepo, mailer, logger)

	slaMonitor := worker.NewSLAMonitor(ticketRepo, outboxRepo, cfg.SLA.MonitorInterval(), logger)
	outboxWorker := worker.NewOutboxWorker(outboxRepo, notificationService, cfg.Notification.PollInterval(), cfg.Notification.BatchSize, cfg.Notification.MaxAttempts, logger)
	go slaMonitor.Run(ctx)
	go outboxWorker.Run(ctx)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:     handlers.NewTicketsHandler(ticketService),
		Comments:    handlers.NewCommentsHandler(commentService),
		Categories:  handlers.NewCategoriesHandler(categoryService),
		Users:       handlers.NewUsersHandler(userService),
		Attachments: handlers.NewAttachmentsHandler(attachmentService),
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
