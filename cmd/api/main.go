package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freelance-crm/relation-bot/docs"
	"github.com/freelance-crm/relation-bot/internal/app"
	"github.com/freelance-crm/relation-bot/internal/auth"
	"github.com/freelance-crm/relation-bot/internal/chat"
	"github.com/freelance-crm/relation-bot/internal/http/handler"
	"github.com/freelance-crm/relation-bot/internal/http/middleware"
	"github.com/freelance-crm/relation-bot/internal/http/router"
	"github.com/freelance-crm/relation-bot/internal/jobs"
	"go.uber.org/zap"
)

// @title Relation Bot API
// @version 1.0
// @description Projects, estimates, schedules, Redmine sync and monthly reports for a freelance engineering practice.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for chat bridges and system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	env, err := app.Bootstrap(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg, log, svc := env.Config, env.Logger, env.Services

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	if cfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)
	} else {
		// Served behind whatever host the request came in on
		docs.SwaggerInfo.Host = ""
	}

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	clientHandler := handler.NewClientHandler(svc.Clients, svc.Projects, log)
	projectHandler := handler.NewProjectHandler(svc.Projects, log)
	estimateHandler := handler.NewEstimateHandler(svc.Estimates, log)
	scheduleHandler := handler.NewScheduleHandler(svc.Schedule, log)
	redmineHandler := handler.NewRedmineHandler(svc.Sync, log)
	reportHandler := handler.NewReportHandler(svc.Reports, log)
	dashboardHandler := handler.NewDashboardHandler(svc.Dashboard, log)
	chatHandler := handler.NewChatHandler(svc.Bot(cfg, log), log)

	rt := router.NewRouter(
		cfg,
		log,
		env.DB,
		authMiddleware,
		rateLimiter,
		clientHandler,
		projectHandler,
		estimateHandler,
		scheduleHandler,
		redmineHandler,
		reportHandler,
		dashboardHandler,
		chatHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Report.ArchiveEnabled {
		var announcer jobs.Announcer
		if cfg.Chat.BotToken != "" && cfg.Chat.DefaultChannel != "" {
			announcer = chat.NewAnnouncer("", cfg.Chat.BotToken, cfg.Chat.DefaultChannel, cfg.Redmine.TimeoutDuration())
		}

		scheduler = jobs.NewScheduler(log, cfg.Report.Location())
		if err := jobs.RegisterMonthlyReportJob(
			scheduler,
			svc.Reports,
			announcer,
			log,
			cfg.Report.ArchiveCron,
			cfg.Report.ArchiveTimeoutDuration(),
		); err != nil {
			log.Error("Failed to register monthly report job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
			log.Info("Scheduler started with monthly report job",
				zap.String("cron_expr", cfg.Report.ArchiveCron),
				zap.Duration("timeout", cfg.Report.ArchiveTimeoutDuration()),
				zap.Bool("announce", announcer != nil),
			)
		}
	} else {
		log.Info("Monthly report archiving disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), "request timed out"),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
