package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/freelance-crm/relation-bot/internal/auth"
	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/internal/database"
	"github.com/freelance-crm/relation-bot/internal/http/handler"
	"github.com/freelance-crm/relation-bot/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/freelance-crm/relation-bot/docs" // Import generated swagger docs
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	clientHandler    *handler.ClientHandler
	projectHandler   *handler.ProjectHandler
	estimateHandler  *handler.EstimateHandler
	scheduleHandler  *handler.ScheduleHandler
	redmineHandler   *handler.RedmineHandler
	reportHandler    *handler.ReportHandler
	dashboardHandler *handler.DashboardHandler
	chatHandler      *handler.ChatHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	clientHandler *handler.ClientHandler,
	projectHandler *handler.ProjectHandler,
	estimateHandler *handler.EstimateHandler,
	scheduleHandler *handler.ScheduleHandler,
	redmineHandler *handler.RedmineHandler,
	reportHandler *handler.ReportHandler,
	dashboardHandler *handler.DashboardHandler,
	chatHandler *handler.ChatHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		clientHandler:    clientHandler,
		projectHandler:   projectHandler,
		estimateHandler:  estimateHandler,
		scheduleHandler:  scheduleHandler,
		redmineHandler:   redmineHandler,
		reportHandler:    reportHandler,
		dashboardHandler: dashboardHandler,
		chatHandler:      chatHandler,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database readiness with pool stats
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("database health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Readiness of every dependency
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]interface{}{}
		healthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			healthy = false
		} else {
			checks["database"] = map[string]interface{}{"status": "healthy"}
		}
		checks["reportArchive"] = map[string]interface{}{
			"enabled": rt.cfg.Report.ArchiveEnabled,
			"mode":    rt.cfg.Storage.Mode,
		}

		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)
		r.Use(rt.authMiddleware.RequireWrite)

		// Chat bridge
		r.Route("/chat", func(r chi.Router) {
			r.Use(middleware.VerifySignature(rt.cfg.Chat.SigningSecret, time.Now, rt.logger))
			r.Post("/messages", rt.chatHandler.Message)
			r.Post("/commands", rt.chatHandler.Command)
			r.Post("/submissions", rt.chatHandler.Submission)
		})

		// Clients
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", rt.clientHandler.List)
			r.Post("/", rt.clientHandler.Create)
			r.Get("/search", rt.clientHandler.Search)
			r.Get("/{id}", rt.clientHandler.GetByID)
			r.Get("/{id}/projects", rt.clientHandler.Projects)
		})

		// Projects and their sub-resources
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", rt.projectHandler.List)
			r.Post("/", rt.projectHandler.Create)
			r.Get("/{id}", rt.projectHandler.GetByID)
			r.Put("/{id}/status", rt.projectHandler.UpdateStatus)

			r.Get("/{id}/estimate", rt.estimateHandler.Get)
			r.Post("/{id}/estimate/items", rt.estimateHandler.AddItem)

			r.Get("/{id}/schedule", rt.scheduleHandler.GetSchedule)
			r.Get("/{id}/milestones", rt.scheduleHandler.ListMilestones)
			r.Post("/{id}/milestones", rt.scheduleHandler.AddMilestone)
			r.Get("/{id}/tasks", rt.scheduleHandler.ListTasks)
			r.Post("/{id}/tasks", rt.scheduleHandler.AddTask)

			r.Get("/{id}/redmine", rt.redmineHandler.GetConfig)
			r.Put("/{id}/redmine", rt.redmineHandler.SetupConfig)
			r.Post("/{id}/redmine/sync", rt.redmineHandler.BulkSync)
		})

		r.Delete("/estimate-items/{itemId}", rt.estimateHandler.DeleteItem)
		r.Put("/milestones/{milestoneId}/status", rt.scheduleHandler.UpdateMilestoneStatus)

		// Tasks
		r.Route("/tasks/{taskId}", func(r chi.Router) {
			r.Get("/", rt.scheduleHandler.GetTask)
			r.Delete("/", rt.scheduleHandler.DeleteTask)
			r.Put("/status", rt.scheduleHandler.UpdateTaskStatus)
			r.Get("/time-entries", rt.scheduleHandler.ListTimeEntries)
			r.Post("/time-entries", rt.scheduleHandler.LogTime)
			r.Get("/redmine", rt.redmineHandler.RemoteIssue)
			r.Post("/redmine/sync", rt.redmineHandler.SyncTask)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/monthly", rt.reportHandler.Monthly)
			r.Get("/archives", rt.reportHandler.ListArchives)
			r.With(rt.authMiddleware.RequireRole(auth.RoleAdmin, auth.RoleService)).Post("/archives", rt.reportHandler.Archive)
			r.Get("/archives/{year}/{month}", rt.reportHandler.DownloadArchive)
		})

		r.Get("/dashboard", rt.dashboardHandler.Get)
	})

	return r
}
