// Package app assembles configuration, database, storage and services for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/freelance-crm/relation-bot/internal/chat"
	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/internal/database"
	"github.com/freelance-crm/relation-bot/internal/logger"
	"github.com/freelance-crm/relation-bot/internal/redmine"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/freelance-crm/relation-bot/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services are the business services over one database handle
type Services struct {
	Clients   *service.ClientService
	Projects  *service.ProjectService
	Estimates *service.EstimateService
	Schedule  *service.ScheduleService
	Sync      *service.SyncService
	Reports   *service.ReportService
	Dashboard *service.DashboardService
}

// NewServices builds the services. store may be nil, which disables report archiving.
func NewServices(cfg *config.Config, db *gorm.DB, store storage.Storage, log *zap.Logger) *Services {
	clock := service.NewClock(cfg.Report.Location())
	return &Services{
		Clients:   service.NewClientService(db, log),
		Projects:  service.NewProjectService(db, log),
		Estimates: service.NewEstimateService(db, log),
		Schedule:  service.NewScheduleService(db, clock, log),
		Sync:      service.NewSyncService(db, redmine.NewFactory(cfg.Redmine.TimeoutDuration()), clock, log),
		Reports:   service.NewReportService(db, store, clock, log),
		Dashboard: service.NewDashboardService(db, log),
	}
}

// Bot builds the chat bot over the services
func (s *Services) Bot(cfg *config.Config, log *zap.Logger) *chat.Bot {
	return chat.NewBot(chat.Services{
		Projects:  s.Projects,
		Estimates: s.Estimates,
		Schedule:  s.Schedule,
		Sync:      s.Sync,
		Reports:   s.Reports,
	}, cfg.Redmine.DefaultURL, log)
}

// Env is a fully initialised runtime
type Env struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Storage  storage.Storage
	Services *Services
}

// Bootstrap loads configuration with secrets, then opens the database and storage.
// sqlite databases and databases with AutoMigrate set are migrated from the models.
func Bootstrap(ctx context.Context) (*Env, error) {
	basicCfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// In development secrets come from the environment, otherwise from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	return Open(cfg, log)
}

// Open connects the database and storage described by cfg
func Open(cfg *config.Config, log *zap.Logger) (*Env, error) {
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.IsSQLite() || cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("Database schema migrated from models")
	}

	var store storage.Storage
	if cfg.Report.ArchiveEnabled {
		store, err = storage.NewStorage(&cfg.Storage, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))
	} else {
		log.Info("Report archiving disabled, storage not initialized")
	}

	return &Env{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Storage:  store,
		Services: NewServices(cfg, db, store, log),
	}, nil
}

// Close releases the database connection and flushes the logger
func (e *Env) Close() {
	if sqlDB, err := e.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.Logger.Sync()
}
