// Package internal contains core application functionality
package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"supplykpi/internal/config"
	"supplykpi/internal/database"
	"supplykpi/internal/jobs"
)

// Application wraps cartridge.Application with the KPI components
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager // Adds schema migration to cartridge's manager
	Services  *Services
	Jobs      *jobs.Scheduler
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	// Create logger
	logger := cartridge.NewLogger(cfg, nil)

	// Initialize database manager
	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// One cache per process, shared by the handlers and the warmer
	services := NewServices(dbManager.GetConnection(), cfg, logger, nil)

	scheduler := jobs.NewJobs(cfg, services.Executor, services.Cache, services.DefaultParams(), logger)

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		RouteMountFunc: func(srv *cartridge.Server) {
			MountRoutes(srv, services)
		},
		BackgroundWorkers: []cartridge.BackgroundWorker{scheduler},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
		Services:    services,
		Jobs:        scheduler,
	}, nil
}
