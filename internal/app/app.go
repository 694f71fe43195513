// Package app wires configuration, storage, services and handlers into one
// dependency-injected container owned by main.
package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/handlers"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/services/analysis"
	"github.com/ternarybob/vantage/internal/services/llm"
	"github.com/ternarybob/vantage/internal/services/marketdata"
	"github.com/ternarybob/vantage/internal/services/outlook"
	"github.com/ternarybob/vantage/internal/services/repair"
	"github.com/ternarybob/vantage/internal/services/scheduler"
	"github.com/ternarybob/vantage/internal/services/signals"
	"github.com/ternarybob/vantage/internal/services/technicals"
	storage "github.com/ternarybob/vantage/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Collaborators
	LLMService   interfaces.LLMService
	MarketClient interfaces.MarketDataService

	// Pipeline services
	AnalysisService   *analysis.Service
	RevisionEngine    *outlook.Engine
	SignalsEngine     *signals.Engine
	TechnicalsService *technicals.Service
	RepairService     *repair.Service
	SchedulerService  *scheduler.Service

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	OutlookHandler    *handlers.OutlookHandler
	SignalsHandler    *handlers.SignalsHandler
	TechnicalsHandler *handlers.TechnicalsHandler
	ContentHandler    *handlers.ContentHandler
	RepairHandler     *handlers.RepairHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	if err := app.initServices(); err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.SchedulerService.Start(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().Msg("Application initialized")

	return app, nil
}

func (a *App) initServices() error {
	llmService, err := llm.NewLLMService(&a.Config.LLM, a.Logger)
	if err != nil {
		return err
	}
	a.LLMService = llmService

	marketTimeout, err := time.ParseDuration(a.Config.Market.Timeout)
	if err != nil {
		return fmt.Errorf("invalid market timeout: %w", err)
	}
	a.MarketClient = marketdata.NewClient(
		marketdata.WithBaseURL(a.Config.Market.BaseURL),
		marketdata.WithTimeout(marketTimeout),
		marketdata.WithRateLimit(a.Config.Market.RateLimit),
		marketdata.WithLogger(a.Logger),
	)

	a.TechnicalsService = technicals.NewService(
		&a.Config.Technicals,
		a.MarketClient,
		a.StorageManager.TechnicalStorage(),
		a.Logger,
	)
	a.AnalysisService = analysis.NewService(
		&a.Config.Analysis,
		a.LLMService,
		a.StorageManager.AnalysisStorage(),
		a.Logger,
	)
	a.RevisionEngine = outlook.NewEngine(
		&a.Config.Outlook,
		a.LLMService,
		a.StorageManager.OutlookStorage(),
		a.Logger,
	)
	a.SignalsEngine = signals.NewEngine(
		&a.Config.Signals,
		a.LLMService,
		a.StorageManager.AnalysisStorage(),
		a.StorageManager.SignalCacheStorage(),
		a.TechnicalsService,
		a.Logger,
	)
	a.RepairService = repair.NewService(a.StorageManager.AnalysisStorage(), a.Logger)
	a.SchedulerService = scheduler.NewService(&a.Config.Signals, a.SignalsEngine, a.Logger)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.OutlookHandler = handlers.NewOutlookHandler(a.StorageManager.OutlookStorage(), a.Config.Outlook.Domain, a.Logger)
	a.SignalsHandler = handlers.NewSignalsHandler(a.SignalsEngine, a.Logger)
	a.TechnicalsHandler = handlers.NewTechnicalsHandler(a.TechnicalsService, a.Logger)
	a.ContentHandler = handlers.NewContentHandler(a.AnalysisService, a.StorageManager.AnalysisStorage(), a.RevisionEngine, a.Logger)
	a.RepairHandler = handlers.NewRepairHandler(a.RepairService, a.Logger)
}

// Close releases all application resources in reverse dependency order.
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
