package cmd

import (
	"fmt"
	"log/slog"
	"time"

	httpin "deliveryhub/internal/adapters/in/http"
	"deliveryhub/internal/adapters/out/postgres"
	"deliveryhub/internal/adapters/out/providers"
	"deliveryhub/internal/adapters/out/providers/chaskis"
	"deliveryhub/internal/adapters/out/providers/store"
	"deliveryhub/internal/adapters/out/providers/uberdirect"
	"deliveryhub/internal/core/application/ingestion"
	"deliveryhub/internal/core/application/sequencer"
	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/application/usecases/queries"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/core/domain/services"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/jobs"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	registry   *providers.Registry
	tolerance  delivery.SkipTolerance
	sequencer  *sequencer.KeyedSequencer
	logger     *slog.Logger
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, publisher ports.EventPublisher, logger *slog.Logger) (*CompositionRoot, error) {
	registry, err := newProviderRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}

	tolerance, err := delivery.NewSkipTolerance(cfg.SkipTolerant...)
	if err != nil {
		return nil, err
	}
	if tolerance, err = registry.Tolerance(tolerance); err != nil {
		return nil, err
	}

	return &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB, publisher, logger),
		registry:   registry,
		tolerance:  tolerance,
		sequencer:  sequencer.NewKeyedSequencer(),
		logger:     logger,
	}, nil
}

// newProviderRegistry always registers the in-house courier adapter; third-party adapters
// are registered only when their base URL is configured.
func newProviderRegistry(cfg Config, logger *slog.Logger) (*providers.Registry, error) {
	fee, err := kernel.MoneyFromString(cfg.Store.Fee, cfg.Store.Currency)
	if err != nil {
		return nil, fmt.Errorf("store fee: %w", err)
	}
	location, err := time.LoadLocation(cfg.Store.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("store time zone: %w", err)
	}

	adapters := []ports.ProviderAdapter{
		store.NewAdapter(store.Config{
			Fee:             fee,
			DropoffEta:      cfg.Store.DropoffEta,
			OpensAt:         cfg.Store.OpensAt,
			ClosesAt:        cfg.Store.ClosesAt,
			Location:        location,
			TrackingBaseURL: cfg.Store.TrackingBaseURL,
		}),
	}
	if cfg.Chaskis.BaseURL != "" {
		adapters = append(adapters, chaskis.NewAdapter(chaskis.Config{
			BaseURL:  cfg.Chaskis.BaseURL,
			APIKey:   cfg.Chaskis.APIKey,
			Timeout:  cfg.Chaskis.Timeout,
			Currency: cfg.Store.Currency,
		}))
	}
	if cfg.UberDirect.BaseURL != "" {
		adapters = append(adapters, uberdirect.NewAdapter(uberdirect.Config{
			BaseURL:    cfg.UberDirect.BaseURL,
			CustomerID: cfg.UberDirect.CustomerID,
			Token:      cfg.UberDirect.Token,
			Timeout:    cfg.UberDirect.Timeout,
		}))
	}

	retry := providers.RetryConfig{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}
	for i, a := range adapters {
		adapters[i] = providers.NewRetryingAdapter(a, retry, logger)
	}

	return providers.NewRegistry(adapters...)
}

func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) deliveryUoW() commands.DeliveryUoWFactory {
	return FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) settingsUoW() commands.SettingsUoWFactory {
	return FuncSettingsUoWFactory(func() commands.SettingsUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateConfigureRestaurantCommandHandler() commands.ConfigureRestaurantCommandHandler {
	return commands.NewConfigureRestaurantCommandHandler(c.settingsUoW())
}

func (c *CompositionRoot) CreateCreateDeliveryCommandHandler() commands.CreateDeliveryCommandHandler {
	return commands.NewCreateDeliveryCommandHandler(c.uow(), services.NewAssignmentResolver(c.registry))
}

func (c *CompositionRoot) CreateAssignProviderCommandHandler() commands.AssignProviderCommandHandler {
	return commands.NewAssignProviderCommandHandler(c.uow(), services.NewAssignmentResolver(c.registry))
}

func (c *CompositionRoot) CreateDispatchDeliveryCommandHandler() commands.DispatchDeliveryCommandHandler {
	return commands.NewDispatchDeliveryCommandHandler(
		c.deliveryUoW(), c.registry, c.sequencer, c.cfg.Retry.MaxDispatchAttempts, c.logger)
}

func (c *CompositionRoot) CreateDispatchPendingCommandHandler() commands.DispatchPendingCommandHandler {
	return commands.NewDispatchPendingCommandHandler(
		c.deliveryUoW(), c.CreateDispatchDeliveryCommandHandler(), c.cfg.Jobs.Concurrency, c.logger)
}

func (c *CompositionRoot) CreateCancelDeliveryCommandHandler() commands.CancelDeliveryCommandHandler {
	return commands.NewCancelDeliveryCommandHandler(c.deliveryUoW(), c.registry, c.sequencer)
}

func (c *CompositionRoot) CreateApplyProviderEventCommandHandler() commands.ApplyProviderEventCommandHandler {
	return commands.NewApplyProviderEventCommandHandler(c.deliveryUoW(), c.tolerance)
}

func (c *CompositionRoot) CreateUpdateCourierLocationCommandHandler() commands.UpdateCourierLocationCommandHandler {
	return commands.NewUpdateCourierLocationCommandHandler(c.deliveryUoW())
}

func (c *CompositionRoot) CreateAttachRefundCommandHandler() commands.AttachRefundCommandHandler {
	return commands.NewAttachRefundCommandHandler(c.deliveryUoW())
}

func (c *CompositionRoot) CreateGetDeliveryQueryHandler() queries.GetDeliveryQueryHandler {
	return queries.NewGetDeliveryQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveDeliveriesQueryHandler() queries.GetActiveDeliveriesQueryHandler {
	return queries.NewGetActiveDeliveriesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateIngestor() *ingestion.Ingestor {
	return ingestion.NewIngestor(
		c.registry, c.CreateApplyProviderEventCommandHandler(), c.sequencer, c.cfg.Jobs.Concurrency, c.logger)
}

func (c *CompositionRoot) CreateStatusPoller() *ingestion.StatusPoller {
	return ingestion.NewStatusPoller(
		c.deliveryUoW(), c.registry, c.CreateIngestor(), c.cfg.Jobs.Concurrency, c.logger)
}

func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		ConfigureRestaurant:   c.CreateConfigureRestaurantCommandHandler(),
		CreateDelivery:        c.CreateCreateDeliveryCommandHandler(),
		AssignProvider:        c.CreateAssignProviderCommandHandler(),
		DispatchDelivery:      c.CreateDispatchDeliveryCommandHandler(),
		CancelDelivery:        c.CreateCancelDeliveryCommandHandler(),
		UpdateCourierLocation: c.CreateUpdateCourierLocationCommandHandler(),
		AttachRefund:          c.CreateAttachRefundCommandHandler(),
		GetDelivery:           c.CreateGetDeliveryQueryHandler(),
		GetActiveDeliveries:   c.CreateGetActiveDeliveriesQueryHandler(),
		Webhooks:              c.CreateIngestor(),
	}, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		jobs.NewDispatchPendingJob(
			c.CreateDispatchPendingCommandHandler(),
			c.cfg.Jobs.DispatchSchedule,
			c.cfg.Jobs.DispatchBatchSize,
			c.cfg.Jobs.RoundTimeout,
			c.logger),
		jobs.NewProviderPollingJob(
			c.CreateStatusPoller(),
			c.cfg.Jobs.PollingSchedule,
			c.cfg.Jobs.RoundTimeout,
			c.logger),
	)
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}

type FuncSettingsUoWFactory func() commands.SettingsUoW

func (f FuncSettingsUoWFactory) Create() commands.SettingsUoW {
	return f()
}
