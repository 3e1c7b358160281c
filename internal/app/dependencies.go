package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/domain"
	"github.com/vladislavdragonenkov/credits/internal/health"
	"github.com/vladislavdragonenkov/credits/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/credits/internal/service/credit"
	"github.com/vladislavdragonenkov/credits/internal/service/customerapi"
	"github.com/vladislavdragonenkov/credits/internal/service/productapi"
	"github.com/vladislavdragonenkov/credits/internal/service/promo"
	"github.com/vladislavdragonenkov/credits/internal/service/saga"
	"github.com/vladislavdragonenkov/credits/internal/service/shipmentapi"
	"github.com/vladislavdragonenkov/credits/internal/storage/memory"
	"github.com/vladislavdragonenkov/credits/internal/storage/postgres"
	"github.com/vladislavdragonenkov/credits/internal/version"
)

// Dependencies содержит собранный граф зависимостей приложения.
type Dependencies struct {
	Store         domain.Store
	Credits       *credit.Service
	Promos        *promo.Service
	Saga          saga.Orchestrator
	Health        *health.Handler
	KafkaProducer *kafka.Producer
	Logger        *log.Entry

	pgStore *postgres.Store
}

// NewDependencies собирает зависимости по конфигурации: хранилище,
// внешние API-клиенты (или mock-и, если URL не задан), Kafka (опционально)
// и прикладные сервисы поверх них.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	switch cfg.Storage {
	case StoragePostgres:
		pgStore, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			_ = pgStore.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.pgStore = pgStore
		deps.Store = pgStore
		logger.Info("postgres storage initialized")
	default:
		deps.Store = memory.NewStore()
		logger.Info("in-memory storage initialized")
	}

	customers, products, shipments := buildExternalServices(cfg, logger)

	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:    brokers,
			MaxRetries: cfg.KafkaMaxRetries,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.KafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	if deps.KafkaProducer != nil {
		deps.Saga = saga.NewOrchestratorWithKafka(deps.Store, customers, products, shipments, deps.KafkaProducer, logger)
		deps.Credits = credit.NewServiceWithKafka(deps.Store, deps.KafkaProducer, logger)
	} else {
		deps.Saga = saga.NewOrchestrator(deps.Store, customers, products, shipments, logger)
		deps.Credits = credit.NewService(deps.Store, logger)
	}
	deps.Promos = promo.NewService(deps.Store, logger)

	deps.Health = health.NewHandler(version.GetVersion())
	if deps.pgStore != nil {
		deps.Health.RegisterChecker("postgres", health.NewPingChecker("postgres", deps.pgStore))
	}

	return deps, nil
}

// buildExternalServices возвращает клиентов внешних API; если URL
// не задан, подставляется mock для локальной разработки.
func buildExternalServices(cfg Config, logger *log.Entry) (domain.CustomerService, domain.ProductService, domain.ShipmentService) {
	var customers domain.CustomerService
	if cfg.CustomerAPIURL != "" {
		customers = customerapi.NewClient(cfg.CustomerAPIURL, logger)
	} else {
		logger.Info("customer api url is not set, using mock service")
		customers = customerapi.NewMockService()
	}

	var products domain.ProductService
	if cfg.ProductAPIURL != "" {
		products = productapi.NewClient(cfg.ProductAPIURL, logger)
	} else {
		logger.Info("product api url is not set, using mock service")
		products = productapi.NewMockService()
	}

	var shipments domain.ShipmentService
	if cfg.ShipmentAPIURL != "" {
		shipments = shipmentapi.NewClient(cfg.ShipmentAPIURL, logger)
	} else {
		logger.Info("shipment api url is not set, using mock service")
		shipments = shipmentapi.NewMockService()
	}

	return customers, products, shipments
}

// Close освобождает ресурсы: Kafka producer и пул Postgres.
func (d *Dependencies) Close() {
	if d.KafkaProducer != nil {
		if err := d.KafkaProducer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			d.Logger.Info("kafka producer closed")
		}
	}
	if d.pgStore != nil {
		if err := d.pgStore.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres pool")
		}
	}
}
