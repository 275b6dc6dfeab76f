package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docingest/internal/adapter/inbound/api"
	natsmessaging "docingest/internal/adapter/outbound/messaging"
	"docingest/internal/adapter/outbound/repository"
	"docingest/internal/application/registry"
	"docingest/internal/application/service"
	"docingest/internal/config"
	"docingest/internal/port/inbound"
	"docingest/internal/version"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// ServiceFactory creates and manages service instances for the API plane.
type ServiceFactory struct {
	config *config.Config

	pool      *pgxpool.Pool
	publisher *natsmessaging.NATSMessagePublisher
}

// NewServiceFactory creates a new ServiceFactory.
func NewServiceFactory(cfg *config.Config) *ServiceFactory {
	return &ServiceFactory{
		config: cfg,
	}
}

// databasePool returns the shared connection pool, creating it on first use.
func (sf *ServiceFactory) databasePool() (*pgxpool.Pool, error) {
	if sf.pool != nil {
		return sf.pool, nil
	}

	pool, err := repository.NewDatabaseConnection(databaseConfigFrom(sf.config))
	if err != nil {
		return nil, err
	}
	sf.pool = pool
	return pool, nil
}

// messagePublisher returns the shared JetStream publisher, connecting and
// ensuring the work stream on first use.
func (sf *ServiceFactory) messagePublisher() (*natsmessaging.NATSMessagePublisher, error) {
	if sf.publisher != nil {
		return sf.publisher, nil
	}

	publisher, err := natsmessaging.NewNATSMessagePublisher(sf.config.NATS)
	if err != nil {
		return nil, err
	}
	if err := publisher.Connect(); err != nil {
		return nil, err
	}
	if err := publisher.EnsureStream(); err != nil {
		return nil, err
	}
	sf.publisher = publisher
	return publisher, nil
}

// CreateServiceRegistry wires the repositories, publisher, and metrics into
// the application service registry.
func (sf *ServiceFactory) CreateServiceRegistry() (*registry.ServiceRegistry, error) {
	pool, err := sf.databasePool()
	if err != nil {
		return nil, err
	}
	publisher, err := sf.messagePublisher()
	if err != nil {
		return nil, err
	}

	metrics, err := service.NewPipelineMetrics(service.PipelineMetricsConfig{
		ServiceName:    "docingest-api",
		ServiceVersion: version.GetVersion().Version,
	})
	if err != nil {
		return nil, err
	}

	return registry.NewServiceRegistry(
		repository.NewPostgreSQLDocumentRepository(pool),
		repository.NewPostgreSQLUploadJobRepository(pool),
		repository.NewPostgreSQLEventRepository(pool),
		publisher,
		metrics,
	), nil
}

// CreateHealthService creates a health service probing the database and the
// message broker.
func (sf *ServiceFactory) CreateHealthService() (inbound.HealthService, error) {
	pool, err := sf.databasePool()
	if err != nil {
		return nil, err
	}
	publisher, err := sf.messagePublisher()
	if err != nil {
		return nil, err
	}

	dbChecker := repository.NewDatabaseHealthChecker(pool)
	checkers := map[string]service.HealthChecker{
		"database": dbChecker.Ping,
		"nats":     publisher.Ping,
	}
	return service.NewDefaultHealthService(version.GetVersion().Version, checkers), nil
}

// CreateServer creates a fully configured server instance.
func (sf *ServiceFactory) CreateServer() (*api.Server, error) {
	serviceRegistry, err := sf.CreateServiceRegistry()
	if err != nil {
		return nil, err
	}
	healthService, err := sf.CreateHealthService()
	if err != nil {
		return nil, err
	}

	return api.NewServerBuilder(sf.config).
		WithHealthService(healthService).
		WithIngestService(serviceRegistry.IngestService()).
		WithJobQueryService(serviceRegistry.JobQueryService()).
		WithEventQueryService(serviceRegistry.EventQueryService()).
		WithErrorHandler(api.NewDefaultErrorHandler()).
		WithDefaultMiddleware().
		Build()
}

// Close releases the factory's shared connections.
func (sf *ServiceFactory) Close() {
	if sf.publisher != nil {
		_ = sf.publisher.Close()
	}
	if sf.pool != nil {
		sf.pool.Close()
	}
}

// databaseConfigFrom maps application configuration onto the repository
// layer's connection settings, filling in defaults for anything unset.
func databaseConfigFrom(cfg *config.Config) repository.DatabaseConfig {
	dbConfig := repository.DatabaseConfig{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		Database:       cfg.Database.Name,
		Username:       cfg.Database.User,
		Password:       cfg.Database.Password,
		Schema:         cfg.Database.Schema,
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MinConnections,
		SSLMode:        cfg.Database.SSLMode,
	}

	if dbConfig.Host == "" {
		dbConfig.Host = "localhost"
	}
	if dbConfig.Port == 0 {
		dbConfig.Port = 5432
	}
	if dbConfig.Schema == "" {
		dbConfig.Schema = "docingest"
	}
	if dbConfig.MaxConnections == 0 {
		dbConfig.MaxConnections = 10
	}
	if dbConfig.SSLMode == "" {
		dbConfig.SSLMode = "disable"
	}

	return dbConfig
}

// apiCmd represents the api command.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the HTTP API server that provides REST endpoints for
document uploads and job status queries.

The server provides endpoints for:
- Health checks
- Document upload acceptance
- Job status, listing, and retry
- Document audit event queries

Configuration is loaded from config files and environment variables.`,
	Run: runAPIServer,
}

func runAPIServer(_ *cobra.Command, _ []string) {
	cfg := GetConfig()

	serviceFactory := NewServiceFactory(cfg)
	defer serviceFactory.Close()

	server, err := serviceFactory.CreateServer()
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer startCancel()

	if err := server.Start(startCtx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Printf("API server started successfully on %s", server.Address())

	gracefulShutdown(server)
}

// gracefulShutdown handles graceful server shutdown with proper signal handling.
func gracefulShutdown(server *api.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received signal: %v. Initiating graceful shutdown...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("API server shut down gracefully")
}

func init() {
	rootCmd.AddCommand(apiCmd)
}
