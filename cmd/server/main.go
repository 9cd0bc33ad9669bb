package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketnet/config"
	"marketnet/internal/api"
	"marketnet/internal/broker"
	"marketnet/internal/events"
	"marketnet/internal/models"
	"marketnet/internal/redisclient"
	"marketnet/internal/service"
	"marketnet/internal/store"
	"marketnet/internal/util"
	"marketnet/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, "marketnet"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting marketnet", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer("marketnet", cfg.Observ.JaegerEndpoint, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Migrations applied")
	}

	checks := map[string]api.Pinger{"postgres": db}

	// The product cache is optional; without Redis every read goes to Postgres.
	var cache service.ProductCache
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ProductCacheTTL)
	if err != nil {
		logger.Warn("Redis unavailable, product cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cache = redisClient
		checks["redis"] = redisClient
		logger.Info("Redis connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	eventPublisher := broker.NewEventPublisher(producer)

	bus := events.NewBus()

	catalogService := service.NewCatalogService(db, cache, bus, cfg.Business)
	cartService := service.NewCartService(db)
	orderService := service.NewOrderService(db, bus)
	identityService := service.NewIdentityService(db, bus)
	customerService := service.NewCustomerService(db, cfg.Business.DefaultMembership)
	tagService := service.NewTagService(db)
	provisioner := service.NewProvisioner(db, bus, cfg.Business.DefaultMembership)

	bus.Subscribe(models.EventTypeIdentityCreated, "provision_customer", provisioner.HandleIdentityCreated)
	bus.Subscribe(models.EventTypeObjectDeleted, "remove_tags", tagService.HandleObjectDeleted)
	for _, eventType := range []string{
		models.EventTypeCustomerCreated,
		models.EventTypeOrderPlaced,
		models.EventTypeOrderUpdated,
		models.EventTypeObjectDeleted,
	} {
		bus.Subscribe(eventType, "forward_to_kafka", eventPublisher.Forward)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Deps{
		Catalog:    catalogService,
		Carts:      cartService,
		Orders:     orderService,
		Identities: identityService,
		Customers:  customerService,
		Tags:       tagService,
		Checks:     checks,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(consumer, db)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return notificationWorker.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server forced to shutdown", zap.Error(err))
		}
		return notificationWorker.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		util.SyncLogger()
		os.Exit(1)
	}

	logger.Info("Server exited")
}
