package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dhaba-pos/config"
	"dhaba-pos/internal/api"
	"dhaba-pos/internal/broker"
	"dhaba-pos/internal/models"
	"dhaba-pos/internal/realtime"
	"dhaba-pos/internal/redisclient"
	"dhaba-pos/internal/service"
	"dhaba-pos/internal/store"
	"dhaba-pos/internal/util"
	"dhaba-pos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const serviceName = "dhaba-pos"

func main() {

	cfg := config.Load()

	if err := util.InitLogger(serviceName, cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting dhaba POS", zap.String("env", cfg.Server.Env))

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer(serviceName, cfg.Server.Env, cfg.Observ.JaegerEndpoint, cfg.Observ.SampleRatio)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connected")

	ctx := context.Background()
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema applied")
	}

	company := companyDefaults(cfg.Company, logger)
	if err := db.SeedCompanyConfig(ctx, company); err != nil {
		logger.Warn("Failed to seed company settings", zap.Error(err))
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	kitchenHub := realtime.NewHub("kitchen", util.KitchenDisplayClients)
	backOfficeHub := realtime.NewHub("backoffice", nil)
	go kitchenHub.Run(hubCtx)
	go backOfficeHub.Run(hubCtx)

	var kitchenConsumer, backOfficeConsumer *broker.Consumer
	if cfg.Kafka.ConsumersEnabled {
		kitchenConsumer = broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPOS, cfg.Kafka.KitchenGroup)
		backOfficeConsumer = broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPOS, cfg.Kafka.BackOfficeGroup)
	}
	kitchenWorker := worker.NewKitchenWorker(kitchenConsumer, kitchenHub)
	backOfficeWorker := worker.NewBackOfficeWorker(backOfficeConsumer, backOfficeHub, db)

	var sink broker.EventSink
	if cfg.Kafka.PublishEnabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPOS)
		defer producer.Close()
		sink = producer
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.TopicPOS))
	} else {
		sink = broker.NewLocalSink(kitchenWorker.Handler(), backOfficeWorker.Handler())
		logger.Info("Kafka publishing disabled, dispatching events in process")
	}
	eventPublisher := broker.NewEventPublisher(sink)

	catalogService := service.NewCatalogService(db, redisClient, cfg.Business.CatalogCacheTTL, company)
	kotService := service.NewKOTService(db, db, eventPublisher)
	billingService := service.NewBillingService(
		db, db, catalogService, redisClient, redisClient, eventPublisher,
		cfg.Business.FinalizeLockTTL, cfg.Business.IdempotencyTTL,
	)
	orderService := service.NewOrderService(db, eventPublisher)
	revenueService := service.NewRevenueService(db)
	inventoryService := service.NewInventoryService(db, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if cfg.Kafka.ConsumersEnabled {
		go func() {
			if err := kitchenWorker.Start(workerCtx); err != nil {
				logger.Error("Kitchen worker error", zap.Error(err))
			}
		}()
		go func() {
			if err := backOfficeWorker.Start(workerCtx); err != nil {
				logger.Error("Back-office worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Dependencies{
		KOTs:          kotService,
		Billing:       billingService,
		Orders:        orderService,
		Catalog:       catalogService,
		Revenue:       revenueService,
		Inventory:     inventoryService,
		KitchenHub:    kitchenHub,
		BackOfficeHub: backOfficeHub,
		Checks: map[string]api.Pinger{
			"postgres": db,
			"redis":    redisClient,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := kitchenWorker.Stop(); err != nil {
		logger.Warn("Kitchen worker stop failed", zap.Error(err))
	}
	if err := backOfficeWorker.Stop(); err != nil {
		logger.Warn("Back-office worker stop failed", zap.Error(err))
	}
	hubCancel()

	logger.Info("Server exited")
}

// companyDefaults converts the configured company settings. Malformed rates
// fall back to zero.
func companyDefaults(c config.CompanyDefaults, logger *zap.Logger) models.CompanyConfig {
	out := models.CompanyConfig{
		Name:    c.Name,
		Address: c.Address,
		Phone:   c.Phone,
		Email:   c.Email,
	}
	if rate, err := decimal.NewFromString(c.TaxRate); err == nil {
		out.TaxRate = rate
	} else {
		logger.Warn("Ignoring invalid DEFAULT_TAX_RATE", zap.String("value", c.TaxRate), zap.Error(err))
	}
	if d, err := decimal.NewFromString(c.DiscountDefault); err == nil {
		out.DiscountDefault = d
	} else {
		logger.Warn("Ignoring invalid DEFAULT_DISCOUNT", zap.String("value", c.DiscountDefault), zap.Error(err))
	}
	return out
}
