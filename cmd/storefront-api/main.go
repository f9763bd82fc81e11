package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/nkashyap/storefront/internal/admin"
	"github.com/nkashyap/storefront/internal/auth"
	"github.com/nkashyap/storefront/internal/cache"
	"github.com/nkashyap/storefront/internal/cart"
	"github.com/nkashyap/storefront/internal/checkout"
	"github.com/nkashyap/storefront/internal/config"
	"github.com/nkashyap/storefront/internal/db"
	"github.com/nkashyap/storefront/internal/discovery"
	"github.com/nkashyap/storefront/internal/fanout"
	"github.com/nkashyap/storefront/internal/handlers"
	"github.com/nkashyap/storefront/internal/ledger"
	"github.com/nkashyap/storefront/internal/messaging"
)

const (
	serviceName = "storefront-api"
	serviceID   = "storefront-api-1"
)

func main() {
	cfg := config.MustLoad()

	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	database, err := db.NewPostgresDB(cfg.Postgres.Host, cfg.Postgres.Port,
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	logger.Info("connected to PostgreSQL")

	// Redis: product cache and cart storage share the connection
	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.CacheTTL)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()
	logger.Info("connected to Redis")

	// RabbitMQ backs the cross-instance event fan-out
	rabbit, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbit.Close()
	logger.Info("connected to RabbitMQ")

	// Repositories
	productRepo := db.NewProductRepository(database)
	cachedProducts := db.NewCachedProductRepository(productRepo, redisCache, logger)
	orderRepo := db.NewOrderRepository(database)
	userRepo := db.NewUserRepository(database)

	// Fan-out: local hub bridged over the broker
	hub := fanout.NewHub(cfg.Events.SessionBuffer, logger)
	bridge := messaging.NewBridge(hub, rabbit, cachedProducts, logger)
	go func() {
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event bridge stopped", zap.Error(err))
		}
	}()

	// Core services
	stockLedger := ledger.NewPostgresLedger(database.Conn, bridge)
	carts := cart.NewService(cart.NewRedisStore(redisCache.Client()), stockLedger, cachedProducts, logger)
	compiler := checkout.NewCompiler(carts, stockLedger, cachedProducts, orderRepo,
		bridge, cfg.Checkout.TaxRate, logger)
	reconciler := admin.NewReconciler(stockLedger, orderRepo, userRepo, cachedProducts, logger)

	router := handlers.NewRouter(handlers.Deps{
		Products:   cachedProducts,
		Carts:      carts,
		Compiler:   compiler,
		Orders:     orderRepo,
		Reconciler: reconciler,
		Hub:        hub,
		Auth:       auth.NewManager(cfg.Auth.Secret),
	})

	// Consul registration
	if cfg.Consul.Enabled {
		consul, err := discovery.NewConsulClient(cfg.Consul.Addr, logger)
		if err != nil {
			logger.Fatal("failed to connect to Consul", zap.Error(err))
		}
		err = consul.Register(discovery.ServiceConfig{
			Name: serviceName,
			ID:   serviceID,
			Port: portOf(cfg.HTTP.Port),
			Tags: []string{"api", "storefront"},
		})
		if err != nil {
			logger.Fatal("failed to register service", zap.Error(err))
		}
		defer consul.Deregister(serviceID)
	}

	server := &http.Server{
		Addr:    cfg.HTTP.Port,
		Handler: router,
	}

	go func() {
		logger.Info("storefront-api listening", zap.String("addr", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func portOf(addr string) int {
	port, err := strconv.Atoi(strings.TrimPrefix(addr, ":"))
	if err != nil {
		return 0
	}
	return port
}
