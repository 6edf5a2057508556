package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/order-fulfillment/internal/adapter/handler"
	"github.com/rl1809/order-fulfillment/internal/adapter/storage"
	"github.com/rl1809/order-fulfillment/internal/config"
	"github.com/rl1809/order-fulfillment/internal/core/service"
	"github.com/rl1809/order-fulfillment/internal/logger"
	"github.com/rl1809/order-fulfillment/internal/port"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Environment)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, dialect, err := storage.Open(ctx, cfg.DBDriver, cfg.DBDSN, storage.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("failed to connect database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	log.Info("connected to database", zap.String("driver", dialect.Name()))

	if cfg.DBAutoMigrate {
		if err := storage.Migrate(ctx, db, dialect); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		log.Info("database schema ready")
	}

	// Redis is optional: without it inventory reads skip the cache and
	// order submissions are not deduplicated.
	var (
		inventoryCache port.InventoryCache
		idempotency    port.IdempotencyStore
	)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, running without cache and idempotency", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		rdb.Close()
		rdb = nil
	} else {
		redisAdapter := storage.NewRedisAdapter(rdb, cfg.InventoryCacheTTL, cfg.IdempotencyTTL)
		inventoryCache = redisAdapter
		idempotency = redisAdapter
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	}

	newUnitOfWork := storage.NewUnitOfWorkFactory(db, dialect, log)
	orderService := service.NewOrderService(newUnitOfWork, inventoryCache, idempotency, log)
	inventoryService := service.NewInventoryService(newUnitOfWork, inventoryCache, log)
	auditLogService := service.NewAuditLogService(newUnitOfWork, cfg.AuditLogDefaultLimit)

	// gRPC
	grpcServer := grpc.NewServer()
	handler.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(orderService, log))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}

	go func() {
		log.Info("gRPC server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	// HTTP
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestID(), logger.GinMiddleware(log))
	handler.NewHTTPHandler(orderService, inventoryService, auditLogService, log).Register(router)

	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown", zap.Error(err))
	}
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Info("connections closed")
}
