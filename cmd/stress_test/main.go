package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/adapter/storage"
	"github.com/rl1809/order-fulfillment/internal/config"
	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/core/service"
	"github.com/rl1809/order-fulfillment/internal/logger"
)

func main() {
	initialStock := flag.Int("stock", 20, "initial stock of the contested product")
	totalRequests := flag.Int("requests", 50, "number of concurrent single-unit orders")
	useConfig := flag.Bool("use-config", false, "run against DB_DRIVER/DB_DSN instead of a scratch SQLite file")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.Environment)
	defer log.Sync()

	ctx := context.Background()

	driver, dsn := "sqlite3", filepath.Join(os.TempDir(), fmt.Sprintf("stress-%d.db", time.Now().UnixNano()))
	if *useConfig {
		driver, dsn = cfg.DBDriver, cfg.DBDSN
	} else {
		defer os.Remove(dsn)
	}

	db, dialect, err := storage.Open(ctx, driver, dsn, storage.PoolConfig{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db, dialect); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// Service logs would drown the report.
	newUnitOfWork := storage.NewUnitOfWorkFactory(db, dialect, log)
	inventoryService := service.NewInventoryService(newUnitOfWork, nil, zap.NewNop())
	orderService := service.NewOrderService(newUnitOfWork, nil, nil, zap.NewNop())

	productID, err := inventoryService.CreateInventory(ctx, "stress-item", *initialStock, decimal.NewFromInt(10))
	if err != nil {
		log.Fatal("failed to create product", zap.Error(err))
	}

	var successCount, soldOutCount, errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func(customerID int64) {
			defer wg.Done()

			_, err := orderService.CreateOrder(ctx, customerID, []domain.OrderItem{{ProductID: productID, Quantity: 1}})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrBusinessRule):
				soldOutCount.Add(1)
			default:
				errorCount.Add(1)
				log.Error("order failed", zap.Int64("customer_id", customerID), zap.Error(err))
			}
		}(int64(i + 1))
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := int(successCount.Load())
	soldOut := int(soldOutCount.Load())
	failed := int(errorCount.Load())

	expectedSuccess := min(*initialStock, *totalRequests)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Database:         %s\n", dialect.Name())
	fmt.Printf("Initial Stock:    %d\n", *initialStock)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold out:         %d\n", soldOut)
	fmt.Printf("Errors:           %d\n", failed)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	passed := true
	if success == expectedSuccess && soldOut == *totalRequests-expectedSuccess && failed == 0 {
		fmt.Printf("PASS: %d orders succeeded, %d sold out\n", success, soldOut)
	} else {
		passed = false
		fmt.Printf("FAIL: expected %d success/%d sold out, got %d/%d (%d errors)\n",
			expectedSuccess, *totalRequests-expectedSuccess, success, soldOut, failed)
	}

	inv, err := inventoryService.GetInventoryByProductID(ctx, productID)
	if err != nil || inv == nil {
		log.Fatal("failed to read final stock", zap.Error(err))
	}
	fmt.Printf("Final Stock:      %d\n", inv.Stock)

	if inv.Stock == *initialStock-expectedSuccess {
		fmt.Println("PASS: stock matches committed orders")
	} else {
		passed = false
		fmt.Printf("FAIL: expected stock %d, got %d\n", *initialStock-expectedSuccess, inv.Stock)
	}

	if !passed {
		os.Exit(1)
	}
}
