package main

import (
	"context"
	"net/http"
	"os"

	webAdapter "partstock/internal/adapters/web"
	"partstock/internal/core"
	"partstock/internal/db"
	"partstock/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log := logger.Must(logger.New())
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	ledger := core.NewBatchLedger(pool)
	purchaseService := core.NewPurchaseService(pool, ledger)
	saleService := core.NewSaleService(pool, ledger)
	adjustmentService := core.NewAdjustmentService(pool, ledger)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(purchaseService, saleService, adjustmentService, ledger, log, allowedOrigins)

	log.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
