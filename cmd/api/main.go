package main

import (
	"context"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/merouaHba/EcommerceAPI/api/routes"
	"github.com/merouaHba/EcommerceAPI/internal/cancellation"
	"github.com/merouaHba/EcommerceAPI/internal/carts"
	"github.com/merouaHba/EcommerceAPI/internal/inventory"
	"github.com/merouaHba/EcommerceAPI/internal/orders"
	"github.com/merouaHba/EcommerceAPI/internal/payments"
	internalsellers "github.com/merouaHba/EcommerceAPI/internal/sellers"
	"github.com/merouaHba/EcommerceAPI/internal/transactions"
	stripewebhook "github.com/merouaHba/EcommerceAPI/internal/webhooks/stripe"
	"github.com/merouaHba/EcommerceAPI/pkg/config"
	"github.com/merouaHba/EcommerceAPI/pkg/db"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
	"github.com/merouaHba/EcommerceAPI/pkg/migrate"
	"github.com/merouaHba/EcommerceAPI/pkg/redis"
	"github.com/merouaHba/EcommerceAPI/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gateway, err := payments.NewStripeGateway(stripeClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	cartsRepo := carts.NewRepository(dbClient.DB())
	sellersRepo := internalsellers.NewRepository(dbClient.DB())

	inventorySvc, err := inventory.NewService(inventory.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	transactionsSvc, err := transactions.NewService(transactions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.Params{
		Repo:      ordersRepo,
		Tx:        dbClient,
		Carts:     cartsRepo,
		Inventory: inventorySvc,
		Gateway:   gateway,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	cancellationSvc, err := cancellation.NewService(cancellation.Params{
		Orders:       ordersRepo,
		Transactions: transactionsSvc,
		Inventory:    inventorySvc,
		Gateway:      gateway,
		Tx:           dbClient,
		Logger:       logg,
		Window:       cfg.Orders.CancellationWindow(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cancellation service", err)
		os.Exit(1)
	}

	sellersSvc, err := internalsellers.NewService(internalsellers.Params{
		Repo:    sellersRepo,
		Gateway: gateway,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sellers service", err)
		os.Exit(1)
	}

	platformUserID, err := uuid.Parse(cfg.Stripe.PlatformUserID)
	if err != nil {
		logg.Error(context.Background(), "invalid platform user id", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.EventTTL, "stripe-event")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:            ordersRepo,
		Transactions:      transactionsSvc,
		Inventory:         inventorySvc,
		Carts:             cartsRepo,
		TransactionRunner: dbClient,
		Guard:             webhookGuard,
		Logger:            logg,
		PlatformUserID:    platformUserID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Orders:        ordersSvc,
			Cancellation:  cancellationSvc,
			Sellers:       sellersSvc,
			StripeClient:  stripeClient,
			StripeWebhook: webhookSvc,
			Metrics:       prometheus.DefaultGatherer,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
