package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AnitBishwas/swiss-event-handler/internal/api/handlers"
	"github.com/AnitBishwas/swiss-event-handler/internal/config"
	"github.com/AnitBishwas/swiss-event-handler/internal/dbmanager"
	"github.com/AnitBishwas/swiss-event-handler/internal/events"
	"github.com/AnitBishwas/swiss-event-handler/internal/mailer"
	"github.com/AnitBishwas/swiss-event-handler/internal/model"
	"github.com/AnitBishwas/swiss-event-handler/internal/refund"
	"github.com/AnitBishwas/swiss-event-handler/internal/repo"
	"github.com/AnitBishwas/swiss-event-handler/internal/router"
	"github.com/AnitBishwas/swiss-event-handler/internal/shopify"
	"github.com/AnitBishwas/swiss-event-handler/internal/utils/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load(".env")

	bootLog := logger.New(slog.LevelInfo)
	cfg := config.NewBuilder(bootLog).
		FromEnv().
		FromFlags().
		GetConfig()
	appLog := logger.New(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := dbmanager.New(cfg.DatabaseURI, appLog).Connect(ctx)
	if !db.IsConnected {
		return errors.New("failed to connect to the DB")
	}
	defer db.Close()
	if err := db.ApplyMigrations(); err != nil {
		return err
	}

	shops := repo.NewShopRepository(db.Pool, appLog)
	commerce := shopify.NewClient(
		cfg.ShopDomain, cfg.ShopifyAPIVersion, cfg.ShopifyEndpoint, shops, appLog)

	warehouse, err := events.NewWarehouse(ctx,
		cfg.WarehouseProjectID, cfg.WarehouseDatasetID, cfg.WarehouseTableID,
		[]byte(cfg.WarehouseCredsJSON), appLog)
	if err != nil {
		return err
	}
	defer func() {
		_ = warehouse.Close()
	}()

	moe := events.NewMoengageClient(
		cfg.MoeURL, cfg.MoeWorkspaceID, cfg.MoeAPIKey, appLog)
	mail, err := mailer.NewSES(ctx,
		cfg.AWSRegion, cfg.EmailSource, cfg.EmailRecipients, cfg.EmailCc, appLog)
	if err != nil {
		return err
	}

	refunds := refund.New(commerce, mail, appLog)
	purchases := events.NewPurchaseRecorder(commerce, warehouse, appLog)
	deliveries := events.NewDeliveryNotifier(commerce, moe, appLog)

	rr := router.New(cfg, appLog)
	rr.SetRouter(&struct {
		*handlers.WebhookHandler
		*handlers.EventHandler
		*handlers.RefundHandler
		*handlers.HealthHandler
	}{
		WebhookHandler: handlers.NewWebhookHandler(purchases, deliveries, appLog),
		EventHandler:   handlers.NewEventHandler(warehouse, appLog),
		RefundHandler:  handlers.NewRefundHandler(refunds, appLog),
		HealthHandler:  handlers.NewHealthHandler(db),
	})

	srv := &http.Server{
		Addr:    cfg.RunAddr,
		Handler: rr.GetRouter(),
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.LogAttrs(ctx, slog.LevelInfo, "server started",
			slog.String("addr", cfg.RunAddr))
		if err := srv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), model.DefaultShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
