package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tiendafresca/backend/internal/client"
	"github.com/tiendafresca/backend/internal/client/mercadopago"
	"github.com/tiendafresca/backend/internal/config"
	"github.com/tiendafresca/backend/internal/handler"
	"github.com/tiendafresca/backend/internal/middleware"
	"github.com/tiendafresca/backend/internal/notification"
	"github.com/tiendafresca/backend/internal/repository"
	"github.com/tiendafresca/backend/internal/server"
	"github.com/tiendafresca/backend/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	sugar := logger.Sugar()

	db, err := client.InitMysqlClient(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err)
	}

	gateway := mercadopago.NewClient(&cfg.MercadoPago, sugar)

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	promoRepo := repository.NewPromotionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	dispatcher := notification.NewDispatcher(sugar,
		notification.NewEmailChannel(sugar),
		notification.NewSMSChannel(sugar),
		notification.NewPushChannel(sugar),
		notification.NewInAppChannel(sugar),
	)

	promotionService := service.NewPromotionService(promoRepo)
	orderService := service.NewOrderService(db, orderRepo, productRepo, promoRepo, userRepo, promotionService, sugar)
	paymentService := service.NewPaymentService(db, gateway, paymentRepo, orderRepo, userRepo, sugar)
	reconciler := service.NewReconcilerService(
		db, gateway.Payments,
		paymentRepo, orderRepo, productRepo, webhookEventRepo, userRepo,
		dispatcher, sugar,
	)

	auth := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)

	srv := server.NewServer(
		handler.NewOrderHandler(orderService),
		handler.NewPaymentHandler(paymentService),
		handler.NewWebhookHandler(reconciler, cfg.MercadoPago.WebhookSecret, sugar),
		auth,
		sugar,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting HTTP server", "addr", serverAddr)
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.Log.Format == "console" || cfg.Environment == "development" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
