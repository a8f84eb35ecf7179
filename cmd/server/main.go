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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopforge/backend/internal/config"
	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/internal/handler"
	"github.com/shopforge/backend/internal/metrics"
	appMiddleware "github.com/shopforge/backend/internal/middleware"
	"github.com/shopforge/backend/internal/repository"
	"github.com/shopforge/backend/internal/service"
	"github.com/shopforge/backend/pkg/gateway"
	"github.com/shopforge/backend/pkg/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx := context.Background()

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database error: %v", err)
	}
	defer db.Close()

	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("❌ Migration error: %v", err)
	}
	log.Println("✅ Database connected & migrated")

	metrics.Register()

	// Repositories
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	gatewayRepo := repository.NewGatewayRepository(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	grantRepo := repository.NewAccessGrantRepository(db)
	webhookLogRepo := repository.NewWebhookLogRepository(db)

	eventCache := repository.NewEventCache(cfg.RedisAddr)
	defer eventCache.Close()
	if cfg.RedisAddr != "" {
		log.Println("✅ Redis event cache enabled")
	}

	// Seed a gateway row from env credentials on first startup.
	if cfg.GatewayAccessToken != "" {
		seed := &domain.Gateway{
			ID:            uuid.New().String(),
			Provider:      cfg.GatewayProvider,
			Environment:   cfg.GatewayEnvironment,
			PublicKey:     cfg.GatewayPublicKey,
			AccessToken:   cfg.GatewayAccessToken,
			WebhookSecret: cfg.GatewayWebhookSecret,
			Active:        true,
			CreatedAt:     time.Now(),
		}
		if err := gatewayRepo.EnsureDefault(ctx, seed); err != nil {
			log.Fatalf("❌ Gateway seed error: %v", err)
		}
	}

	// Gateway clients are built per resolved gateway row, never shared
	// package state.
	clients := func(g *domain.Gateway) service.GatewayClient {
		return gateway.New(gateway.Config{
			BaseURL:       cfg.GatewayBaseURL,
			PublicKey:     g.PublicKey,
			AccessToken:   g.AccessToken,
			WebhookSecret: g.WebhookSecret,
			Environment:   g.Environment,
			Timeout:       cfg.GatewayTimeout,
		})
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewHTTPNotifier(cfg.NotifyWebhookURL)
		log.Println("✅ Notification delivery configured")
	}

	// Services
	accessSvc := service.NewAccessService(userRepo, productRepo, grantRepo)
	effects := service.NewSideEffects(accessSvc, notifier)

	notificationURL := ""
	if cfg.PublicBaseURL != "" {
		notificationURL = cfg.PublicBaseURL + "/api/payment/webhook"
	}
	checkoutSvc := service.NewCheckoutService(orderRepo, paymentRepo, gatewayRepo,
		effects, clients, cfg.GatewayProvider, notificationURL)
	reconcileSvc := service.NewReconcileService(orderRepo, paymentRepo, gatewayRepo,
		webhookLogRepo, eventCache, effects, clients, cfg.GatewayProvider)

	// Handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	webhookHandler := handler.NewWebhookHandler(reconcileSvc)
	statusHandler := handler.NewStatusHandler(reconcileSvc)
	accessHandler := handler.NewAccessHandler(grantRepo)
	healthHandler := handler.NewHealthHandler(db)

	// Build router
	r := chi.NewRouter()

	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	r.Get("/health", healthHandler.Check)
	r.Handle("/metrics", promhttp.Handler())

	// Public gateway callback: strictly rate limited on top of the global cap
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter())
		r.Post("/api/payment/webhook", webhookHandler.HandleGatewayEvent)
	})

	// Client status poll
	r.Get("/api/payment/status", statusHandler.Check)

	// Checkout: open to anonymous buyers, identity attached when present
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.OptionalAuth(cfg.JWTSecret))
		r.Post("/api/checkout/pay", checkoutHandler.Pay)
		r.Get("/api/access/grants", accessHandler.List)
	})

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("🛑 Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("🚀 ShopForge payments listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("❌ Server error: %v", err)
	}
}
