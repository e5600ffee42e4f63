package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poibms/next-meal/internal/api"
	"github.com/poibms/next-meal/internal/auth"
	"github.com/poibms/next-meal/internal/billing"
	"github.com/poibms/next-meal/internal/config"
	"github.com/poibms/next-meal/internal/db"
	"github.com/poibms/next-meal/internal/gate"
	"github.com/poibms/next-meal/internal/logger"
	"github.com/poibms/next-meal/internal/mealplan"
	"github.com/poibms/next-meal/internal/metrics"
	"github.com/poibms/next-meal/internal/profile"
	"github.com/poibms/next-meal/internal/subscription"
	"github.com/poibms/next-meal/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func fatal(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}

func main() {
	logger.SetDefault()

	cfg, err := config.GetConfig()
	if err != nil {
		fatal("failed to load config", err)
	}

	ctx := context.Background()

	bunDB := db.NewBunPostgresClient(cfg.DatabaseURL)
	defer bunDB.Close()

	profileRepo := profile.NewProfileRepository(bunDB)
	if err := profileRepo.InitializeDatabase(ctx); err != nil {
		fatal("failed to initialize profiles table", err)
	}
	webhookStore := webhook.NewPostgresStore(bunDB)
	if err := webhookStore.InitializeDatabase(ctx); err != nil {
		fatal("failed to initialize webhook event log", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	billingClient := billing.NewBilling(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	catalog := billing.NewCatalog(cfg.PriceIDs())
	if cfg.StripeSyncCatalog {
		if err := billingClient.SyncStripeCatalog(ctx, catalog); err != nil {
			fatal("failed to sync Stripe catalog", err)
		}
	}

	auth.Configure(cfg.WorkOSApiKey)
	jwtVerifier, err := auth.NewJWTVerifier(cfg.WorkOSClientID)
	if err != nil {
		fatal("failed to create JWT verifier", err)
	}
	defer jwtVerifier.Close()

	profileService := profile.NewProfileService(profileRepo)
	subscriptions := subscription.NewService(billingClient, catalog, profileRepo, cfg.BaseURL)
	reconciler := webhook.NewReconciler(billingClient, webhookStore, collector)

	aiClient, err := mealplan.NewGeminiAIClient(ctx, cfg.GeminiAPIKey, mealplan.WithModel(cfg.GeminiModel))
	if err != nil {
		fatal("failed to create Gemini client", err)
	}
	limiter := mealplan.NewRateLimiter(cfg.MealPlanRatePerMinute, cfg.MealPlanBurst, 5*time.Minute)
	defer limiter.Stop()

	policy := gate.FailOpen
	if !cfg.GateFailOpen {
		policy = gate.FailClosed
	}
	accessGate := gate.New(gate.NewHTTPStatusChecker(cfg.InternalBaseURL, cfg.GateCheckTimeout), policy, collector)

	router := api.SetupRoutes(api.Router{
		Checkout: api.NewCheckoutHandler(subscriptions, catalog),
		MealPlan: api.NewMealPlanHandler(mealplan.NewGenerator(aiClient, collector), subscriptions, limiter),
		Profile:  api.NewProfileHandler(),
		Webhook:  api.NewWebhookHandler(reconciler),
		Auth: auth.NewHandlers(
			auth.NewWorkOSAuthenticator(cfg.WorkOSClientID, cfg.WorkOSRedirectURL),
			profileService,
			cfg.CookieSecure,
		),
		Identify:       auth.NewMiddleware(jwtVerifier).Identify,
		Gate:           accessGate.Middleware,
		ProvideProfile: profile.Middleware(profileService),
		Metrics:        metrics.Handler(registry),
		Recorder:       collector,
		Health:         api.Health(bunDB),
		StaticDir:      cfg.StaticDir,
		AllowedOrigin:  cfg.CORSAllowedOrigin,
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // meal plan generation is slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("server starting", slog.String("addr", cfg.ServerAddr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal("server failed to start", err)
	}

	slog.Info("server stopped")
}
