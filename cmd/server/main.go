package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/balaguruva/internal"
	"github.com/dukerupert/balaguruva/internal/auth"
	"github.com/dukerupert/balaguruva/internal/billing"
	"github.com/dukerupert/balaguruva/internal/cache"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/email"
	"github.com/dukerupert/balaguruva/internal/events"
	"github.com/dukerupert/balaguruva/internal/handler/api"
	"github.com/dukerupert/balaguruva/internal/handler/webhook"
	"github.com/dukerupert/balaguruva/internal/jobs"
	"github.com/dukerupert/balaguruva/internal/memory"
	"github.com/dukerupert/balaguruva/internal/middleware"
	"github.com/dukerupert/balaguruva/internal/mongodb"
	"github.com/dukerupert/balaguruva/internal/router"
	"github.com/dukerupert/balaguruva/internal/routes"
	"github.com/dukerupert/balaguruva/internal/service"
	"github.com/dukerupert/balaguruva/internal/shipping"
	"github.com/dukerupert/balaguruva/internal/storage"
	"github.com/dukerupert/balaguruva/internal/telemetry"
	"github.com/dukerupert/balaguruva/internal/worker"
	"github.com/shopspring/decimal"
)

// stores groups the persistence ports the services depend on.
type stores struct {
	users    domain.UserStore
	products domain.ProductStore
	carts    domain.CartStore
	orders   domain.OrderStore
	contacts domain.ContactStore
	close    func(context.Context) error
}

func openStores(ctx context.Context, cfg internal.StoreConfig, logger *slog.Logger) (*stores, error) {
	if cfg.Driver == "memory" {
		logger.Warn("Using in-memory store; data is lost on restart")
		m := memory.New()
		return &stores{
			users:    m.Users,
			products: m.Products,
			carts:    m.Carts,
			orders:   m.Orders,
			contacts: m.Contacts,
			close:    func(context.Context) error { return nil },
		}, nil
	}

	logger.Info("Connecting to MongoDB...", "database", cfg.Database)
	db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.Database, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("index creation failed: %w", err)
	}
	logger.Info("Database connection established")

	users, products, carts, orders, contacts := db.Stores()
	return &stores{
		users:    users,
		products: products,
		carts:    carts,
		orders:   orders,
		contacts: contacts,
		close:    db.Close,
	}, nil
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(cfg.Sentry, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics("balaguruva")

	// ==========================================================================
	// Infrastructure
	// ==========================================================================

	st, err := openStores(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	var c cache.Cache = cache.NewMemory()
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return err
		}
		c = rc
		logger.Info("Redis cache connected", "addr", cfg.Cache.RedisAddr)
	}
	defer c.Close()

	var bus events.Bus = events.NewLocalBus(logger)
	if cfg.Events.NATSURL != "" {
		nb, err := events.NewNATSBus(cfg.Events.NATSURL, logger)
		if err != nil {
			return err
		}
		bus = nb
		logger.Info("NATS event bus connected", "url", cfg.Events.NATSURL)
	}
	defer bus.Close()

	var verifier billing.Verifier = billing.NoopVerifier{}
	if cfg.Payment.KeySecret != "" {
		verifier = billing.NewRazorpayVerifier(cfg.Payment.KeySecret, cfg.Payment.WebhookSecret)
	} else {
		logger.Warn("RAZORPAY_KEY_SECRET not set; payment receipts are accepted unverified and webhooks are refused")
	}

	var sender email.Sender
	if cfg.Email.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
	} else {
		sender = email.NewLogSender(logger)
	}
	emailService := email.NewService(sender)

	fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// ==========================================================================
	// Services
	// ==========================================================================

	hasher := auth.NewHasher(auth.DefaultCost)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	identity := service.NewIdentityResolver(st.users)
	productService := service.NewProductService(st.products, c, cfg.Cache.CatalogTTL, logger)
	cartService := service.NewCartService(st.carts, productService, identity, logger)
	orderService := service.NewOrderService(st.orders, st.users, logger)
	checkoutService := service.NewCheckoutService(
		st.orders,
		st.carts,
		productService,
		identity,
		shipping.NewFlatRateProvider(shipping.DefaultRates),
		verifier,
		bus,
		service.CheckoutOptions{
			TotalTolerance: cfg.Checkout.TotalTolerance,
			PaymentTimeout: cfg.Payment.Timeout,
		},
		logger,
	)
	userService := service.NewUserService(st.users, st.orders, st.carts, hasher, tokens, fileStorage, logger)
	wishlistService := service.NewWishlistService(st.users, logger)
	contactService := service.NewContactService(st.contacts, logger)

	// ==========================================================================
	// Background consumers
	// ==========================================================================

	orderCreated := jobs.NewOrderCreatedHandler(orderService, st.orders, emailService, c, logger)
	if err := bus.Subscribe(events.SubjectOrderCreated, orderCreated.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.SubjectOrderCreated, err)
	}

	repairWorker := worker.NewWorker(orderService, worker.Config{
		Interval: cfg.Worker.RepairInterval,
		Grace:    cfg.Worker.RepairGrace,
	}, logger)
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- repairWorker.Start(ctx)
	}()

	// ==========================================================================
	// Handlers and routes
	// ==========================================================================

	authHandler := api.NewAuthHandler(userService, logger)
	productHandler := api.NewProductHandler(productService, logger)
	contactHandler := api.NewContactHandler(contactService, logger)
	orderHandler := api.NewOrderHandler(checkoutService, orderService, logger)

	metrics := middleware.NewMetrics("balaguruva")

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0 // Disable HSTS in development
	}

	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer defaultRateLimiter.Stop()
	authRateLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	defer authRateLimiter.Stop()

	// Base router: access logging only. Webhooks are signed and carry no
	// bearer token.
	base := router.New(router.Logger(logger))

	base.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	base.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	if local, ok := fileStorage.(*storage.LocalStorage); ok {
		base.Handle(http.MethodGet, cfg.Storage.LocalURL+"/", http.StripPrefix(cfg.Storage.LocalURL, local.Handler()))
	}

	routes.RegisterWebhookRoutes(base, routes.WebhookDeps{
		Payment: webhook.NewPaymentHandler(verifier, orderService, logger),
	})

	r := base.Group(
		middleware.Authenticate(tokens, cfg.Auth.AdminEmails),
		middleware.WithRequestLogger(logger),
		telemetry.SentryContextMiddleware,
	)

	routes.RegisterAuthRoutes(r, routes.AuthDeps{
		Handler:   authHandler,
		RateLimit: authRateLimiter.Middleware,
	})
	routes.RegisterAPIRoutes(r, routes.APIDeps{
		Auth:     authHandler,
		User:     api.NewUserHandler(userService, logger),
		Wishlist: api.NewWishlistHandler(wishlistService, logger),
		Product:  productHandler,
		Contact:  contactHandler,
		Cart:     api.NewCartHandler(cartService, logger),
		Order:    orderHandler,
	})
	routes.RegisterAdminRoutes(r, routes.AdminDeps{
		Product: productHandler,
		Contact: contactHandler,
		Order:   orderHandler,
	})

	h := base.Handler(
		telemetry.SentryMiddleware(),
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		metrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		defaultRateLimiter.Middleware,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}

	stop()
	if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("History repair worker stopped with error", "error", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
