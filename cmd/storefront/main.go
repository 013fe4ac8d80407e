package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/currency"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handler"
	"storefront/internal/invoice"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cart store
	store, closeStore, err := openCartStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Invoice archive with S3 and local fallback
	localArchive, err := invoice.NewFileStore(cfg.Invoice.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize invoice archive: %w", err)
	}
	var remoteArchive invoice.Store
	if cfg.S3.Enabled {
		remoteArchive, err = invoice.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 archive, falling back to local file system only")
		}
	} else {
		logger.Info().Msg("using local file system for invoice archive (S3 disabled)")
	}
	archive := invoice.NewFallbackStore(remoteArchive, localArchive, cfg.S3.Enabled, logger)

	// Order events
	publisher := events.NewNopPublisher()
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Remote collaborators
	api := backend.New(backend.Config{
		BaseURL:        cfg.Backend.BaseURL,
		Timeout:        cfg.Backend.Timeout,
		BreakerFailure: cfg.Backend.BreakerFailure,
		BreakerTimeout: cfg.Backend.BreakerTimeout,
	}, logger)

	gateway := payment.NewRazorpay(payment.RazorpayConfig{
		KeyID:      cfg.Gateway.KeyID,
		ScriptURL:  cfg.Gateway.ScriptURL,
		StoreName:  cfg.Gateway.StoreName,
		ThemeColor: cfg.Gateway.ThemeColor,
	}, logger)

	settings := currency.Settings{
		HomeCountry:     cfg.Locale.HomeCountry,
		HomeSymbol:      cfg.Locale.HomeSymbol,
		ForeignSymbol:   cfg.Locale.ForeignSymbol,
		HomeCurrency:    cfg.Locale.HomeCurrency,
		ForeignCurrency: cfg.Locale.ForeignCurrency,
	}
	resolver := currency.NewResolver(
		currency.NewHTTPLookup(cfg.Locale.GeoURL, cfg.Locale.GeoTimeout),
		settings,
		cfg.Locale.GeoTimeout,
		logger,
	)
	resolver.Start()

	// Sessions
	sessions := session.NewManager(session.Deps{
		Store:          store,
		Resolver:       resolver,
		Orders:         api,
		Gateway:        gateway,
		Events:         publisher,
		DefaultCountry: cfg.Locale.HomeCountryName,
	}, cfg.Store.SessionTTL, logger)
	defer sessions.Close()
	go sessions.Run(ctx, sweepInterval(cfg.Store.SessionTTL))

	// Initialize services
	catalogService := service.NewCatalogService(api, cfg.Backend.ImageBaseURL, cfg.Catalog.CacheTTL, logger)
	orderService := service.NewOrderService(api, archive, cfg.Invoice.FilePrefix, logger)
	accountService := service.NewAccountService(api, cfg.Locale.HomeCountryName, logger)
	notificationService := service.NewNotificationService(api, logger)

	// Initialize HTTP handlers and router
	mux := router.New(router.Handlers{
		Session:  handler.NewSessionHandler(logger),
		Product:  handler.NewProductHandler(catalogService, logger),
		Cart:     handler.NewCartHandler(catalogService, cfg.Backend.ImageBaseURL, logger),
		Checkout: handler.NewCheckoutHandler(logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Account:  handler.NewAccountHandler(accountService, notificationService, logger),
	}, sessions, cfg.Server.AllowedOrigins, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("cart_store", cfg.Store.Driver).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// openCartStore connects the configured cart store. The returned func
// releases its connections.
func openCartStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cart.Store, func(), error) {
	switch cfg.Store.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis cart store connected")
		return repository.NewRedisCartRepository(client, cfg.Store.SessionTTL, logger), func() { client.Close() }, nil

	case "postgres":
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repository.NewPostgresCartRepository(pool, logger), pool.Close, nil

	default:
		return repository.NewMemoryCartRepository(logger), func() {}, nil
	}
}

// sweepInterval checks for idle sessions a few times per TTL, at most every
// ten minutes and at least every minute.
func sweepInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Minute), 10*time.Minute)
}
