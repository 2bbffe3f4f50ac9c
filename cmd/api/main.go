package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-till/internal/auth"
	"pos-till/internal/catalog"
	"pos-till/internal/checkout"
	"pos-till/internal/config"
	"pos-till/internal/handler"
	"pos-till/internal/ledger"
	"pos-till/internal/metrics"
	"pos-till/internal/model"
	"pos-till/internal/promo"
	"pos-till/internal/router"
	"pos-till/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// stores groups the four record collections behind whichever driver the
// configuration selected.
type stores struct {
	products   store.Store[model.Product]
	promotions store.Store[model.Promotion]
	sales      store.Store[model.Sale]
	users      store.Store[model.User]
	close      func()
}

func run() error {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("store_driver", cfg.Store.Driver).Msg("starting pos-till API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Initialize domain services
	cat, err := catalog.New(ctx, st.products, logger)
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}
	promos, err := promo.New(ctx, st.promotions, logger)
	if err != nil {
		return fmt.Errorf("failed to load promotions: %w", err)
	}
	sales, err := ledger.New(ctx, st.sales, logger)
	if err != nil {
		return fmt.Errorf("failed to load sales ledger: %w", err)
	}

	authService := auth.NewService(st.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	if err := authService.EnsureDefaultAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	checkoutService := checkout.NewService(cat, promos, sales, checkoutMetrics, logger)
	sessions := checkout.NewManager()

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	productHandler := handler.NewProductHandler(cat, logger)
	promoHandler := handler.NewPromoHandler(promos, logger)
	cartHandler := handler.NewCartHandler(sessions, checkoutService, cat, promos, logger)
	reportHandler := handler.NewReportHandler(sales, logger)

	// Initialize router
	mux := router.New(
		authHandler,
		productHandler,
		promoHandler,
		cartHandler,
		reportHandler,
		authService,
		registry,
		logger,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

func buildStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	if cfg.Store.Driver == config.DriverPostgres {
		poolConfig := &store.PoolConfig{
			MaxOpenConns:    int32(cfg.Database.MaxConnections),
			MaxIdleConns:    int32(cfg.Database.MinConnections),
			ConnMaxLifetime: time.Duration(cfg.Database.MaxConnLifetime) * time.Second,
			ConnMaxIdleTime: 30 * time.Minute,
		}
		pool, err := store.NewPool(ctx, cfg.Database.ConnectionString(), poolConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}

		products, err := newPostgresCollection[model.Product](ctx, pool, "products", logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		promotions, err := newPostgresCollection[model.Promotion](ctx, pool, "promotions", logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		sales, err := newPostgresCollection[model.Sale](ctx, pool, "sales", logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		users, err := newPostgresCollection[model.User](ctx, pool, "users", logger)
		if err != nil {
			pool.Close()
			return nil, err
		}

		return &stores{
			products:   products,
			promotions: promotions,
			sales:      sales,
			users:      users,
			close:      pool.Close,
		}, nil
	}

	dir := cfg.Store.DataDir
	return &stores{
		products:   store.NewFileStore[model.Product](dir, "products", logger),
		promotions: store.NewFileStore[model.Promotion](dir, "promotions", logger),
		sales:      store.NewFileStore[model.Sale](dir, "sales", logger),
		users:      store.NewFileStore[model.User](dir, "users", logger),
		close:      func() {},
	}, nil
}

func newPostgresCollection[T any](
	ctx context.Context,
	pool *pgxpool.Pool,
	collection string,
	logger zerolog.Logger,
) (store.Store[T], error) {
	s, err := store.NewPostgresStore[T](pool, collection, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialise %s table: %w", collection, err)
	}
	return s, nil
}
