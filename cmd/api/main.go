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

	"spendlens/internal/config"
	"spendlens/internal/database"
	"spendlens/internal/firebaseapp"
	"spendlens/internal/logger"
	"spendlens/internal/middleware"
	"spendlens/internal/rates"
	"spendlens/internal/server"
	"spendlens/internal/services"
	"spendlens/internal/store"
	"spendlens/internal/validator"
)

// @title           Spendlens API
// @version         1.0
// @description     Spendlens records personal expenses in several currencies and turns them into category totals and time series in one display currency.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

// backend is the selected record store plus its audit sink and cleanup.
type backend struct {
	store store.ExpenseStore
	audit services.AuditServicer
	close func()
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	var fbApp *firebaseapp.App
	if appConfig.StoreBackend == config.StoreFirebase || appConfig.AuthProvider == config.AuthFirebase {
		if fbApp, err = firebaseapp.New(ctx, appConfig); err != nil {
			return err
		}
	}

	be, err := openBackend(ctx, appConfig, fbApp)
	if err != nil {
		return err
	}
	defer be.close()

	verifier, err := newVerifier(ctx, appConfig, fbApp)
	if err != nil {
		return err
	}

	// Exchange rates are shared by every user
	httpClient := &http.Client{Timeout: appConfig.RequestTimeout}
	rateCache := rates.NewCache(
		rates.NewHTTPProvider(httpClient, appConfig.RatesURL),
		rates.WithTTL(appConfig.RatesTTL),
	)

	// Initialize services
	analyticsService := services.NewAnalyticsService(be.store, rateCache, appConfig.RatesBase, appConfig.AllowUnconverted)
	dashboards := services.NewDashboardHub(analyticsService,
		services.WithMaxSessions(appConfig.DashboardMaxSessions),
		services.WithSessionIdleTTL(appConfig.DashboardIdleTTL),
	)
	go dashboards.RunPruner(ctx, time.Minute)
	expenseService := services.NewExpenseService(be.store, dashboards)

	router := server.NewRouter(server.Deps{
		Verifier:    verifier,
		CORSOrigins: appConfig.CORSAllowedOrigins,
		Expenses:    expenseService,
		Analytics:   analyticsService,
		Dashboards:  dashboards,
		Rates:       rateCache,
		RatesBase:   appConfig.RatesBase,
		Audit:       be.audit,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      appConfig.RequestTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Starting Spendlens server", "port", appConfig.Port, "store", appConfig.StoreBackend, "auth", appConfig.AuthProvider)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openBackend(ctx context.Context, cfg *config.Config, fbApp *firebaseapp.App) (*backend, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite, config.StorePostgres:
		dbConfig, err := database.NewConfig(cfg)
		if err != nil {
			return nil, err
		}
		dbManager, err := database.NewManager(dbConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create database manager: %w", err)
		}
		if err := dbManager.RunMigrations(); err != nil {
			_ = dbManager.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return &backend{
			store: store.NewGormStore(dbManager.DB()),
			audit: services.NewAuditService(dbManager.DB()),
			close: func() { _ = dbManager.Close() },
		}, nil

	case config.StoreFirebase:
		client, err := fbApp.Database(ctx)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: store.NewFirebaseStore(client),
			audit: services.NewLogAuditService(),
			close: func() {},
		}, nil

	case config.StoreMongo:
		client, err := store.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return &backend{
			store: store.NewMongoStore(store.NewMongoProvider(client, cfg.MongoDatabase)),
			audit: services.NewLogAuditService(),
			close: func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(disconnectCtx)
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}

func newVerifier(ctx context.Context, cfg *config.Config, fbApp *firebaseapp.App) (middleware.TokenVerifier, error) {
	if cfg.AuthProvider == config.AuthFirebase {
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			return nil, err
		}
		return middleware.NewFirebaseVerifier(authClient), nil
	}
	return middleware.NewJWTVerifier([]byte(cfg.JWTSecret)), nil
}
