package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/setusher/PenthouseProtocol/internal/application/catalog"
	settlementapp "github.com/setusher/PenthouseProtocol/internal/application/settlement"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/auth"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/cache"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/config"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/ledger"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/logger"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/migration"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/persistence"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/telemetry"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/handler"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/middleware"
	"github.com/setusher/PenthouseProtocol/internal/interfaces/http/router"
	"github.com/setusher/PenthouseProtocol/migrations"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		TimeFormat:  "2006-01-02T15:04:05.000Z07:00",
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting settlement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("ledger_network", cfg.Ledger.Network),
		zap.String("idempotency_backend", cfg.Settlement.IdempotencyBackend),
	)

	// Tracing
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		LedgerNetwork:     cfg.Ledger.Network,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	var metrics *telemetry.SettlementMetrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewSettlementMetrics()
	}

	if cfg.Database.MigrateOnStart {
		if err := migration.Apply(cfg.Database.DSN(), migrations.FS, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel))

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")
	if err := metrics.RegisterDBStats(db.SQL(), cfg.Database.DBName); err != nil {
		log.Warn("Failed to register database pool metrics", zap.Error(err))
	}

	// Registry repositories
	listingRepo := persistence.NewGormListingRepository(db.DB)
	leaseRepo := persistence.NewGormLeaseRepository(db.DB)
	eligibility := persistence.NewGormEligibilityChecker(db.DB)

	// Idempotency ledger
	idempotency, err := cache.NewIdempotencyLedgerFactory(cfg.Settlement, cfg.Redis,
		cache.WithDatabase(db.DB),
		cache.WithLogger(log),
	).Create()
	if err != nil {
		log.Fatal("Failed to create idempotency ledger", zap.Error(err))
	}
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency ledger", zap.Error(err))
		}
	}()

	// Ledger adapters
	mirror := ledger.NewMirrorClient(ledger.MirrorConfig{
		BaseURL:           cfg.Ledger.MirrorURL,
		TreasuryAccountID: cfg.Ledger.TreasuryAccountID,
		Timeout:           cfg.Ledger.MirrorTimeout,
		Breaker: ledger.BreakerConfig{
			MaxRequests:      cfg.Ledger.BreakerMaxRequests,
			Interval:         cfg.Ledger.BreakerInterval,
			Timeout:          cfg.Ledger.BreakerTimeout,
			FailureThreshold: cfg.Ledger.BreakerFailureThreshold,
		},
	},
		ledger.WithMirrorLogger(log),
		ledger.WithBreakerStateListener(func(name string, state gobreaker.State) {
			metrics.SetBreakerState(name, int(state))
		}),
	)

	transferCfg := ledger.TransferClientConfig{
		Timeout: cfg.Ledger.SubmitTimeout,
		Logger:  log,
	}
	minterCfg := ledger.TokenMinterConfig{
		Timeout: cfg.Ledger.SubmitTimeout,
		Logger:  log,
	}
	submitter, err := ledger.NewHederaSubmitter(ledger.HederaConfig{
		Network:            cfg.Ledger.Network,
		OperatorAccountID:  cfg.Ledger.OperatorAccountID,
		OperatorPrivateKey: cfg.Ledger.OperatorPrivateKey,
	})
	switch {
	case err == nil:
		transferCfg.Submitter = submitter
		minterCfg.Minter = submitter
		defer func() {
			_ = submitter.Close()
		}()
		log.Info("Ledger operator configured", zap.String("operator", submitter.OperatorAccountID()))
	case cfg.IsProduction():
		log.Fatal("Failed to configure ledger operator", zap.Error(err))
	default:
		// Every asset transfer and token mint fails until an operator is configured.
		log.Warn("Ledger operator not configured, asset transfers are disabled", zap.Error(err))
	}

	settlementService := settlementapp.NewService(settlementapp.Config{
		Eligibility:       eligibility,
		Listings:          listingRepo,
		Leases:            leaseRepo,
		Ledger:            idempotency,
		Reader:            mirror,
		Balance:           mirror,
		Transfers:         ledger.NewTransferClient(transferCfg),
		TreasuryAccount:   cfg.Ledger.TreasuryAccountID,
		SettlementTokenID: cfg.Ledger.SettlementTokenID,
		Decimals:          cfg.Ledger.SettlementDecimals,
		Window:            cfg.Ledger.TransferWindow,
		Timeout:           cfg.Settlement.RequestTimeout,
		Logger:            log,
		Metrics:           metrics,
	})

	catalogService := catalog.NewService(catalog.Config{
		Listings: listingRepo,
		Leases:   leaseRepo,
		Issuer:   ledger.NewTokenMinter(minterCfg),
		Logger:   log,
	})

	// Only the database ledger can list consumed payments
	payments, _ := idempotency.(handler.PaymentHistory)
	settlementHandler := handler.NewSettlementHandler(settlementService, payments)
	listingHandler := handler.NewListingHandler(catalogService, cfg.Ledger.SettlementDecimals)
	healthHandler := handler.NewHealthHandler(db, mirror)

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id, recovery, tracing, request logging,
	// metrics, security headers, body limit. Authentication is applied to
	// the API group only.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tp.IsEnabled(),
	}))
	engine.Use(logger.GinMiddleware(log))
	if metrics != nil {
		engine.Use(middleware.HTTPMetrics(metrics))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", healthHandler.Health)
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	jwtCfg := middleware.DefaultJWTConfig(auth.NewTokenVerifier(cfg.JWT))
	jwtCfg.Logger = log
	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAPIMiddleware(middleware.JWTAuthMiddlewareWithConfig(jwtCfg), middleware.SpanEnricher()),
	)

	listingRoutes := router.NewDomainGroup("listings", "/listings")
	listingRoutes.GET("", listingHandler.List)
	listingRoutes.POST("", listingHandler.Create)
	listingRoutes.GET("/:id", listingHandler.Get)
	listingRoutes.POST("/:id/invest", settlementHandler.Invest)
	listingRoutes.POST("/:id/rent", settlementHandler.Rent)
	if payments != nil {
		listingRoutes.GET("/:id/payments", settlementHandler.ListPayments)
	}
	r.Register(listingRoutes)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown. In-flight settlements get the full request timeout
	// to finish so a reserved payment is not abandoned mid-transfer.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Settlement.RequestTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
