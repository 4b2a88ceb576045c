package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountingapp "github.com/backoffice/backend/internal/application/accounting"
	auditapp "github.com/backoffice/backend/internal/application/audit"
	identityapp "github.com/backoffice/backend/internal/application/identity"
	partnerapp "github.com/backoffice/backend/internal/application/partner"
	tradeapp "github.com/backoffice/backend/internal/application/trade"
	"github.com/backoffice/backend/internal/infrastructure/auth"
	"github.com/backoffice/backend/internal/infrastructure/cache"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/backoffice/backend/internal/infrastructure/event"
	"github.com/backoffice/backend/internal/infrastructure/logger"
	"github.com/backoffice/backend/internal/infrastructure/persistence"
	"github.com/backoffice/backend/internal/infrastructure/printing"
	"github.com/backoffice/backend/internal/infrastructure/storage"
	"github.com/backoffice/backend/internal/infrastructure/telemetry"
	"github.com/backoffice/backend/internal/interfaces/http/handler"
	"github.com/backoffice/backend/internal/interfaces/http/middleware"
	"github.com/backoffice/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/backoffice/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Back Office API
//	@version		1.0
//	@description	小規模事業者向けバックオフィス API - 取引先管理、販売書類、発注、複式簿記

//	@contact.name	API Support
//	@contact.url	https://github.com/backoffice/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewFromSettings(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting back office backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry providers (no-op when disabled)
	ctx := context.Background()
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          zapcore.InfoLevel,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore, zap.AddCaller())
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		if err := telemetry.NewDBTracingPlugin(tracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	} else if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Initialize repositories
	partyRepo := persistence.NewGormPartyRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	journalEntryRepo := persistence.NewGormJournalEntryRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	historyRepo := persistence.NewGormOperationHistoryRepository(db.DB)

	// Token blacklist backed by Redis, with in-memory fallback for
	// single-instance deployments without Redis
	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize application services
	partyService := partnerapp.NewPartyService(partyRepo, historyRepo)
	partyImportService := partnerapp.NewPartyImportService(partyService, partyRepo)
	documentService := tradeapp.NewDocumentService(documentRepo, partyRepo, historyRepo)
	purchaseOrderService := tradeapp.NewPurchaseOrderService(purchaseOrderRepo, partyRepo, historyRepo)
	accountService := accountingapp.NewAccountService(accountRepo, historyRepo)
	journalEntryService := accountingapp.NewJournalEntryService(journalEntryRepo, accountRepo, historyRepo)
	historyService := auditapp.NewHistoryService(historyRepo)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, historyRepo, blacklist, log)

	// Initialize event bus and subscribe the audit log handler
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLoggingHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	partyService.SetEventPublisher(eventBus)
	documentService.SetEventPublisher(eventBus)
	purchaseOrderService.SetEventPublisher(eventBus)
	journalEntryService.SetEventPublisher(eventBus)

	// History appends are best-effort; failures are logged, not returned
	partyService.SetLogger(log)
	documentService.SetLogger(log)
	purchaseOrderService.SetLogger(log)
	accountService.SetLogger(log)
	journalEntryService.SetLogger(log)

	// Trial balance report cache (Redis with in-memory fallback)
	cacheFactory := cache.NewReportCacheFactory(cfg.Redis, cache.WithLogger(log))
	reportCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Warn("Report cache unavailable, trial balance queries will hit the database", zap.Error(err))
	} else {
		journalEntryService.SetReportCache(reportCache)
	}

	// PDF rendering for sales documents
	if cfg.Printing.Enabled {
		renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.RenderTimeout,
			PaperWidth:     cfg.Printing.PaperWidth,
			PaperHeight:    cfg.Printing.PaperHeight,
			NoSandbox:      true,
			Logger:         log,
		})
		if err != nil {
			log.Warn("PDF renderer unavailable, document downloads disabled", zap.Error(err))
		} else {
			defer func() {
				if err := renderer.Close(); err != nil {
					log.Error("Error closing PDF renderer", zap.Error(err))
				}
			}()
			documentService.SetPrinter(printing.NewDocumentPrinter(renderer, log))

			// Archive rendered PDFs to object storage
			store, err := storage.NewFromConfig(&cfg.Storage, log)
			if err != nil {
				log.Warn("PDF archive unavailable, rendered documents will not be stored", zap.Error(err))
			} else {
				documentService.SetArchive(storage.NewDocumentArchive(store, cfg.Storage.KeyPrefix, log))
			}
		}
	}

	// Initialize HTTP handlers
	partyHandler := handler.NewPartyHandler(partyService, partyImportService)
	documentHandler := handler.NewDocumentHandler(documentService)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(purchaseOrderService)
	accountHandler := handler.NewAccountHandler(accountService)
	journalEntryHandler := handler.NewJournalEntryHandler(journalEntryService)
	historyHandler := handler.NewHistoryHandler(historyService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Env)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing/Metrics - OpenTelemetry instrumentation
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetricsWithMeter(
			meterProvider.Meter("github.com/backoffice/backend/internal/interfaces/http"),
			true,
		))
	}

	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		swaggerGuard := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService))
		engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Authentication routes. Login and refresh are public via JWT skip
	// paths, the rest require a valid access token.
	authRoutes := router.NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRoutes.Use(middleware.AuthRateLimit(authLimiter))
	}
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	// User management routes
	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.POST("", userHandler.Create)
	userRoutes.GET("", userHandler.List)
	userRoutes.GET("/:id", userHandler.GetByID)
	userRoutes.PUT("/:id", userHandler.Update)
	userRoutes.DELETE("/:id", userHandler.Delete)
	userRoutes.POST("/:id/activate", userHandler.Activate)
	userRoutes.POST("/:id/deactivate", userHandler.Deactivate)
	userRoutes.POST("/:id/reset-password", userHandler.ResetPassword)

	// Party routes (customers and suppliers)
	partyRoutes := router.NewDomainGroup("parties", "/parties")
	partyRoutes.POST("", partyHandler.Create)
	partyRoutes.GET("", partyHandler.List)
	partyRoutes.GET("/code/:type/:code", partyHandler.GetByCode)
	partyRoutes.POST("/import", partyHandler.ImportCSV)
	partyRoutes.POST("/import/validate", partyHandler.ValidateImportCSV)
	partyRoutes.GET("/:id", partyHandler.GetByID)
	partyRoutes.PUT("/:id", partyHandler.Update)
	partyRoutes.DELETE("/:id", partyHandler.Delete)
	partyRoutes.POST("/:id/activate", partyHandler.Activate)
	partyRoutes.POST("/:id/deactivate", partyHandler.Deactivate)
	partyRoutes.GET("/:id/contacts", partyHandler.ListContacts)
	partyRoutes.POST("/:id/contacts", partyHandler.AddContact)
	partyRoutes.PUT("/:id/contacts/:contactId", partyHandler.UpdateContact)
	partyRoutes.DELETE("/:id/contacts/:contactId", partyHandler.RemoveContact)

	// Sales document routes (estimates, invoices, delivery slips, receipts)
	documentRoutes := router.NewDomainGroup("documents", "/documents")
	documentRoutes.POST("", documentHandler.Create)
	documentRoutes.GET("", documentHandler.List)
	documentRoutes.GET("/number/:number", documentHandler.GetByNumber)
	documentRoutes.GET("/:id", documentHandler.GetByID)
	documentRoutes.PUT("/:id", documentHandler.Update)
	documentRoutes.DELETE("/:id", documentHandler.Delete)
	documentRoutes.POST("/:id/items", documentHandler.AddItem)
	documentRoutes.PUT("/:id/items/:itemId", documentHandler.UpdateItem)
	documentRoutes.DELETE("/:id/items/:itemId", documentHandler.RemoveItem)
	documentRoutes.POST("/:id/issue", documentHandler.Issue)
	documentRoutes.POST("/:id/pay", documentHandler.MarkPaid)
	documentRoutes.POST("/:id/cancel", documentHandler.Cancel)
	documentRoutes.GET("/:id/pdf", documentHandler.DownloadPDF)

	// Purchase order routes
	purchaseOrderRoutes := router.NewDomainGroup("purchase-orders", "/purchase-orders")
	purchaseOrderRoutes.POST("", purchaseOrderHandler.Create)
	purchaseOrderRoutes.GET("", purchaseOrderHandler.List)
	purchaseOrderRoutes.GET("/number/:number", purchaseOrderHandler.GetByNumber)
	purchaseOrderRoutes.GET("/:id", purchaseOrderHandler.GetByID)
	purchaseOrderRoutes.PUT("/:id", purchaseOrderHandler.Update)
	purchaseOrderRoutes.DELETE("/:id", purchaseOrderHandler.Delete)
	purchaseOrderRoutes.POST("/:id/items", purchaseOrderHandler.AddItem)
	purchaseOrderRoutes.PUT("/:id/items/:itemId", purchaseOrderHandler.UpdateItem)
	purchaseOrderRoutes.DELETE("/:id/items/:itemId", purchaseOrderHandler.RemoveItem)
	purchaseOrderRoutes.POST("/:id/deliver", purchaseOrderHandler.MarkDelivered)
	purchaseOrderRoutes.POST("/:id/cancel", purchaseOrderHandler.Cancel)

	// Chart of accounts routes
	accountRoutes := router.NewDomainGroup("accounts", "/accounts")
	accountRoutes.POST("", accountHandler.Create)
	accountRoutes.GET("", accountHandler.List)
	accountRoutes.GET("/code/:code", accountHandler.GetByCode)
	accountRoutes.GET("/:id", accountHandler.GetByID)
	accountRoutes.PUT("/:id", accountHandler.Update)
	accountRoutes.POST("/:id/activate", accountHandler.Activate)
	accountRoutes.POST("/:id/deactivate", accountHandler.Deactivate)

	// Journal entry routes
	journalEntryRoutes := router.NewDomainGroup("journal-entries", "/journal-entries")
	journalEntryRoutes.POST("", journalEntryHandler.Create)
	journalEntryRoutes.GET("", journalEntryHandler.List)
	journalEntryRoutes.GET("/:id", journalEntryHandler.GetByID)
	journalEntryRoutes.DELETE("/:id", journalEntryHandler.Delete)

	// Report routes
	reportRoutes := router.NewDomainGroup("reports", "/reports")
	reportRoutes.GET("/trial-balance", journalEntryHandler.TrialBalance)

	// Operation history routes
	historyRoutes := router.NewDomainGroup("history", "/history")
	historyRoutes.GET("", historyHandler.List)
	historyRoutes.GET("/:entityType/:entityId", historyHandler.ListForEntity)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(authRoutes).
		Register(userRoutes).
		Register(partyRoutes).
		Register(documentRoutes).
		Register(purchaseOrderRoutes).
		Register(accountRoutes).
		Register(journalEntryRoutes).
		Register(reportRoutes).
		Register(historyRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
