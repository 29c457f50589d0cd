package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "fms/api/swagger" // swagger docs
	"fms/internal/config"
	"fms/internal/database"
	"fms/internal/handler"
	"fms/internal/lifecycle"
	"fms/internal/logger"
	"fms/internal/metrics"
	"fms/internal/middleware"
	"fms/internal/queue"
	"fms/internal/redisstore"
	"fms/internal/repository"
	"fms/internal/service"
	"fms/internal/storage"
	"fms/internal/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Facility Management API
// @version         1.0
// @description     Back-office API for work orders, assets, vendors, bookings, supplies and expenses.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	zlog, err := logger.New(cfg.Server.Mode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, cfg.PostgresDSN(), zlog)
	if err != nil {
		return err
	}
	if err := validation.Register(); err != nil {
		return err
	}

	// Redis backs the work order counter and the token denylist; without it
	// the counter lives in PostgreSQL and sign-out only drops refresh tokens.
	pgSequence := repository.NewSequenceRepository(db)
	var (
		sequence lifecycle.SequenceSource = pgSequence
		denylist service.Denylist
	)
	if cfg.Redis.Enabled {
		rdb, err := redisstore.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sequence = redisstore.NewSequence(rdb, pgSequence)
		denylist = redisstore.NewDenylist(rdb)
		zlog.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	if cfg.AMQP.Enabled {
		amqpPub, err := queue.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, zlog)
		if err != nil {
			return err
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}

	store, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		return err
	}
	uploader := storage.NewUploader(store, cfg.Storage.MaxUploadBytes, cfg.Storage.MaxInlineBytes, zlog)

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	areaRepo := repository.NewAreaRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	workOrderRepo := repository.NewWorkOrderRepository(db)
	deps := service.Deps{
		Tx:            repository.NewTransactionManager(db),
		Audit:         repository.NewAuditRepository(db),
		Users:         userRepo,
		Notifications: repository.NewNotificationRepository(db),
		Publisher:     publisher,
		Files:         uploader,
		Log:           zlog,
	}

	userService := service.NewUserService(userRepo, deps, denylist, service.AuthConfig{
		Secret:     []byte(cfg.JWT.Secret),
		AccessTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTTL: cfg.JWT.RefreshTokenTTL,
	})
	if cfg.Admin.Email != "" {
		created, err := userService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName)
		if err != nil {
			return err
		}
		if created {
			zlog.Info("bootstrap admin created", zap.String("email", cfg.Admin.Email))
		}
	}

	numberer := lifecycle.NewNumberer(sequence, lifecycle.MaxNumberAttempts)
	workOrderService := service.NewWorkOrderService(workOrderRepo, areaRepo, userRepo, vendorRepo, deps, numberer)
	areaService := service.NewAreaService(areaRepo, deps)
	assetService := service.NewAssetService(repository.NewAssetRepository(db), areaRepo, deps)
	vendorService := service.NewVendorService(vendorRepo, repository.NewContractRepository(db), workOrderRepo, deps)
	contractService := service.NewContractService(repository.NewContractRepository(db), vendorRepo, deps)
	bookingService := service.NewBookingService(repository.NewBookingRepository(db), areaRepo, deps)
	supplyService := service.NewSupplyRequestService(repository.NewSupplyRequestRepository(db), areaRepo, deps)
	expenseService := service.NewExpenseService(repository.NewExpenseRepository(db), deps)
	notificationService := service.NewNotificationService(deps.Notifications)
	statisticsService := service.NewStatisticsService(repository.NewStatisticsRepository(db))
	auditService := service.NewAuditService(deps.Audit)

	// Set up Gin Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(middleware.Recovery(zlog), middleware.RequestLogger(zlog), metrics.Middleware())
	router.MaxMultipartMemory = cfg.Storage.MaxUploadBytes

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	if strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		router.Static(cfg.Storage.PublicBaseURL, cfg.Storage.UploadDir)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst, zlog)
	limiter.StartCleanup(5*time.Minute, ctx.Done())

	api := router.Group("/api")
	authed := api.Group("", middleware.Authenticate(userService))

	cookies := middleware.CookieConfig{
		Secure:     cfg.IsRelease(),
		AccessTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTTL: cfg.JWT.RefreshTokenTTL,
	}
	handler.NewUserHandler(userService, cookies).RegisterRoutes(api, authed, limiter.Handler())
	handler.NewAreaHandler(areaService).RegisterRoutes(authed)
	handler.NewWorkOrderHandler(workOrderService).RegisterRoutes(authed)
	handler.NewAssetHandler(assetService).RegisterRoutes(authed)
	handler.NewVendorHandler(vendorService).RegisterRoutes(authed)
	handler.NewContractHandler(contractService).RegisterRoutes(authed)
	handler.NewBookingHandler(bookingService).RegisterRoutes(authed)
	handler.NewSupplyRequestHandler(supplyService).RegisterRoutes(authed)
	handler.NewExpenseHandler(expenseService).RegisterRoutes(authed)
	handler.NewNotificationHandler(notificationService).RegisterRoutes(authed)
	handler.NewStatisticsHandler(statisticsService).RegisterRoutes(authed)
	handler.NewAuditHandler(auditService).RegisterRoutes(authed)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Server.Port))
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

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
