package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "dealership/api/swagger" // swagger docs
	"dealership/internal/cache"
	"dealership/internal/config"
	"dealership/internal/database"
	"dealership/internal/handler"
	"dealership/internal/middleware"
	"dealership/internal/model"
	"dealership/internal/notify"
	"dealership/internal/repository"
	"dealership/internal/service"
	"dealership/internal/storage"
	"dealership/internal/websocket"
	"dealership/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Dealership Application API
// @version         1.0
// @description     Dealership applications, status tracking, UPI payments and the back-office review workflow.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	// Side-effect adapters
	trackingCache := cache.Noop()
	if cfg.Redis.Enabled() {
		client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, tracking cache disabled", zap.Error(err))
		} else {
			trackingCache = cache.NewRedis(client, cfg.Redis.TTL)
			defer client.Close()
		}
	}

	notifier := notify.NewLog(log)
	if cfg.AWS.SESEnabled {
		notifier, err = notify.NewSES(ctx, cfg.AWS.Region, cfg.AWS.SESSender, log)
		if err != nil {
			log.Fatal("failed to configure SES", zap.Error(err))
		}
	}

	letterStore := storage.NewLocal(cfg.Letters.LocalDir)
	if cfg.Letters.Bucket != "" {
		letterStore, err = storage.NewS3(ctx, cfg.AWS.Region, cfg.Letters.Bucket)
		if err != nil {
			log.Fatal("failed to configure S3", zap.Error(err))
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log, cfg.CORSOrigins)
	go wsHub.Run(ctx.Done())

	fx := service.Effects{Cache: trackingCache, Notifier: notifier, Publisher: wsHub, Log: log}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	appRepo := repository.NewApplicationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	supportRepo := repository.NewSupportRepository(db)
	letterRepo := repository.NewApprovalLetterRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.GinMode == gin.ReleaseMode)
	staff := []string{model.RoleAdmin, model.RoleReviewer}
	guard := auth.RequireRole(staff...)

	applicationService := service.NewApplicationService(appRepo, paymentRepo, auditRepo, txManager, fx, cfg.Payment.DefaultAmount)
	paymentService := service.NewPaymentService(paymentRepo, appRepo, auditRepo, txManager, fx, service.PayeeConfig{
		UPIID:     cfg.Payment.UPIID,
		PayeeName: cfg.Payment.PayeeName,
	})
	supportService := service.NewSupportService(supportRepo, auditRepo, txManager, fx)
	letterService := service.NewApprovalLetterService(letterRepo, appRepo, auditRepo, txManager, letterStore, fx)
	dashboardService := service.NewDashboardService(dashboardRepo)
	userService := service.NewUserService(userRepo, auth, log)
	auditService := service.NewAuditService(auditRepo)

	if err := userService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatal("failed to seed admin", zap.Error(err))
	}

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unreachable"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "database": dbStatus, "websocketClients": wsHub.ClientCount()})
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth, staff...)
	})

	// Public writes are rate limited per client IP.
	limiter := middleware.NewRateLimiter(cfg.Limits.RPS, cfg.Limits.Burst, log)
	limiter.StartCleanup(time.Minute, ctx.Done())

	api := router.Group("")
	api.Use(func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			limiter.Handler()(c)
			return
		}
		c.Next()
	})

	handler.NewApplicationHandler(applicationService, paymentService, guard).RegisterRoutes(api)
	handler.NewPaymentHandler(paymentService, guard).RegisterRoutes(api)
	handler.NewSupportHandler(supportService, guard).RegisterRoutes(api)
	handler.NewApprovalLetterHandler(letterService, guard).RegisterRoutes(api)
	handler.NewDashboardHandler(dashboardService, guard).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, auth.RequireRole(model.RoleAdmin)).RegisterRoutes(api)
	handler.NewUserHandler(userService, auth, guard).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
