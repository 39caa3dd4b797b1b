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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/courseloop/marketplace-api/internal/handler"
	"github.com/courseloop/marketplace-api/internal/middleware"
	"github.com/courseloop/marketplace-api/internal/models"
	"github.com/courseloop/marketplace-api/internal/repository"
	"github.com/courseloop/marketplace-api/internal/service"
	"github.com/courseloop/marketplace-api/pkg/cache"
	"github.com/courseloop/marketplace-api/pkg/config"
	"github.com/courseloop/marketplace-api/pkg/database"
	"github.com/courseloop/marketplace-api/pkg/logger"
	corsmiddleware "github.com/courseloop/marketplace-api/pkg/middleware/cors"
	reqidmiddleware "github.com/courseloop/marketplace-api/pkg/middleware/requestid"
	"github.com/courseloop/marketplace-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Redis is optional. Without it the catalog is served straight from
	// the database on every request.
	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && cacheRepo != nil)

	receiptStore, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init receipt storage", "error", err)
	}
	receiptSigner := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	intents := &paymentintent.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: cfg.Stripe.SecretKey,
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "course-marketplace",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, cacheSvc, validate, logr)
	selectionSvc := service.NewSelectionService(selectionRepo, validate, logr)
	receiptSvc := service.NewReceiptService(paymentRepo, receiptStore, receiptSigner, logr, service.ReceiptConfig{
		WorkerConcurrency: cfg.Receipts.WorkerConcurrency,
		WorkerRetries:     cfg.Receipts.WorkerRetries,
		Currency:          cfg.Stripe.Currency,
	})
	paymentSvc := service.NewPaymentService(paymentRepo, intents, receiptSvc, metricsSvc, validate, logr, cfg.Stripe.Currency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	receiptSvc.Start(ctx)
	defer receiptSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	classHandler := handler.NewClassHandler(classSvc)
	selectionHandler := handler.NewSelectionHandler(selectionSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, receiptSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	auth := middleware.JWT(authSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	instructorOrAdmin := middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)

	r.POST("/jwt", authHandler.IssueToken)

	r.POST("/users", userHandler.Register)
	r.GET("/users", auth, adminOnly, userHandler.List)
	r.GET("/instructor", userHandler.ListInstructors)
	r.GET("/users/admin/:email", auth, userHandler.CheckAdmin)
	r.GET("/users/instructor/:email", auth, userHandler.CheckInstructor)
	r.PATCH("/users/admin/:id", auth, adminOnly, userHandler.PromoteAdmin)
	r.PATCH("/users/instructor/:id", auth, adminOnly, userHandler.PromoteInstructor)

	r.POST("/classes", auth, instructorOrAdmin, classHandler.Submit)
	r.GET("/classes", classHandler.ListAll)
	r.GET("/classes/:email", classHandler.ListByInstructor)
	r.GET("/approvedClasses", classHandler.ListApproved)
	r.POST("/classes/:classId/approve", auth, adminOnly, classHandler.Approve)
	r.POST("/classes/:classId/deny", auth, adminOnly, classHandler.Deny)
	r.PATCH("/totalStudent/:id", classHandler.IncrementTotalStudents)

	r.POST("/selectedClasses", selectionHandler.Add)
	r.GET("/myselectedClasses/:email", auth, middleware.RequireSelf(), selectionHandler.ListForStudent)
	r.DELETE("/selectedClass/:id", selectionHandler.Remove)

	r.POST("/create-payment-intent", auth, paymentHandler.CreateIntent)
	r.POST("/payments", auth, paymentHandler.Checkout)
	r.GET("/payments/:id/receipt", auth, paymentHandler.ReceiptLink)
	r.GET("/receipts/download", paymentHandler.DownloadReceipt)
	r.GET("/payments/export", auth, adminOnly, paymentHandler.ExportCSV)
	r.GET("/enrolled/:email", paymentHandler.EnrolledClasses)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
