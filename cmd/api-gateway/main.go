package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-finance-api/api/swagger"
	"github.com/noah-isme/sma-finance-api/internal/handler"
	"github.com/noah-isme/sma-finance-api/internal/middleware"
	"github.com/noah-isme/sma-finance-api/internal/models"
	"github.com/noah-isme/sma-finance-api/internal/repository"
	"github.com/noah-isme/sma-finance-api/internal/service"
	"github.com/noah-isme/sma-finance-api/pkg/cache"
	"github.com/noah-isme/sma-finance-api/pkg/config"
	"github.com/noah-isme/sma-finance-api/pkg/database"
	"github.com/noah-isme/sma-finance-api/pkg/jobs"
	"github.com/noah-isme/sma-finance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-finance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-finance-api/pkg/middleware/requestid"
)

// @title SMA Finance API
// @version 1.0.0
// @description Tuition billing, payments, delinquency and financial dashboards
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Migrations.Enabled {
		if err := database.Migrate(cfg.Database, cfg.Migrations.Dir, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)

	installmentSvc := service.NewInstallmentService(installmentRepo, cacheSvc, metricsSvc, logr)
	paymentSvc := service.NewPaymentService(installmentRepo, cacheSvc, metricsSvc, validate, logr)
	delinquencySvc := service.NewDelinquencyService(installmentRepo, logr)
	enrollmentSvc := service.NewEnrollmentService(service.EnrollmentServiceParams{
		Repo:          enrollmentRepo,
		Installments:  installmentRepo,
		Ledger:        installmentSvc,
		Students:      studentRepo,
		Cache:         cacheSvc,
		Metrics:       metricsSvc,
		Validator:     validate,
		Logger:        logr,
		DefaultDueDay: cfg.Billing.DefaultDueDay,
	})
	expenseSvc := service.NewExpenseService(expenseRepo, cacheSvc, validate, logr)
	payrollSvc := service.NewPayrollService(payrollRepo, teacherRepo, cacheSvc, validate, logr)
	dashboardSvc := service.NewFinanceDashboardService(service.FinanceDashboardParams{
		Installments: installmentRepo,
		Expenses:     expenseRepo,
		Payroll:      payrollRepo,
		Students:     studentRepo,
		Teachers:     teacherRepo,
		Classes:      classRepo,
		Cache:        cacheSvc,
		Logger:       logr,
		Config:       service.FinanceDashboardConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	installmentHandler := handler.NewInstallmentHandler(installmentSvc, paymentSvc)
	delinquencyHandler := handler.NewDelinquencyHandler(delinquencySvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	expenseHandler := handler.NewExpenseHandler(expenseSvc)
	payrollHandler := handler.NewPayrollHandler(payrollSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/health", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))
	finance := api.Group("")
	finance.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleFinance))

	finance.GET("/enrollments", enrollmentHandler.List)
	finance.POST("/enrollments", enrollmentHandler.Create)
	finance.GET("/enrollments/:id", enrollmentHandler.Get)
	finance.POST("/enrollments/:id/cancel", enrollmentHandler.Cancel)
	finance.GET("/students/:id/enrollments", enrollmentHandler.ListByStudent)

	finance.GET("/installments", installmentHandler.List)
	finance.POST("/installments/overdue-sweep", installmentHandler.Sweep)
	finance.GET("/installments/:id", installmentHandler.Get)
	finance.POST("/installments/:id/payments", installmentHandler.Pay)
	finance.POST("/installments/:id/late-fee", installmentHandler.ApplyLateFee)

	finance.GET("/delinquents", delinquencyHandler.List)
	finance.GET("/delinquents/export", delinquencyHandler.Export)

	finance.GET("/finance/dashboard", dashboardHandler.Monthly)
	finance.GET("/finance/history", dashboardHandler.History)
	finance.GET("/finance/summary", dashboardHandler.Summary)
	finance.GET("/finance/overview", dashboardHandler.Overview)

	finance.GET("/expenses", expenseHandler.List)
	finance.POST("/expenses", expenseHandler.Create)
	finance.POST("/expenses/:id/pay", expenseHandler.Pay)
	finance.POST("/expenses/:id/cancel", expenseHandler.Cancel)

	finance.GET("/payroll", payrollHandler.List)
	finance.POST("/payroll", payrollHandler.Create)
	finance.POST("/payroll/generate", payrollHandler.Generate)
	finance.POST("/payroll/:id/pay", payrollHandler.Pay)
	finance.POST("/payroll/:id/cancel", payrollHandler.Cancel)

	api.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Billing.SweepEnabled {
		mux := jobs.NewMux()
		mux.Handle(service.OverdueSweepJobType, service.NewOverdueSweepJob(installmentSvc, logr))
		queue := jobs.NewQueue("billing", mux.Dispatch, jobs.QueueConfig{
			Workers:    1,
			MaxRetries: cfg.Billing.SweepRetries,
			RetryDelay: time.Minute,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		if err := queue.Every(cfg.Billing.SweepInterval, service.OverdueSweepJobType, func() interface{} {
			return time.Now().UTC()
		}); err != nil {
			logr.Error("failed to schedule overdue sweep", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
