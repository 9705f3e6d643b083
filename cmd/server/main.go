package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"actdone.backend/internal/config"
	"actdone.backend/internal/infrastructure/jobs"
	"actdone.backend/internal/infrastructure/mailer"
	"actdone.backend/internal/infrastructure/models"
	"actdone.backend/internal/infrastructure/oauth"
	"actdone.backend/internal/infrastructure/repositories"
	"actdone.backend/internal/interfaces/http/handlers"
	"actdone.backend/internal/interfaces/http/middleware"
	"actdone.backend/internal/usecases"
	"actdone.backend/pkg/crypto"
	"actdone.backend/pkg/jwt"
	"actdone.backend/pkg/logger"
	"actdone.backend/pkg/metrics"
	"actdone.backend/pkg/redis"
)

// sessionTTL is fixed; clients rely on the cookie lifetime.
const sessionTTL = 30 * time.Minute

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			TranslateError: true,
		})
	}
	newMailer = mailer.New
	runServer = func(srv *http.Server) error { return srv.ListenAndServe() }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	if cfg.Server.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.Server.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		logger.SetLevel(level)
	}
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database not available: %w", err)
	}
	logger.Info(ctx, "Connected to database")

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info(ctx, "Database schema migrated")
	}

	sender, closeMailer, err := newMailer(cfg.Mail, cfg.RabbitMQ)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	defer closeMailer()
	logger.Info(ctx, "Mailer initialized", zap.String("transport", cfg.Mail.Transport))

	recorder := metrics.New()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	verificationRepo := repositories.NewEmailVerificationRepository(db)
	taskListRepo := repositories.NewTaskListRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Services
	sessions := jwt.NewSessionIssuer(cfg.JWT.Secret, sessionTTL)
	hasher := crypto.NewPasswordHasher(cfg.Auth.BcryptCost)
	ledger := usecases.NewVerificationLedger(verificationRepo, cfg.Auth.VerificationTTL)
	resolver := usecases.NewIdentityResolver(uow, userRepo, taskListRepo, cfg.Auth.DefaultListName)

	var providers []usecases.IdentityProvider
	if cfg.OAuth.Enabled() {
		providers = append(providers, oauth.NewProvider(cfg.OAuth))
		logger.Info(ctx, "OAuth provider enabled", zap.String("provider", cfg.OAuth.Provider))
	}

	authUsecase := usecases.NewAuthUsecase(usecases.AuthDeps{
		UnitOfWork: uow,
		Users:      userRepo,
		Lists:      taskListRepo,
		Ledger:     ledger,
		Resolver:   resolver,
		Hasher:     hasher,
		Sessions:   sessions,
		Mailer:     sender,
		States:     redis.NewStateStore(cfg.OAuth.StateTTL),
		Providers:  providers,
		Events:     recorder,
	}, usecases.AuthOptions{
		AppBaseURL:          cfg.Server.AppBaseURL,
		ClientURL:           cfg.Server.ClientURL,
		VerifySuccessPath:   cfg.Auth.VerifySuccessPath,
		OAuthSuccessPath:    cfg.Auth.OAuthSuccessPath,
		DefaultListName:     cfg.Auth.DefaultListName,
		ExternalAccountName: cfg.OAuth.DisplayName,
	})
	taskListUsecase := usecases.NewTaskListUsecase(taskListRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authUsecase, handlers.CookieOptions{
		Name:   cfg.Cookie.Name,
		Domain: cfg.Cookie.Domain,
		Secure: cfg.Cookie.Secure,
	})
	taskListHandler := handlers.NewTaskListHandler(taskListUsecase)

	// Background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	cleanupJob := jobs.NewVerificationTokenCleanupJob(verificationRepo, cfg.Auth.CleanupInterval, cfg.Auth.VerificationRetention)
	if cleanupJob.Enabled() {
		go cleanupJob.Start(jobCtx)
		defer cleanupJob.Stop()
	}

	r := newRouter(cfg.Server.AllowedOrigins, cfg.Server.IsProduction(), recorder)
	registerHealthRoute(r)
	registerMetricsRoute(r, recorder.Handler())

	deps := routeDeps{
		authHandler:     authHandler,
		taskListHandler: taskListHandler,
		requireAuth:     middleware.RequireAuth(sessions, cfg.Cookie.Name),
	}
	if cfg.RateLimit.Enabled {
		deps.rateLimit = func(scope string) gin.HandlerFunc {
			return middleware.RateLimitMiddleware(scope, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		}
	}
	registerAPIRoutes(r, deps)

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(srv, cfg.Server.ShutdownTimeout)
}

// serve runs srv until it fails or the process is asked to stop, then drains
// in-flight requests for at most timeout.
func serve(srv *http.Server, timeout time.Duration) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "ACTDONE backend starting", zap.String("addr", srv.Addr))
		errCh <- runServer(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
