package app

import (
	"ai_academy_backend/internal/config"
	"ai_academy_backend/internal/controller"
	"ai_academy_backend/internal/middleware"
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/internal/service"
	"ai_academy_backend/internal/util"
	"ai_academy_backend/pkg/configwatcher"
	"ai_academy_backend/pkg/database"
	"ai_academy_backend/pkg/logger"
	"ai_academy_backend/pkg/monitoring"
	"ai_academy_backend/pkg/security"
	"ai_academy_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	tracer          *sdktrace.TracerProvider
	limiter         *security.IPRateLimiter
	storage         *service.StorageService
	configCallbacks []func(*config.Config)
}

type repositories struct {
	algorithm   *repository.AlgorithmRepository
	user        *repository.UserRepository
	progress    *repository.ProgressRepository
	achievement *repository.AchievementRepository
	chat        *repository.ChatRepository
	analytics   *repository.AnalyticsRepository
}

type services struct {
	storage     *service.StorageService
	catalog     *service.CatalogService
	user        *service.UserService
	achievement *service.AchievementService
	progress    *service.ProgressService
	analytics   *service.AnalyticsService
	chat        *service.ChatService
	dashboard   *service.DashboardService
}

type controllers struct {
	health      *controller.HealthController
	algorithm   *controller.AlgorithmController
	dashboard   *controller.DashboardController
	user        *controller.UserController
	progress    *controller.ProgressController
	achievement *controller.AchievementController
	chat        *controller.ChatController
	analytics   *controller.AnalyticsController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func initRepositories(db *gorm.DB) (*repositories, error) {
	algorithms, err := repository.NewAlgorithmRepository()
	if err != nil {
		return nil, err
	}
	return &repositories{
		algorithm:   algorithms,
		user:        repository.NewUserRepository(db),
		progress:    repository.NewProgressRepository(db),
		achievement: repository.NewAchievementRepository(db),
		chat:        repository.NewChatRepository(db),
		analytics:   repository.NewAnalyticsRepository(db),
	}, nil
}

func initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.catalog = service.NewCatalogService(repos.algorithm)
	s.user = service.NewUserService(repos.user, s.storage)
	s.achievement = service.NewAchievementService(repos.achievement, repos.progress, repos.user, s.catalog, s.user)
	s.progress = service.NewProgressService(repos.progress, s.user, s.achievement)
	s.analytics = service.NewAnalyticsService(repos.analytics, repos.progress, repos.user, s.catalog)
	s.dashboard = service.NewDashboardService(s.catalog)

	var primary service.Responder
	if cfg.AI.APIKey != "" {
		responder, err := service.NewOpenAIResponder(cfg.AI)
		if err != nil {
			logger.Log.Warn("AI responder disabled", zap.Error(err))
		} else {
			primary = responder
			logger.Log.Info("AI responder enabled", zap.String("model", cfg.AI.Model))
		}
	}
	s.chat = service.NewChatService(repos.chat, primary)

	return s
}

func initControllers(s *services, db *gorm.DB, cfg *config.Config) *controllers {
	return &controllers{
		health:      controller.NewHealthController(db, cfg.Server.Version),
		algorithm:   controller.NewAlgorithmController(s.catalog),
		dashboard:   controller.NewDashboardController(s.dashboard),
		user:        controller.NewUserController(s.user),
		progress:    controller.NewProgressController(s.progress),
		achievement: controller.NewAchievementController(s.achievement),
		chat:        controller.NewChatController(s.chat),
		analytics:   controller.NewAnalyticsController(s.analytics),
	}
}

// NewApp 初始化日志、数据库、Redis 与追踪后组装路由
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}, nil
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			// Redis 只用于共享限流，失败时退回进程内限流
			logger.Log.Warn("Redis unavailable, using in-memory rate limiter", zap.Error(err))
			rdb = nil
		}
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
			tp = nil
		}
	}

	app, err := newApp(cfg, db, rdb)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	app.tracer = tp
	return app, nil
}

// NewWithDB 使用已打开的数据库组装应用，不初始化日志与外部依赖
func NewWithDB(cfg *config.Config, db *gorm.DB) (*App, error) {
	return newApp(cfg, db, nil)
}

func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	util.SetExposeErrors(cfg.Server.IsDevelopment())
	monitoring.Init()

	repos, err := initRepositories(db)
	if err != nil {
		return nil, err
	}
	svcs := initServices(repos, cfg)
	ctrls := initControllers(svcs, db, cfg)

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		storage: svcs.storage,
	}

	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, svcs)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetLevel(newCfg.Log.Level)
	})
	if app.limiter != nil {
		app.RegisterConfigCallback(func(newCfg *config.Config) {
			app.limiter.Update(newCfg.RateLimit.MaxRequests, newCfg.RateLimit.Window())
		})
	}

	return app, nil
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// rateLimitMiddleware 启用 Redis 时多实例共享计数
func (a *App) rateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	if a.Redis != nil {
		return security.NewRedisRateLimiter(a.Redis, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()).Middleware()
	}
	a.limiter = security.NewIPRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	return a.limiter.Middleware()
}

func (a *App) watchConfig(ctx context.Context) {
	if a.Config.ConfigDir == "" {
		return
	}
	if _, err := os.Stat(a.Config.ConfigDir); err != nil {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(ctx, a.Config.ConfigDir, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("config watcher stopped", zap.Error(err))
		}
	}()
}

// Run 阻塞直到收到 SIGINT/SIGTERM，随后优雅关闭并释放资源
func (a *App) Run() error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.watchConfig(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running",
			zap.String("port", a.Config.Server.Port),
			zap.String("env", a.Config.Server.Env),
			zap.String("database", a.Config.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			a.Close()
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Log.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(shutdownErr))
	}

	a.Close()
	logger.Log.Info("Server exiting")
	return shutdownErr
}

// Close 依次释放追踪、限流、Redis 与数据库连接
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := tracing.Shutdown(ctx, a.tracer); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if err := database.Close(a.DB); err != nil {
		logger.Log.Error("Error closing database", zap.Error(err))
	} else {
		logger.Log.Info("Database connection closed")
	}
	logger.Sync()
}
