package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"interview_coach_backend/internal/analysis"
	"interview_coach_backend/internal/config"
	"interview_coach_backend/internal/controller"
	"interview_coach_backend/internal/extractor"
	"interview_coach_backend/internal/repository"
	"interview_coach_backend/internal/service"
	"interview_coach_backend/pkg/database"
	"interview_coach_backend/pkg/logger"
	"interview_coach_backend/pkg/monitoring"
	"interview_coach_backend/pkg/security"
	"interview_coach_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	session  *repository.SessionRepository
	attempt  *repository.AttemptRepository
	media    *repository.MediaAssetRepository
	feedback *repository.FeedbackRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	media      *service.MediaService
	interview  *service.InterviewService
	answerEval *service.AnswerEvalService
	analysis   *service.AnalysisService
}

type controllers struct {
	auth      *controller.AuthController
	interview *controller.InterviewController
	analysis  *controller.AnalysisController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口，由configwatcher回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		session:  repository.NewSessionRepository(db),
		attempt:  repository.NewAttemptRepository(db),
		media:    repository.NewMediaAssetRepository(db),
		feedback: repository.NewFeedbackRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	storageSvc := service.NewStorageService(cfg)

	workDir := filepath.Join(os.TempDir(), "interview_coach")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		logger.Log.Fatal("Failed to create work dir", zap.Error(err))
	}

	mediaSvc := service.NewMediaService(repos.media, storageSvc, workDir)
	interviewSvc := service.NewInterviewService(repos.session, repos.attempt, repos.media, storageSvc, workDir)
	answerEvalSvc := service.NewAnswerEvalService(cfg.AI)

	inference := extractor.NewInferenceClient(cfg.Inference)
	extractors := map[analysis.Modality]extractor.Extractor{
		analysis.ModalityPose:  extractor.NewPoseExtractor(inference, cfg.Analysis.SampleFPS),
		analysis.ModalityFace:  extractor.NewFaceExtractor(inference, cfg.Analysis.SampleFPS),
		analysis.ModalityVoice: extractor.NewVoiceExtractor(inference, workDir),
	}

	analysisSvc := service.NewAnalysisService(
		cfg.Analysis,
		repos.feedback,
		repos.attempt,
		mediaSvc,
		extractors,
		answerEvalSvc,
		rdb,
	)
	a.RegisterConfigCallback(analysisSvc.Reload)

	return &services{
		auth:       service.NewAuthService(repos.user, cfg),
		storage:    storageSvc,
		media:      mediaSvc,
		interview:  interviewSvc,
		answerEval: answerEvalSvc,
		analysis:   analysisSvc,
	}
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		interview: controller.NewInterviewController(s.interview),
		analysis:  controller.NewAnalysisController(s.analysis, s.interview),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	// 定时回收进程崩溃后滞留在analyzing的记录
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			s.analysis.ReapStale(context.Background())
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("interview-coach", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
