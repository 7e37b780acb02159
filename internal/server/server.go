package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/cache"
	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/migrations"
	"taskboard/internal/prefs"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
	Logger *log.Logger
}

// Handlers groups the HTTP handlers mounted by NewEngine.
type Handlers struct {
	Users       *handler.UserHandler
	Workspaces  *handler.WorkspaceHandler
	Members     *handler.MemberHandler
	Projects    *handler.ProjectHandler
	Tasks       *handler.TaskHandler
	Preferences *handler.PreferenceHandler
}

func Init(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if cfg.RunMigrations {
		if err := migrations.Up(cfg.MigrateURL(), logger); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
	}

	gormLevel := gormlogger.Warn
	if logger.IsLevelEnabled(log.DebugLevel) {
		gormLevel = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	logger.Info("✅ Connected to database")

	var redisClient *redis.Client
	var prefStore prefs.Store = prefs.NewMemoryStore()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("❌ failed to connect to Redis: %w", err)
		}
		prefStore = prefs.NewRedisStore(redisClient)
		logger.Info("✅ Connected to Redis")
	} else {
		logger.Warn("⚠️  REDIS_URL not set, task cache disabled and preferences kept in memory")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	taskCache := cache.NewTasks(taskRepo, redisClient, cfg.CacheTTL, logger)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)

	// Initialize handlers
	handlers := Handlers{
		Users:       handler.NewUserHandler(userRepo, tokens),
		Workspaces:  handler.NewWorkspaceHandler(workspaceRepo, memberRepo, taskCache),
		Members:     handler.NewMemberHandler(memberRepo, taskCache),
		Projects:    handler.NewProjectHandler(projectRepo, memberRepo, taskCache),
		Tasks:       handler.NewTaskHandler(taskRepo, projectRepo, memberRepo, taskCache, logger),
		Preferences: handler.NewPreferenceHandler(prefStore),
	}

	return &Server{
		Engine: NewEngine(logger, tokens, handlers),
		DB:     db,
		Redis:  redisClient,
		Config: cfg,
		Logger: logger,
	}, nil
}

// NewEngine mounts every route on a fresh gin engine.
func NewEngine(logger *log.Logger, tokens *auth.Tokens, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/register", h.Users.Register)
	r.POST("/login", h.Users.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	{
		authorized.GET("/me", h.Users.Me)

		// Workspace routes
		authorized.POST("/workspaces", h.Workspaces.Create)
		authorized.GET("/workspaces", h.Workspaces.GetAll)
		authorized.GET("/workspaces/:id", h.Workspaces.GetByID)
		authorized.PATCH("/workspaces/:id", h.Workspaces.Update)
		authorized.DELETE("/workspaces/:id", h.Workspaces.Delete)
		authorized.POST("/workspaces/:id/reset-invite-code", h.Workspaces.ResetInviteCode)
		authorized.POST("/workspaces/:id/join", h.Workspaces.Join)

		// Member routes
		authorized.GET("/workspaces/:id/members", h.Members.GetAll)
		authorized.PATCH("/members/:id", h.Members.Update)
		authorized.DELETE("/members/:id", h.Members.Delete)

		// Project routes
		authorized.POST("/projects", h.Projects.Create)
		authorized.GET("/workspaces/:id/projects", h.Projects.GetAll)
		authorized.GET("/projects/:id", h.Projects.GetByID)
		authorized.PATCH("/projects/:id", h.Projects.Update)
		authorized.DELETE("/projects/:id", h.Projects.Delete)

		// Task routes
		authorized.POST("/tasks", h.Tasks.Create)
		authorized.GET("/tasks", h.Tasks.GetAll)
		authorized.POST("/tasks/bulk-update", h.Tasks.BulkUpdate)
		authorized.GET("/tasks/:id", h.Tasks.GetByID)
		authorized.PATCH("/tasks/:id", h.Tasks.Update)
		authorized.DELETE("/tasks/:id", h.Tasks.Delete)

		// Board routes
		authorized.GET("/workspaces/:id/board", h.Tasks.Board)
		authorized.POST("/workspaces/:id/board/move", h.Tasks.Move)

		// Preference routes
		authorized.GET("/preferences/:key", h.Preferences.Get)
		authorized.PUT("/preferences/:key", h.Preferences.Set)
	}
	return r
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Logger.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Logger.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.WithError(err).Warn("failed to close Redis client")
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	s.Logger.Info("✅ Server exited properly")
}
