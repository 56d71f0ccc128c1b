package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/api/handlers"
	"github.com/animathic/backend/internal/api/middleware"
	"github.com/animathic/backend/internal/auth"
	"github.com/animathic/backend/internal/concurrency"
	"github.com/animathic/backend/internal/coordinator"
	"github.com/animathic/backend/internal/repository"
)

// ServerConfig holds everything setupRoutes needs to wire the HTTP
// surface the core consumes (§6).
type ServerConfig struct {
	Port         string
	Environment  string
	Logger       *zap.Logger
	JobRepo      repository.JobRepository
	VideoRepo    repository.VideoRepository
	AssetRepo    repository.AssetRepository
	Coordinator  *coordinator.WorkerPool
	Semaphore    *concurrency.Semaphore
	JobDeadline  time.Duration
	JWTValidator *auth.JWTValidator
	AllowOrigins []string
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps the gin.Engine implementing §6's wire contract.
type Server struct {
	config *ServerConfig
	router *gin.Engine
}

// NewServer builds the router and registers every route.
func NewServer(config *ServerConfig) *Server {
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(config.Logger))

	allowedOrigins := config.AllowOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if config.MaxBodyBytes > 0 {
		router.Use(middleware.MaxRequestBodySize(config.MaxBodyBytes))
	}

	s := &Server{config: config, router: router}
	s.setupRoutes()
	return s
}

// Router returns the underlying gin.Engine, primarily for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes registers the fixed route table: POST /api/generate, GET
// /api/status/{job_id}, GET /api/videos, DELETE /api/videos/{video_id},
// GET /api/videos/{video_id}/stream, plus an unauthenticated health check
// (§6).
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.config.JobRepo, s.config.AssetRepo, s.config.Logger)
	s.router.GET("/health", healthHandler.Check)
	s.router.HEAD("/health", healthHandler.Check)

	generateHandler := handlers.NewGenerateHandler(
		s.config.Coordinator,
		s.config.JobRepo,
		s.config.VideoRepo,
		s.config.Semaphore,
		s.config.JobDeadline,
		s.config.Logger,
	)
	statusHandler := handlers.NewStatusHandler(s.config.JobRepo, s.config.Logger)
	videosHandler := handlers.NewVideosHandler(s.config.VideoRepo, s.config.AssetRepo, s.config.Logger)

	api := s.router.Group("/api")
	api.Use(auth.JWTAuthMiddleware(s.config.JWTValidator, s.config.Logger))
	{
		api.POST("/generate", generateHandler.Generate)
		api.GET("/status/:job_id", statusHandler.GetStatus)
		api.GET("/videos", videosHandler.ListVideos)
		api.DELETE("/videos/:video_id", videosHandler.DeleteVideo)
		api.GET("/videos/:video_id/stream", videosHandler.StreamVideo)
	}
}
