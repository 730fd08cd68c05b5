package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"newsagg/internal/aggregator"
	"newsagg/internal/auth"
	"newsagg/internal/cache"
	"newsagg/internal/config"
	"newsagg/internal/ingest"
	"newsagg/internal/models"
	"newsagg/internal/scheduler"
	"newsagg/internal/security"
	"newsagg/internal/storage"
	"newsagg/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type Server struct {
	router        *gin.Engine
	storage       storage.Storage
	aggregator    *aggregator.Aggregator
	ingestService *ingest.Service
	scheduler     *scheduler.Scheduler
	authService   *auth.Service
	cacheManager  *cache.Manager
	swaggerServer *web.SwaggerServer
	cfg           *config.Config
}

func NewServer(store storage.Storage, agg *aggregator.Aggregator, ingestService *ingest.Service, sched *scheduler.Scheduler, authService *auth.Service, cacheManager *cache.Manager, cfg *config.Config) *Server {
	router := gin.Default()

	// Setup security middleware
	security.SetupSecurityMiddleware(router, cfg.Security)

	registerValidations()

	server := &Server{
		router:        router,
		storage:       store,
		aggregator:    agg,
		ingestService: ingestService,
		scheduler:     sched,
		authService:   authService,
		cacheManager:  cacheManager,
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger),
		cfg:           cfg,
	}

	server.setupRoutes()
	return server
}

// registerValidations adds the provider-name rule to gin's binding
// validator so request structs can tag source fields with "newssource".
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("newssource", func(fl validator.FieldLevel) bool {
			_, known := models.ParseSource(fl.Field().String())
			return known
		})
	}
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.GET("/articles", s.authService.OptionalAuth(), s.listArticles)
		api.GET("/articles/:id", s.getArticle)
		api.GET("/sources", s.getSources)
		api.GET("/categories", s.getCategories)
		api.GET("/authors", s.getAuthors)
		api.GET("/stats", s.getStats)

		api.POST("/register", s.register)
		api.POST("/login", s.login)

		prefs := api.Group("/preferences", s.authService.RequireAuth())
		{
			prefs.GET("", s.getPreferences)
			prefs.POST("", s.savePreferences)
			prefs.DELETE("", s.deletePreferences)
		}

		// Ingestion control endpoints
		api.POST("/ingest", s.triggerIngest)
		api.POST("/cleanup", s.triggerCleanup)
		api.GET("/scheduler/status", s.getSchedulerStatus)
	}

	// Register the Swagger UI
	s.swaggerServer.RegisterRoutes(s.router)
}

func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.cfg.Port))
}

// StartWithContext serves until the context is cancelled, then drains
// in-flight requests before returning context.Canceled.
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.cfg.Port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
