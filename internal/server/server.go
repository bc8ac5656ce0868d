// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thiagoisdead/sustento-back/internal/config"
	"github.com/thiagoisdead/sustento-back/internal/logging"
	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/nutrition"
	"github.com/thiagoisdead/sustento-back/internal/planner"
)

// Store is the persistence the HTTP API reads and writes.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	GetFood(ctx context.Context, id int64) (*models.FoodRecord, error)
	ListFoods(ctx context.Context, query string, limit int) ([]*models.FoodRecord, error)

	CreatePlan(ctx context.Context, plan *models.PlanRecord) error
	GetPlan(ctx context.Context, id int64) (*models.PlanRecord, error)
	ListPlans(ctx context.Context, userID int64) ([]*models.PlanRecord, error)
	UpdatePlan(ctx context.Context, plan *models.PlanRecord) error
	DeletePlan(ctx context.Context, id int64) error
	ListMeals(ctx context.Context, planID int64) ([]models.Meal, error)
	PlanPortions(ctx context.Context, planID int64) ([]nutrition.Portion, error)

	CreateRecord(ctx context.Context, rec *models.ConsumptionRecord) error
	GetRecord(ctx context.Context, id int64) (*models.ConsumptionRecord, error)
	ListRecords(ctx context.Context, userID int64) ([]*models.ConsumptionRecord, error)
	ListRecordsByMealOn(ctx context.Context, mealID int64, day time.Time) ([]*models.ConsumptionRecord, error)
	UpdateRecord(ctx context.Context, rec *models.ConsumptionRecord) error
	DeleteRecord(ctx context.Context, id int64) error
}

// Suggester generates and persists meal plans.
type Suggester interface {
	Suggest(ctx context.Context, req planner.SuggestRequest) (*planner.Suggestion, error)
}

type Server struct {
	cfg        *config.Config
	store      Store
	suggester  Suggester
	logger     *zap.Logger
	engine     *gin.Engine
	httpServer *http.Server
	tools      map[string]tool
	now        func() time.Time
}

func New(cfg *config.Config, store Store, suggester Suggester, logger *zap.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		suggester: suggester,
		logger:    logging.OrNop(logger).Named("server"),
		now:       time.Now,
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), logging.GinMiddleware(logger))
	s.registerRoutes()
	s.registerTools()

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           c.Handler(s.engine),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/mcp", s.handleMCP)
	s.engine.GET("/mcp/tools", s.handleListTools)

	api := s.engine.Group("/api")

	api.POST("/targets", s.handleCalculateTargets)
	api.GET("/foods", s.handleListFoods)

	users := api.Group("/users")
	users.POST("", s.handleCreateUser)
	users.GET("/:id", s.handleGetUser)
	users.PUT("/:id", s.handleUpdateUser)
	users.GET("/:id/targets", s.handleUserTargets)

	plans := api.Group("/meal-plans")
	plans.POST("", s.handleCreatePlan)
	plans.GET("", s.handleListPlans)
	plans.POST("/suggest", s.handleSuggestPlan)
	plans.GET("/:id", s.handleGetPlan)
	plans.PUT("/:id", s.handleUpdatePlan)
	plans.DELETE("/:id", s.handleDeletePlan)
	plans.GET("/:id/meals", s.handleListMeals)
	plans.GET("/:id/totals", s.handlePlanTotals)

	records := api.Group("/meal-records")
	records.POST("", s.handleCreateRecord)
	records.GET("", s.handleListRecords)
	records.GET("/meal/:id", s.handleRecordsByMeal)
	records.GET("/:id", s.handleGetRecord)
	records.PUT("/:id", s.handleUpdateRecord)
	records.DELETE("/:id", s.handleDeleteRecord)
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		defer cancel()
		s.logger.Info("shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrIncompleteProfile),
		errors.Is(err, models.ErrInvalidGender),
		errors.Is(err, models.ErrInvalidActivityLevel):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNoCandidateFoods),
		errors.Is(err, models.ErrGenerationIncomplete),
		errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
