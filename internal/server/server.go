package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apihttp "github.com/iamrahulroyy/ats-checker/internal/api/http"
	"github.com/iamrahulroyy/ats-checker/internal/api/middleware"
	"github.com/iamrahulroyy/ats-checker/internal/domain/resume"
	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/config"
	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/database"
	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/logging"
	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/monitoring"
	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/resilience"
	"github.com/iamrahulroyy/ats-checker/internal/scoring"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	cfg    *config.Config
	logger *logging.Logger
	router *gin.Engine
	db     *database.Manager
	http   *http.Server
}

// NewServer wires configuration into a ready-to-run server. The database
// is opened and migrated here so startup fails fast on a bad DATABASE_URL.
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	onChange := breakerObserver(logger.Logger, metrics)

	dbBreaker := resilience.NewBreaker("database", resilience.Settings{
		MaxFailures:   cfg.Database.MaxFailures,
		Cooldown:      cfg.Database.Cooldown,
		OnStateChange: onChange,
	})

	dbCfg := database.Config{
		URL:            cfg.Database.URL,
		PoolSize:       cfg.Database.PoolSize,
		MaxOverflow:    cfg.Database.MaxOverflow,
		PoolTimeout:    cfg.Database.PoolTimeout,
		PoolRecycle:    cfg.Database.PoolRecycle,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		EngineRetries:  cfg.Database.EngineRetries,
		SchemaRetries:  cfg.Database.SchemaRetries,
		SessionRetries: cfg.Database.SessionRetries,
		RetryBackoff:   cfg.Database.RetryBackoff,
	}
	db := database.NewManager(dbCfg, dbBreaker, logger.Logger)

	if err := db.Open(ctx); err != nil {
		return nil, err
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.RegisterPoolStats(prometheus.DefaultRegisterer, db.Stats)

	scoreBreaker := resilience.NewBreaker("scoring", resilience.Settings{
		MaxFailures:   cfg.Groq.MaxFailures,
		Cooldown:      cfg.Groq.Cooldown,
		OnStateChange: onChange,
	})
	scorer := scoring.NewClient(scoring.Config{
		APIURL:     cfg.Groq.APIURL,
		APIKey:     cfg.Groq.APIKey,
		Model:      cfg.Groq.Model,
		Timeout:    cfg.Groq.Timeout,
		MaxRetries: cfg.Groq.MaxRetries,
	}, scoreBreaker, logger.Logger)

	store := database.NewResumeStore(db)
	service := resume.NewService(store, scorer, cfg.Upload.Dir, metrics, logger.Logger)

	handlers := apihttp.NewHandlers(service, db, dbBreaker, scoreBreaker, cfg.Upload.MaxSize, logger.Logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger.Logger))
	router.Use(monitoring.Middleware(metrics))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORS.Origins
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(monitoring.Handler()))

	router.POST("/upload_resume/", handlers.UploadResume)
	router.GET("/resumes/", handlers.ListResumes)
	router.GET("/resumes/:id", handlers.GetResume)

	return &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		db:     db,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run starts the server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the database pool
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

// breakerObserver fans state transitions out to the log and the gauge.
func breakerObserver(logger *zap.Logger, metrics *monitoring.Metrics) func(name string, from, to resilience.State) {
	observe := metrics.ObserveBreaker()
	return func(name string, from, to resilience.State) {
		if to == resilience.StateOpen {
			logger.Warn("circuit breaker opened",
				zap.String("breaker", name),
				zap.String("from", from.String()),
			)
		} else {
			logger.Info("circuit breaker closed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
			)
		}
		observe(name, from, to)
	}
}
