package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	authhandler "github.com/parishkit/chms-api/internal/handler/auth"
	cardhandler "github.com/parishkit/chms-api/internal/handler/card"
	exporthandler "github.com/parishkit/chms-api/internal/handler/export"
	"github.com/parishkit/chms-api/internal/handler/health"
	orghandler "github.com/parishkit/chms-api/internal/handler/organization"
	prayerhandler "github.com/parishkit/chms-api/internal/handler/prayer"
	userhandler "github.com/parishkit/chms-api/internal/handler/user"
	volunteerhandler "github.com/parishkit/chms-api/internal/handler/volunteer"
	"github.com/parishkit/chms-api/internal/middleware"
)

type Config struct {
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
	RequestTimeout   time.Duration
	CORS             middleware.CORSConfig
}

type Handlers struct {
	Auth         *authhandler.Handler
	Organization *orghandler.Handler
	User         *userhandler.Handler
	Card         *cardhandler.Handler
	Prayer       *prayerhandler.Handler
	Volunteer    *volunteerhandler.Handler
	Export       *exporthandler.Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	db       *sqlx.DB
	config   Config
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func newRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
		requestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
	}
}

func New(
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	db *sqlx.DB,
	log zerolog.Logger,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		db:       db,
		config:   config,
		metrics:  newRouterMetrics(),
	}

	engine.Use(
		gin.Recovery(),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.CORS(config.CORS),
	)

	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
		engine.Use(limiter.RateLimit())
	}

	return r
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	health.NewHandler(r.db).RegisterRoutes(api)

	// Public routes
	r.handlers.Auth.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	protected.Use(middleware.Cache(middleware.DefaultCacheConfig()))

	r.handlers.Organization.RegisterRoutes(protected, r.auth)
	r.handlers.User.RegisterRoutes(protected)
	r.handlers.Card.RegisterRoutes(protected)
	r.handlers.Prayer.RegisterRoutes(protected)
	r.handlers.Volunteer.RegisterRoutes(protected, r.auth)
	r.handlers.Export.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
