// Package api отладочный REST API генератора: состояние карты, скан, снимки и поток событий.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/tome/internal/eventbus"
	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/middleware"
	"github.com/annel0/tome/internal/world"
	"github.com/annel0/tome/internal/world/actor"
)

// RestServer представляет REST API сервер
type RestServer struct {
	router   *gin.Engine
	http     *http.Server
	runner   *world.Runner
	scene    *actor.Scene
	scan     *world.ScanRecorder
	bus      eventbus.EventBus
	metrics  *ServerMetrics
	logger   *logging.Logger
	upgrader websocket.Upgrader
	maxRange int
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // адрес, например ":8088"
	Runner   *world.Runner        // цикл генерации (обязателен)
	Scene    *actor.Scene         // сцена для статистики, может быть nil
	Scan     *world.ScanRecorder  // последний скан, может быть nil
	Bus      eventbus.EventBus    // источник событий для /ws/events, может быть nil
	Registry *prometheus.Registry // реестр метрик; nil - новый реестр
	MaxRange int                  // наибольший radius для /api/tiles
	Logger   *logging.Logger      // nil - логгер компонента api
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Runner == nil {
		return nil, errors.New("api: runner обязателен")
	}
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.MaxRange <= 0 {
		config.MaxRange = 16
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	logger := config.Logger
	if logger == nil {
		logger = logging.GetAPILogger()
	}
	router.Use(otelgin.Middleware("tome_api"))
	router.Use(middleware.NewRequestLogger(logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("tome_api", config.Registry)
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, config.Registry)

	rs := &RestServer{
		router:  router,
		runner:  config.Runner,
		scene:   config.Scene,
		scan:    config.Scan,
		bus:     config.Bus,
		metrics: NewServerMetrics(),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // отладочный API
		},
		maxRange: config.MaxRange,
	}
	rs.http = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/tiles", rs.handleTiles)
		api.GET("/tiles/:x/:y/:z", rs.handleTile)
		api.GET("/debug/scan", rs.handleDebugScan)
		api.GET("/snapshot", rs.handleSnapshot)
	}

	rs.router.GET("/ws/events", rs.handleEvents)
	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	rs.logger.Info("REST API слушает %s", rs.http.Addr)
	if err := rs.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно завершает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.http.Shutdown(ctx)
}
