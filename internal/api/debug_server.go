package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/middleware"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// WorldInspector - то, что отладочный сервер читает из мира
type WorldInspector interface {
	Stats() world.Stats
	ActiveRegions() []world.RegionCoord
	GetRegion(coord world.RegionCoord) (*world.RegionStore, bool)
}

// GenericResponse - общий формат ответа
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Config содержит конфигурацию отладочного сервера
type Config struct {
	Port     int
	World    WorldInspector
	Registry *prometheus.Registry // nil - дефолтный регистр
}

// DebugServer - HTTP-сервер отладки: состояние мира, регионов, процесса и /metrics
type DebugServer struct {
	router  *gin.Engine
	world   WorldInspector
	addr    string
	metrics *ProcessMetrics
	logger  *logging.Logger
}

// NewDebugServer создает сервер и настраивает маршруты
func NewDebugServer(cfg Config) *DebugServer {
	if cfg.Port == 0 {
		cfg.Port = 8090
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_debug"))
	router.Use(middleware.NewRequestLogger().Handler())

	var reg prometheus.Registerer
	var gatherer prometheus.Gatherer
	if cfg.Registry != nil {
		reg, gatherer = cfg.Registry, cfg.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("voxel_debug", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	s := &DebugServer{
		router:  router,
		world:   cfg.World,
		addr:    fmt.Sprintf(":%d", cfg.Port),
		metrics: NewProcessMetrics(),
		logger:  logging.GetAPILogger(),
	}
	s.setupRoutes()
	return s
}

func (s *DebugServer) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	debug := s.router.Group("/debug")
	{
		debug.GET("/world", s.handleWorld)
		debug.GET("/regions", s.handleRegions)
		debug.GET("/regions/:x/:z", s.handleRegion)
		debug.GET("/process", s.handleProcess)
	}
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (s *DebugServer) Handler() http.Handler {
	return s.router
}

func (s *DebugServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *DebugServer) handleWorld(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние мира",
		Data:    s.world.Stats(),
	})
}

func (s *DebugServer) handleRegions(c *gin.Context) {
	regions := s.world.ActiveRegions()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Активные регионы",
		Data: map[string]interface{}{
			"regions": regions,
			"total":   len(regions),
		},
	})
}

func (s *DebugServer) handleRegion(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	z, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Координаты региона должны быть целыми числами",
		})
		return
	}

	coord := world.RegionCoord{X: x, Z: z}
	store, ok := s.world.GetRegion(coord)
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Регион %s не активен", coord),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сводка региона",
		Data:    store.Summary(),
	})
}

func (s *DebugServer) handleProcess(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Метрики процесса",
		Data:    s.metrics.Snapshot(),
	})
}

// Run слушает порт до отмены ctx, затем корректно останавливает сервер
func (s *DebugServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("отладочный сервер: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve обслуживает соединения на lis до отмены ctx
func (s *DebugServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("🌐 отладочный сервер слушает %s", lis.Addr())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("остановка отладочного сервера: %w", err)
	}
	s.logger.Info("🛑 отладочный сервер остановлен")
	return nil
}
