package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/extpoint"
	"github.com/BaSui01/extpoint/config"
	"github.com/BaSui01/extpoint/internal/metrics"
	"github.com/BaSui01/extpoint/internal/server"
	"github.com/BaSui01/extpoint/internal/telemetry"
)

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func newServeCmd(catalog *extpoint.Catalog) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// 加载配置
			loader := config.NewLoader()
			if configPath != "" {
				loader = loader.WithConfigPath(configPath)
			}
			cfg, err := loader.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// 验证配置
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			// 初始化日志
			logger := initLogger(cfg.Log)
			defer func() { _ = logger.Sync() }()

			logger.Info("Starting extpoint",
				zap.String("version", Version),
				zap.String("build_time", BuildTime),
				zap.String("git_commit", GitCommit),
			)

			attachCatalogLogger(catalog, cfg.Log, logger)

			// Initialize OpenTelemetry
			otelProviders, err := telemetry.Init(cfg.Telemetry, catalog.Snapshot(), logger)
			if err != nil {
				logger.Warn("failed to initialize telemetry", zap.Error(err))
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := otelProviders.Shutdown(ctx); err != nil {
					logger.Warn("telemetry shutdown error", zap.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			telemetry.RecordCatalog(ctx, nil, catalog.Snapshot())

			if err := NewServer(cfg, catalog, logger).Run(ctx); err != nil {
				return err
			}
			logger.Info("extpoint stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (YAML)")
	return cmd
}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 extpoint 的主服务器，对外提供只读的目录 API
type Server struct {
	cfg     *config.Config
	catalog *extpoint.Catalog
	logger  *zap.Logger

	// 指标
	registry         *prometheus.Registry
	metricsCollector *metrics.Collector
}

// NewServer 创建新的服务器实例。指标启用时，目录与 HTTP 指标注册到
// 服务器私有的 prometheus.Registry。
func NewServer(cfg *config.Config, catalog *extpoint.Catalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		catalog: catalog,
		logger:  logger,
	}

	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			metrics.NewCatalogCollector(cfg.Metrics.Namespace, catalog),
		)
		s.metricsCollector = metrics.NewCollector(cfg.Metrics.Namespace, s.registry, logger)
	}

	return s
}

// =============================================================================
// 🚀 运行
// =============================================================================

// Run 启动 API 与 Metrics 服务器并阻塞，直到 ctx 取消或任一服务器失败
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	apiManager := server.NewManager(s.Handler(ctx), s.serverConfig("api", s.cfg.Server.HTTPPort), s.logger)
	g.Go(func() error { return apiManager.Run(ctx) })

	if s.registry != nil {
		metricsManager := server.NewManager(s.MetricsHandler(), s.serverConfig("metrics", s.cfg.Server.MetricsPort), s.logger)
		g.Go(func() error { return metricsManager.Run(ctx) })
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("metrics_enabled", s.registry != nil),
	)

	return g.Wait()
}

// serverConfig 以 server.DefaultConfig 为基线，覆盖名称、端口与配置文件中的超时
func (s *Server) serverConfig(name string, port int) server.Config {
	cfg := server.DefaultConfig()
	cfg.Name = name
	cfg.Addr = fmt.Sprintf(":%d", port)
	cfg.ReadTimeout = s.cfg.Server.ReadTimeout
	cfg.WriteTimeout = s.cfg.Server.WriteTimeout
	cfg.IdleTimeout = 2 * s.cfg.Server.ReadTimeout // 2x ReadTimeout
	cfg.ShutdownTimeout = s.cfg.Server.ShutdownTimeout
	return cfg
}

// =============================================================================
// 🌐 HTTP 路由
// =============================================================================

// Handler 返回带中间件链的 API handler。ctx 结束时限流器的后台清理随之退出。
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /v1/catalog", s.handleCatalog)
	// 未声明的扩展点以带导入路径的类型名为名，其中含有 "/"
	mux.HandleFunc("GET /v1/catalog/{point...}", s.handlePoint)

	return Chain(mux, s.middlewares(ctx)...)
}

// middlewares 返回 API 的中间件链，从外到内。
// RequestID 在最外层，Recovery 记录的日志才带有请求 ID。
func (s *Server) middlewares(ctx context.Context) []Middleware {
	middlewares := []Middleware{
		RequestID(),
		Recovery(s.logger),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
	}
	if s.metricsCollector != nil {
		middlewares = append(middlewares, MetricsMiddleware(s.metricsCollector))
	}
	if s.cfg.Server.RateLimitRPS > 0 {
		middlewares = append(middlewares,
			RateLimiter(ctx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}
	return middlewares
}

// MetricsHandler 返回 /metrics handler；指标未启用时返回 404
func (s *Server) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	}
	return mux
}

// =============================================================================
// 🏥 Handlers
// =============================================================================

type healthResponse struct {
	Status          string `json:"status"`
	Sealed          bool   `json:"sealed"`
	ExtensionPoints int    `json:"extension_points"`
	Plugins         int    `json:"plugins"`
	Failures        int    `json:"failures"`
	Timestamp       string `json:"timestamp"`
}

// handleHealthz 目录在启动时已封存，被丢弃的注册会让状态变为 degraded，
// 但服务仍然可用
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	status := "ok"
	if len(snap.Failures) > 0 {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          status,
		Sealed:          s.catalog.Sealed(),
		ExtensionPoints: len(snap.Points),
		Plugins:         snap.PluginCount(),
		Failures:        len(snap.Failures),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})
}

// handleCatalog 返回完整快照，?tag= 可重复，按插件标签过滤
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	snap, err := filterSnapshot(s.catalog.Snapshot(), "", r.URL.Query()["tag"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePoint(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("point")
	p, ok := s.catalog.Snapshot().Point(name)
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown extension point %q", name))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
