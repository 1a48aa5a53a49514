// RiderOps 排班对账与报表服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/riderops/riderops/internal/cache"
	"github.com/riderops/riderops/internal/config"
	"github.com/riderops/riderops/internal/handler"
	"github.com/riderops/riderops/internal/metrics"
	"github.com/riderops/riderops/internal/source"
	"github.com/riderops/riderops/pkg/logger"
	"github.com/riderops/riderops/pkg/schema"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	// 打印版本信息
	fmt.Printf("RiderOps 对账引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 参照数据：合同与城市的规范名、别名及有效组合
	reference, err := config.LoadReference(cfg.Ingest.ReferencePath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Ingest.ReferencePath).Msg("参照数据加载失败")
		os.Exit(1)
	}
	if cfg.Ingest.WatchReference {
		if err := config.WatchReference(ctx, reference, cfg.Ingest.ReferencePath); err != nil {
			logger.Warn().Err(err).Msg("参照文件监听启动失败，热加载不可用")
		}
	}

	normalizer := schema.NewNormalizer(
		schema.WithCityCanonicalizer(reference.CanonicalCity),
		schema.WithContractCanonicalizer(reference.CanonicalContract),
	)

	// 花名册缓存：配置了远端地址时按需回源，否则只接受上传
	var fetcher source.RosterFetcher
	if cfg.Ingest.RosterURL != "" {
		fetcher = source.NewHTTPRosterFetcher(cfg.Ingest.RosterURL, normalizer)
	}
	rosterCache := cache.NewRosterCache(fetcher)
	shiftStore := cache.NewShiftStore()

	// 创建处理器
	ingestHandler := handler.NewIngestHandler(rosterCache, shiftStore, normalizer, cfg.Ingest.MaxUploadBytes)
	reportHandler := handler.NewReportHandler(rosterCache, shiftStore, reference, cfg.Report)
	inactiveHandler := handler.NewInactiveHandler(rosterCache, shiftStore)

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"riderops"}`))
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "RiderOps 对账引擎 API v1",
			"endpoints": {
				"ingest": {
					"shifts": "POST /api/v1/ingest/shifts",
					"roster": "POST|DELETE /api/v1/ingest/roster",
					"status": "GET /api/v1/ingest/status"
				},
				"reports": {
					"contract": "POST /api/v1/reports/contract",
					"city": "POST /api/v1/reports/city",
					"cross": "POST /api/v1/reports/cross",
					"multidate": "POST /api/v1/reports/multidate",
					"overview": "POST /api/v1/reports/overview",
					"daily": "POST /api/v1/reports/daily",
					"unassigned": "POST /api/v1/reports/unassigned",
					"pivot": "POST /api/v1/reports/pivot",
					"noshow": "POST /api/v1/reports/noshow",
					"status": "POST /api/v1/reports/status"
				},
				"inactive": {
					"check": "POST /api/v1/inactive/check"
				},
				"export": {
					"csv": "GET /api/v1/export/csv"
				}
			}
		}`))
	})

	// 数据接入 API
	mux.HandleFunc("/api/v1/ingest/shifts", ingestHandler.UploadShifts)
	mux.HandleFunc("/api/v1/ingest/roster", ingestHandler.Roster)
	mux.HandleFunc("/api/v1/ingest/status", ingestHandler.Status)

	// 报表 API
	mux.HandleFunc("/api/v1/reports/contract", reportHandler.ByContract)
	mux.HandleFunc("/api/v1/reports/city", reportHandler.ByCity)
	mux.HandleFunc("/api/v1/reports/cross", reportHandler.Cross)
	mux.HandleFunc("/api/v1/reports/multidate", reportHandler.MultiDate)
	mux.HandleFunc("/api/v1/reports/overview", reportHandler.Overview)
	mux.HandleFunc("/api/v1/reports/daily", reportHandler.Daily)
	mux.HandleFunc("/api/v1/reports/unassigned", reportHandler.Unassigned)
	mux.HandleFunc("/api/v1/reports/pivot", reportHandler.Pivot)
	mux.HandleFunc("/api/v1/reports/noshow", reportHandler.NoShow)
	mux.HandleFunc("/api/v1/reports/status", reportHandler.Status)

	// 闲置检测 API
	mux.HandleFunc("/api/v1/inactive/check", inactiveHandler.Check)

	// 导出 API
	mux.HandleFunc("/api/v1/export/csv", reportHandler.ExportCSV)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：requestID -> rateLimit -> cors -> logging -> handler
	root := requestIDMiddleware(rateLimitMiddleware(cfg.API.RateLimit, corsMiddleware(loggingMiddleware(mux))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 尝试从请求头获取 Request ID，没有则生成新的
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// 设置响应头
		w.Header().Set("X-Request-ID", requestID)

		// 将 Request ID 存储到 context 中
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, _ := r.Context().Value("request_id").(string)

		// 包装ResponseWriter以捕获状态码
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		metrics.RecordRequestMetrics(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(requestsPerSecond int, next http.Handler) http.Handler {
	limiter := NewRateLimiter(float64(requestsPerSecond))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
