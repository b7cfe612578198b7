package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/ioc/logging"
)

// Host Web 主机，实现 hosting.HostedService
type Host struct {
	port   int
	engine *gin.Engine
	server *http.Server
	logger logging.Logger
	addr   string
	mu     sync.RWMutex
}

func newHost(port int, engine *gin.Engine) *Host {
	return &Host{
		port:   port,
		engine: engine,
		server: &http.Server{Handler: engine},
		logger: logging.Discard(),
	}
}

// Name 实现 hosting.Named
func (h *Host) Name() string { return "web" }

// Handler 返回 HTTP 处理器（便于测试）
func (h *Host) Handler() http.Handler {
	return h.engine
}

// Address 返回实际监听地址，仅在 Start 后有效
func (h *Host) Address() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.addr
}

// Start 监听端口并阻塞服务，直到 Stop 或 ctx 结束
func (h *Host) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", h.port))
	if err != nil {
		return fmt.Errorf("web: failed to listen on :%d: %w", h.port, err)
	}

	h.mu.Lock()
	h.addr = ln.Addr().String()
	h.mu.Unlock()
	h.logger.Info("web host started", logging.Field{Key: "address", Value: h.Address()})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.server.Shutdown(shutdownCtx)
	}()

	if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭
func (h *Host) Stop(ctx context.Context) error {
	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("failed to shutdown web host", logging.Field{Key: "error", Value: err})
		return err
	}
	h.logger.Info("web host stopped")
	return nil
}

// RequestLogger 记录每个请求的中间件
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			logging.Field{Key: "method", Value: c.Request.Method},
			logging.Field{Key: "path", Value: c.Request.URL.Path},
			logging.Field{Key: "status", Value: c.Writer.Status()},
			logging.Field{Key: "elapsed", Value: time.Since(start).String()},
		)
	}
}
