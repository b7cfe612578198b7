package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/ioc/logging"
)

// HostedService 托管服务接口（类似于 .NET Core IHostedService）
// 框架会在独立的 goroutine 中调用 Start，服务无需自己启动 goroutine
type HostedService interface {
	// Start 启动服务。该方法应阻塞执行，直到 ctx 被取消或发生错误。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭。ctx 带有关闭超时。
	Stop(ctx context.Context) error
}

// Named 可选接口：为托管服务提供日志中使用的名称
type Named interface {
	Name() string
}

// HostedServiceManager 托管服务管理器
type HostedServiceManager struct {
	services []HostedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewHostedServiceManager 创建托管服务管理器
func NewHostedServiceManager(logger logging.Logger) *HostedServiceManager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &HostedServiceManager{
		services: make([]HostedService, 0),
		logger:   logger.WithCategory("hosting"),
	}
}

// Add 添加托管服务
func (m *HostedServiceManager) Add(services ...HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, services...)
}

// Len 返回托管服务数量
func (m *HostedServiceManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// StartAll 并发启动所有托管服务。
// 返回的通道接收服务运行中产生的错误，ctx 取消导致的退出不算错误。
func (m *HostedServiceManager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))
	m.logger.Info("启动托管服务", logging.Field{Key: "count", Value: len(m.services)})

	for i, service := range m.services {
		name := serviceName(i, service)

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()

			m.logger.Debug("托管服务启动", logging.Field{Key: "service", Value: name})
			err := start(ctx, service)
			switch {
			case err == nil:
				m.logger.Info("托管服务已完成", logging.Field{Key: "service", Value: name})
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				m.logger.Debug("托管服务随上下文结束", logging.Field{Key: "service", Value: name})
			default:
				m.logger.Error("托管服务运行失败",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err},
				)
				errCh <- fmt.Errorf("hosting: %s: %w", name, err)
			}
		}()
	}

	return errCh
}

// StopAll 倒序并发停止所有托管服务，返回全部停止错误的合并
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info("停止托管服务", logging.Field{Key: "count", Value: len(m.services)})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := len(m.services) - 1; i >= 0; i-- {
		service := m.services[i]
		name := serviceName(i, service)

		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := service.Stop(ctx); err != nil {
				m.logger.Error("托管服务停止失败",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err},
				)
				mu.Lock()
				errs = append(errs, fmt.Errorf("hosting: %s: %w", name, err))
				mu.Unlock()
				return
			}
			m.logger.Debug("托管服务已停止", logging.Field{Key: "service", Value: name})
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Wait 等待所有 Start 调用返回
func (m *HostedServiceManager) Wait() {
	m.wg.Wait()
}

func start(ctx context.Context, service HostedService) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return service.Start(ctx)
}

func serviceName(index int, service HostedService) string {
	if n, ok := service.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("#%d(%T)", index+1, service)
}

// Func 由函数构成的托管服务，stop 可以为空
type Func struct {
	name  string
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

// NewFunc 用 start/stop 函数创建托管服务
func NewFunc(name string, start, stop func(ctx context.Context) error) *Func {
	return &Func{name: name, start: start, stop: stop}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Start(ctx context.Context) error {
	if f.start == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.start(ctx)
}

func (f *Func) Stop(ctx context.Context) error {
	if f.stop == nil {
		return nil
	}
	return f.stop(ctx)
}
