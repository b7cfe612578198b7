package core

import (
	"context"
	"errors"
	"sync"

	"github.com/gocrud/ioc/logging"
)

// Hook 生命周期钩子
type Hook func(ctx context.Context) error

// Lifecycle 管理应用程序的启动与停止钩子
type Lifecycle struct {
	onStart []Hook
	onStop  []Hook
	mu      sync.Mutex
}

// NewLifecycle 创建新的生命周期管理器
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// OnStart 注册启动钩子，按注册顺序执行
func (l *Lifecycle) OnStart(fn Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStart = append(l.onStart, fn)
}

// OnStop 注册停止钩子，按注册的相反顺序执行
func (l *Lifecycle) OnStop(fn Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStop = append(l.onStop, fn)
}

// Start 依次执行启动钩子，遇到第一个错误即返回
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	hooks := append([]Hook(nil), l.onStart...)
	l.mu.Unlock()

	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop 倒序执行停止钩子。单个钩子失败不会中断其余钩子，
// 错误会被记录并合并返回。
func (l *Lifecycle) Stop(ctx context.Context, logger logging.Logger) error {
	l.mu.Lock()
	hooks := append([]Hook(nil), l.onStop...)
	l.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			logger.Error("停止钩子执行失败", logging.Field{Key: "error", Value: err})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
