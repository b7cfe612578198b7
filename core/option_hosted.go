package core

import (
	"context"
	"fmt"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/hosting"
)

// WithHostedService 注册托管服务实例
func WithHostedService(service hosting.HostedService) Option {
	return func(rt *Runtime) error {
		if service == nil {
			return fmt.Errorf("core: 托管服务为空")
		}
		rt.AddHostedService(func(*di.Context) (hosting.HostedService, error) {
			return service, nil
		})
		return nil
	}
}

// WithHostedComponent 把 ref 绑定的组件作为托管服务。
// 组件在 Build 时从 Context 解析，必须实现 hosting.HostedService。
func WithHostedComponent(ref di.Ref) Option {
	return func(rt *Runtime) error {
		rt.AddHostedService(func(ctx *di.Context) (hosting.HostedService, error) {
			val, ok, err := ctx.Get(ref)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("core: 托管组件 %v 未绑定: %w", ref, di.ErrNotBound)
			}
			svc, ok := val.(hosting.HostedService)
			if !ok {
				return nil, fmt.Errorf("core: %T 没有实现 hosting.HostedService", val)
			}
			return svc, nil
		})
		return nil
	}
}

// WithWorker 注册一个函数形式的托管服务，run 应阻塞直到 ctx 结束
func WithWorker(name string, run func(ctx context.Context, c *di.Context) error) Option {
	return func(rt *Runtime) error {
		rt.AddHostedService(func(c *di.Context) (hosting.HostedService, error) {
			return hosting.NewFunc(name, func(ctx context.Context) error {
				return run(ctx, c)
			}, nil), nil
		})
		return nil
	}
}
