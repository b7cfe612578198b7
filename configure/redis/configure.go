package redis

import (
	"context"
	"fmt"

	"github.com/gocrud/ioc/configure/internal/named"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
)

// Configure 返回 Redis 配置选项。
//
// 每个客户端以 di.Named(name) 绑定为 *redis.Client，"default" 同时以无限定符形式绑定。
// PingOnStart 的客户端在启动阶段检查连接，全部客户端在停止阶段关闭。
func Configure(configure func(*Builder)) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder(rt.Config)
		if configure != nil {
			configure(builder)
		}

		logger := rt.Logger.WithCategory("redis")
		factory, configs, err := builder.Build(logger)
		if err != nil || factory == nil {
			return err
		}

		if err := di.Provide[*Factory](rt.Registry, factory); err != nil {
			return err
		}
		if err := named.Bind(rt.Registry, factory.Set); err != nil {
			return err
		}

		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			for _, opts := range configs {
				if !opts.PingOnStart {
					continue
				}
				if err := ping(ctx, factory, opts); err != nil {
					return err
				}
			}
			return nil
		})
		rt.Lifecycle.OnStop(func(context.Context) error {
			logger.Info("closing redis clients")
			return factory.Close()
		})
		return nil
	}
}

func ping(ctx context.Context, factory *Factory, opts ClientOptions) error {
	client, err := factory.Get(opts.Name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis '%s': %w", opts.Name, err)
	}
	return nil
}
