package web

import (
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/hosting"
)

// Configure 返回 Web 配置选项。
//
// 同一 Runtime 上多次调用共享同一个 Builder，只会创建一个主机。
// 控制器在 Runtime.Build 时从 Context 解析，未绑定的控制器会让构建失败。
func Configure(configure func(*Builder)) core.Option {
	return func(rt *core.Runtime) error {
		builder, created := core.FeatureOrCreate(rt, func() *Builder {
			return NewBuilder(rt.Config, rt.Registry)
		})
		if created {
			builder.Use(RequestLogger(rt.Logger.WithCategory("web")))
		}
		if configure != nil {
			configure(builder)
		}
		if !created {
			return nil
		}

		rt.AddHostedService(func(ctx *di.Context) (hosting.HostedService, error) {
			host, err := builder.Build(ctx)
			if err != nil {
				return nil, err
			}
			host.logger = rt.Logger.WithCategory("web")
			rt.Features.Set(host)
			return host, nil
		})
		return nil
	}
}
