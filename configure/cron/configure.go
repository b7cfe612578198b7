package cron

import (
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/hosting"
)

// Configure 返回 Cron 配置选项。
// 同一 Runtime 上多次调用共享同一个 Builder，调度服务在 Runtime.Build 时创建。
func Configure(configure func(*Builder)) core.Option {
	return func(rt *core.Runtime) error {
		builder, created := core.FeatureOrCreate(rt, NewBuilder)
		if configure != nil {
			configure(builder)
		}
		if !created {
			return nil
		}

		rt.AddHostedService(func(ctx *di.Context) (hosting.HostedService, error) {
			svc, err := builder.Build(ctx, rt.Logger.WithCategory("cron"))
			if err != nil {
				return nil, err
			}
			rt.Features.Set(svc)
			return svc, nil
		})
		return nil
	}
}
