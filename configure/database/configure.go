package database

import (
	"context"
	"sort"

	"github.com/gocrud/ioc/configure/internal/named"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
)

// Configure 返回数据库配置选项。
//
// 每个数据库以 di.Named(name) 绑定为 *gorm.DB，名为 "default" 的同时以无限定符形式绑定；
// *Factory 本身也会被绑定。连接在停止阶段关闭。
func Configure(configure func(*Builder)) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder(rt.Config)
		if configure != nil {
			configure(builder)
		}

		logger := rt.Logger.WithCategory("database")
		factory, err := builder.Build(logger)
		if err != nil || factory == nil {
			return err
		}

		if err := di.Provide[*Factory](rt.Registry, factory); err != nil {
			return err
		}
		if err := named.Bind(rt.Registry, factory.Set); err != nil {
			return err
		}

		rt.Lifecycle.OnStop(func(context.Context) error {
			logger.Info("closing database connections")
			return factory.Close()
		})
		return nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
