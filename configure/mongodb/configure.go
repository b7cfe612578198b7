package mongodb

import (
	"context"
	"fmt"

	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/gocrud/ioc/configure/internal/named"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
)

// Configure 返回 MongoDB 配置选项。
// 每个客户端以 di.Named(name) 绑定为 *mongo.Client 与 *mgo.Client，
// "default" 同时以无限定符形式绑定。*mgo.Client 在首次解析时才连接。
func Configure(configure func(*Builder)) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder(rt.Config)
		if configure != nil {
			configure(builder)
		}

		logger := rt.Logger.WithCategory("mongodb")
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
		err = named.BindFunc(rt.Registry, factory.Names(), func(name string) (*mgo.Client, error) {
			return factory.Mgo(context.Background(), name)
		})
		if err != nil {
			return err
		}

		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			for _, opts := range configs {
				if !opts.PingOnStart {
					continue
				}
				client, err := factory.Get(opts.Name)
				if err != nil {
					return err
				}
				pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
				err = client.Ping(pingCtx, readpref.Primary())
				cancel()
				if err != nil {
					return fmt.Errorf("failed to connect to mongo '%s': %w", opts.Name, err)
				}
			}
			return nil
		})
		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			logger.Info("disconnecting mongo clients")
			return factory.Close(ctx)
		})
		return nil
	}
}
