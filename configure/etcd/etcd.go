package etcd

import (
	"context"
	"errors"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/gocrud/ioc/configure/internal/named"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// DefaultName 默认客户端名称
const DefaultName = named.Default

// ClientOptions etcd 客户端配置选项
type ClientOptions struct {
	Name             string
	Endpoints        []string
	DialTimeout      time.Duration
	Username         string
	Password         string
	AutoSyncInterval time.Duration
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:        name,
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("etcd client name is required")
	}
	if len(o.Endpoints) == 0 {
		return fmt.Errorf("etcd endpoints are required")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("etcd dial timeout must be positive")
	}
	return nil
}

// Factory etcd 客户端工厂
type Factory struct {
	*named.Set[*clientv3.Client]
}

// NewFactory 创建客户端工厂
func NewFactory() *Factory {
	return &Factory{Set: named.NewSet[*clientv3.Client]("etcd client")}
}

// Register 创建并保存客户端
func (f *Factory) Register(opts ClientOptions) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:        opts.Endpoints,
		DialTimeout:      opts.DialTimeout,
		Username:         opts.Username,
		Password:         opts.Password,
		AutoSyncInterval: opts.AutoSyncInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client '%s': %w", opts.Name, err)
	}
	if err := f.Put(opts.Name, client); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Close 关闭全部客户端
func (f *Factory) Close() error {
	return f.Set.Close(func(c *clientv3.Client) error { return c.Close() })
}

// Builder etcd 客户端配置构建器
type Builder struct {
	configs []ClientOptions
	errs    []error
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// AddClient 添加一个 etcd 客户端配置
func (b *Builder) AddClient(name string, configure func(*ClientOptions)) *Builder {
	for _, existing := range b.configs {
		if existing.Name == name {
			b.errs = append(b.errs, fmt.Errorf("etcd client '%s' already configured", name))
			return b
		}
	}

	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("invalid etcd configuration for '%s': %w", name, err))
		return b
	}
	b.configs = append(b.configs, *opts)
	return b
}

// Build 构建 etcd 客户端工厂。未配置任何客户端时返回 nil。
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, opts := range b.configs {
		if _, err := factory.Register(opts); err != nil {
			factory.Close()
			return nil, err
		}
		logger.Info("etcd client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "endpoints", Value: opts.Endpoints},
		)
	}
	return factory, nil
}

// Configure 返回 etcd 配置选项。
// 每个客户端以 di.Named(name) 绑定为 *clientv3.Client，"default" 同时以无限定符形式绑定。
func Configure(configure func(*Builder)) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		if configure != nil {
			configure(builder)
		}

		logger := rt.Logger.WithCategory("etcd")
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
			logger.Info("closing etcd clients")
			return factory.Close()
		})
		return nil
	}
}
