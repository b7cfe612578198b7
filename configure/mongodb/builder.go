package mongodb

import (
	"errors"
	"fmt"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/logging"
)

// Builder MongoDB 配置构建器
type Builder struct {
	cfg     config.Configuration
	configs []Options
	errs    []error
}

// NewBuilder 创建构建器，cfg 可以为空
func NewBuilder(cfg config.Configuration) *Builder {
	return &Builder{cfg: cfg}
}

// Configuration 返回应用配置
func (b *Builder) Configuration() config.Configuration {
	return b.cfg
}

// Add 添加 MongoDB 客户端配置
func (b *Builder) Add(name string, uri string, configure func(*Options)) *Builder {
	for _, existing := range b.configs {
		if existing.Name == name {
			b.errs = append(b.errs, fmt.Errorf("mongo client '%s' already configured", name))
			return b
		}
	}

	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("invalid mongo configuration for '%s': %w", name, err))
		return b
	}

	b.configs = append(b.configs, *opts)
	return b
}

// AddFromConfig 从配置键 key 读取连接串并以 name 添加客户端
func (b *Builder) AddFromConfig(name, key string, configure func(*Options)) *Builder {
	if b.cfg == nil {
		b.errs = append(b.errs, fmt.Errorf("mongo: configuration is not available"))
		return b
	}
	return b.Add(name, b.cfg.Get(key), configure)
}

// Build 构建 MongoDB 工厂。未配置任何客户端时返回 nil。
func (b *Builder) Build(logger logging.Logger) (*Factory, []Options, error) {
	if len(b.errs) > 0 {
		return nil, nil, errors.Join(b.errs...)
	}
	if len(b.configs) == 0 {
		return nil, nil, nil
	}

	factory := NewFactory()
	for _, opts := range b.configs {
		if _, err := factory.Register(opts); err != nil {
			return nil, nil, err
		}
		logger.Info("mongo client registered", logging.Field{Key: "name", Value: opts.Name})
	}
	return factory, append([]Options(nil), b.configs...), nil
}
