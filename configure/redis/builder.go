package redis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/logging"
)

// Builder Redis 客户端配置构建器
type Builder struct {
	cfg     config.Configuration
	configs []ClientOptions
	errs    []error
}

// NewBuilder 创建 Redis 构建器，cfg 可以为空
func NewBuilder(cfg config.Configuration) *Builder {
	return &Builder{cfg: cfg}
}

// Configuration 返回应用配置
func (b *Builder) Configuration() config.Configuration {
	return b.cfg
}

// AddClient 添加一个 Redis 客户端配置
func (b *Builder) AddClient(name string, configure func(*ClientOptions)) *Builder {
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	return b.add(*opts)
}

func (b *Builder) add(opts ClientOptions) *Builder {
	if err := opts.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("invalid redis configuration for '%s': %w", opts.Name, err))
		return b
	}
	for _, existing := range b.configs {
		if existing.Name == opts.Name {
			b.errs = append(b.errs, fmt.Errorf("redis client '%s' already configured", opts.Name))
			return b
		}
	}
	b.configs = append(b.configs, opts)
	return b
}

// AddFromConfig 按配置节 section 添加客户端，每个子节对应一个名称
//
//	redis:
//	  cache:
//	    addr: localhost:6379
//	    db: 1
func (b *Builder) AddFromConfig(section string) *Builder {
	if b.cfg == nil {
		b.errs = append(b.errs, fmt.Errorf("redis: configuration is not available"))
		return b
	}

	var raw map[string]map[string]any
	if err := b.cfg.Bind(section, &raw); err != nil {
		b.errs = append(b.errs, fmt.Errorf("redis: failed to bind section '%s': %w", section, err))
		return b
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		opts := NewDefaultOptions(name)
		if err := b.cfg.Bind(section+":"+name, opts); err != nil {
			b.errs = append(b.errs, fmt.Errorf("redis client '%s': %w", name, err))
			continue
		}
		opts.Name = name
		b.add(*opts)
	}
	return b
}

// Build 构建 Redis 客户端工厂。未配置任何客户端时返回 nil。
func (b *Builder) Build(logger logging.Logger) (*Factory, []ClientOptions, error) {
	if len(b.errs) > 0 {
		return nil, nil, errors.Join(b.errs...)
	}
	if len(b.configs) == 0 {
		return nil, nil, nil
	}

	factory := NewFactory()
	for _, opts := range b.configs {
		if _, err := factory.Register(opts); err != nil {
			factory.Close()
			return nil, nil, err
		}
		logger.Info("redis client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "addr", Value: opts.Addr},
			logging.Field{Key: "db", Value: opts.DB},
		)
	}
	return factory, append([]ClientOptions(nil), b.configs...), nil
}
