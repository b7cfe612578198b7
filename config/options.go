package config

import (
	"fmt"
	"sync"

	"github.com/gocrud/ioc/di"
)

// Option 静态配置选项：启动时绑定一次，之后不再变化
type Option[T any] interface {
	Value() T
}

// OptionMonitor 监听配置选项：总是返回最近一次重新加载后的值
type OptionMonitor[T any] interface {
	Value() T
}

// OptionsCache 配置节的缓存，配置重新加载时自动刷新
type OptionsCache[T any] struct {
	config  Configuration
	section string
	current T
	mu      sync.RWMutex
}

// NewOptionsCache 创建配置缓存。配置节不存在时返回错误。
func NewOptionsCache[T any](config Configuration, section string) (*OptionsCache[T], error) {
	cache := &OptionsCache[T]{
		config:  config,
		section: section,
	}
	if err := cache.reload(); err != nil {
		return nil, err
	}

	if rc, ok := config.(ReloadableConfiguration); ok {
		rc.OnReload(func() {
			// 重新加载失败时保留旧值
			_ = cache.reload()
		})
	}
	return cache, nil
}

func (c *OptionsCache[T]) reload() error {
	var value T
	if err := c.config.Bind(c.section, &value); err != nil {
		return err
	}

	c.mu.Lock()
	c.current = value
	c.mu.Unlock()
	return nil
}

// Get 获取当前配置值
func (c *OptionsCache[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

type option[T any] struct {
	value T
}

func (o *option[T]) Value() T {
	return o.value
}

// NewOption 创建静态配置选项
func NewOption[T any](value T) Option[T] {
	return &option[T]{value: value}
}

type optionMonitor[T any] struct {
	cache *OptionsCache[T]
}

func (o *optionMonitor[T]) Value() T {
	return o.cache.Get()
}

// NewOptionMonitor 创建监听配置选项
func NewOptionMonitor[T any](cache *OptionsCache[T]) OptionMonitor[T] {
	return &optionMonitor[T]{cache: cache}
}

// Register 把配置节 section 绑定为 T，并注册到 di 中：
// Option[T] 与 OptionMonitor[T] 注册为实例，T 本身也以值的形式注册。
//
// 示例：
//
//	if err := config.Register[ReportOptions](r, cfg, "report"); err != nil {
//		return err
//	}
func Register[T any](r *di.Registry, cfg Configuration, section string, opts ...di.BindOption) error {
	cache, err := NewOptionsCache[T](cfg, section)
	if err != nil {
		return fmt.Errorf("config: 注册配置节 %s 失败: %w", section, err)
	}

	value := cache.Get()
	if err := di.Provide[T](r, value, opts...); err != nil {
		return err
	}
	if err := di.Provide[Option[T]](r, NewOption(value), opts...); err != nil {
		return err
	}
	return di.Provide[OptionMonitor[T]](r, NewOptionMonitor(cache), opts...)
}
