package core

import (
	"fmt"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// Option 配置 Runtime，按传入顺序依次应用
type Option func(rt *Runtime) error

// WithConfiguration 添加配置源并重新构建 rt.Config。
// 多次调用时配置源会累加，后添加的覆盖先添加的。
func WithConfiguration(configure func(b *config.ConfigurationBuilder)) Option {
	return func(rt *Runtime) error {
		if configure != nil {
			configure(rt.configBuilder)
		}
		cfg, err := rt.configBuilder.Build()
		if err != nil {
			return err
		}
		rt.Config = cfg
		return nil
	}
}

// WithLogging 用 configure 构建日志工厂并替换 rt.Logger。
// 工厂会在停止阶段被关闭，以刷新异步写入的日志。
func WithLogging(configure func(b *logging.LoggingBuilder)) Option {
	return func(rt *Runtime) error {
		builder := logging.NewLoggingBuilder()
		if configure != nil {
			configure(builder)
		}
		rt.useLoggerFactory(builder.Build())
		return nil
	}
}

// WithLoggingFrom 从配置节 section 读取 logging.Options 构建日志。
// 配置节不存在时使用默认的控制台输出。
//
//	logging:
//	  level: debug
//	  format: json
func WithLoggingFrom(section string) Option {
	return func(rt *Runtime) error {
		opts, err := config.LoadOrDefault(rt.Config, section, logging.Options{})
		if err != nil {
			return fmt.Errorf("core: 读取日志配置 %s 失败: %w", section, err)
		}

		builder := logging.NewLoggingBuilder()
		if err := builder.Apply(opts); err != nil {
			return err
		}
		rt.useLoggerFactory(builder.Build())
		return nil
	}
}

// WithServices 直接向注册表添加绑定
func WithServices(register func(r *di.Registry) error) Option {
	return func(rt *Runtime) error {
		return register(rt.Registry)
	}
}

// WithOptions 把配置节 section 注册为 T、config.Option[T] 与 config.OptionMonitor[T]
func WithOptions[T any](section string, opts ...di.BindOption) Option {
	return func(rt *Runtime) error {
		return config.Register[T](rt.Registry, rt.Config, section, opts...)
	}
}

// WithStartHook 注册启动钩子
func WithStartHook(fn Hook) Option {
	return func(rt *Runtime) error {
		rt.Lifecycle.OnStart(fn)
		return nil
	}
}

// WithStopHook 注册停止钩子
func WithStopHook(fn Hook) Option {
	return func(rt *Runtime) error {
		rt.Lifecycle.OnStop(fn)
		return nil
	}
}
