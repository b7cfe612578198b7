package core

import (
	"context"
	"fmt"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/hosting"
	"github.com/gocrud/ioc/logging"
)

// HostedServiceFactory 在 Context 构建完成后创建托管服务
type HostedServiceFactory func(ctx *di.Context) (hosting.HostedService, error)

// Runtime 应用运行时：配置、日志、注册表与生命周期的状态容器。
// 各 configure 模块以 Option 的形式修改它。
type Runtime struct {
	// Config 当前配置，WithConfiguration 会替换它
	Config config.Configuration

	// Logger 应用日志，WithLogging 会替换它
	Logger logging.Logger

	// Registry 依赖注入注册表
	Registry *di.Registry

	// Lifecycle 启动与停止钩子
	Lifecycle *Lifecycle

	// Features 构建期特性（各模块的 Builder）
	Features FeatureCollection

	configBuilder *config.ConfigurationBuilder
	hosted        []HostedServiceFactory
}

// NewRuntime 创建运行时：空配置、控制台日志、空注册表
func NewRuntime() *Runtime {
	logger := logging.NewLogger()
	builder := config.NewConfigurationBuilder()
	cfg, _ := builder.Build()

	return &Runtime{
		Config:        cfg,
		Logger:        logger,
		Registry:      di.NewRegistry(di.WithLogger(logger)),
		Lifecycle:     NewLifecycle(),
		configBuilder: builder,
	}
}

// Apply 依次应用 Option
func (rt *Runtime) Apply(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(rt); err != nil {
			return err
		}
	}
	return nil
}

// AddHostedService 注册托管服务工厂，Build 时按注册顺序调用
func (rt *Runtime) AddHostedService(factory HostedServiceFactory) {
	rt.hosted = append(rt.hosted, factory)
}

// Build 绑定运行时自身的组件（config.Configuration 与 logging.Logger），
// 校验依赖图并创建全部托管服务。
func (rt *Runtime) Build() (*di.Context, []hosting.HostedService, error) {
	if err := di.Provide[config.Configuration](rt.Registry, rt.Config); err != nil {
		return nil, nil, err
	}
	if err := di.Provide[logging.Logger](rt.Registry, rt.Logger); err != nil {
		return nil, nil, err
	}

	ctx, err := rt.Registry.Context()
	if err != nil {
		return nil, nil, err
	}

	services := make([]hosting.HostedService, 0, len(rt.hosted))
	for i, factory := range rt.hosted {
		svc, err := factory(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("core: 创建托管服务 #%d 失败: %w", i+1, err)
		}
		services = append(services, svc)
	}

	rt.Logger.Debug("运行时构建完成",
		logging.Field{Key: "bindings", Value: len(ctx.Refs())},
		logging.Field{Key: "hosted", Value: len(services)},
	)
	return ctx, services, nil
}

func (rt *Runtime) useLoggerFactory(factory logging.LoggerFactory) {
	rt.Logger = factory.CreateLogger("app")
	rt.Registry.SetLogger(rt.Logger)
	rt.Lifecycle.OnStop(func(context.Context) error {
		return factory.Close()
	})
}
