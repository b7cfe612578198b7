// Package ioc 是框架的入口：把配置、日志、依赖注入与托管服务组装成一个可运行的应用。
//
// 示例：
//
//	err := ioc.Run(context.Background(),
//		core.WithConfiguration(func(b *config.ConfigurationBuilder) {
//			b.AddYamlFile("config.yaml", true).AddEnvironmentVariables("APP_")
//		}),
//		core.WithLoggingFrom("logging"),
//		wiring.Configure(catalog, "bindings"),
//		web.Configure(func(b *web.Builder) { b.UseSettings("web") }),
//	)
package ioc

import "github.com/gocrud/ioc/core"

// NewRuntime 创建运行时
func NewRuntime() *core.Runtime {
	return core.NewRuntime()
}
