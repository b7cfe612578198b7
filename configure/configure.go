// Package configure 汇总各基础设施模块的配置入口，便于在 ioc.Run 中直接使用。
//
// 示例：
//
//	ioc.Run(ctx,
//		configure.Database(func(b *database.Builder) { b.AddFromConfig("databases") }),
//		configure.Web(func(b *web.Builder) { b.UseSettings("web") }),
//	)
package configure

import (
	"github.com/gocrud/ioc/configure/cron"
	"github.com/gocrud/ioc/configure/database"
	"github.com/gocrud/ioc/configure/etcd"
	"github.com/gocrud/ioc/configure/mongodb"
	"github.com/gocrud/ioc/configure/redis"
	"github.com/gocrud/ioc/configure/web"
	"github.com/gocrud/ioc/core"
)

// Database 便捷导出数据库配置
func Database(options func(*database.Builder)) core.Option {
	return database.Configure(options)
}

// Redis 便捷导出 redis 配置
func Redis(options func(*redis.Builder)) core.Option {
	return redis.Configure(options)
}

// MongoDB 便捷导出 MongoDB 配置
func MongoDB(options func(*mongodb.Builder)) core.Option {
	return mongodb.Configure(options)
}

// Etcd 便捷导出 etcd 客户端配置
func Etcd(options func(*etcd.Builder)) core.Option {
	return etcd.Configure(options)
}

// Web 便捷导出 web 配置
func Web(options func(*web.Builder)) core.Option {
	return web.Configure(options)
}

// Cron 便捷导出 cron 配置
func Cron(options func(*cron.Builder)) core.Option {
	return cron.Configure(options)
}
