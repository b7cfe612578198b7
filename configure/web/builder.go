package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/di"
)

// Controller 控制器：在主机构建时注册自己的路由
type Controller interface {
	RegisterRoutes(router gin.IRouter)
}

// Settings 配置文件中的 Web 配置
//
//	web:
//	  port: 8080
//	  mode: debug
type Settings struct {
	Port int    `json:"port"`
	Mode string `json:"mode"`
}

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	cfg         config.Configuration
	registry    *di.Registry
	port        int
	basePath    string
	engine      *gin.Engine
	controllers []di.Ref
	errs        []error
}

// NewBuilder 创建 Web 构建器。registry 用于 BindController，可以为空。
func NewBuilder(cfg config.Configuration, registry *di.Registry) *Builder {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Builder{
		cfg:      cfg,
		registry: registry,
		port:     8080,
		engine:   engine,
	}
}

// Configuration 返回应用配置
func (b *Builder) Configuration() config.Configuration {
	return b.cfg
}

// UsePort 设置端口，0 表示由系统分配
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// UseBasePath 控制器路由挂载的前缀
func (b *Builder) UseBasePath(path string) *Builder {
	b.basePath = path
	return b
}

// UseSettings 从配置节 section 读取端口与 gin 模式，配置节不存在时不做修改
func (b *Builder) UseSettings(section string) *Builder {
	if b.cfg == nil {
		b.errs = append(b.errs, fmt.Errorf("web: configuration is not available"))
		return b
	}

	settings, err := config.LoadOrDefault(b.cfg, section, Settings{Port: b.port})
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("web: failed to bind section '%s': %w", section, err))
		return b
	}
	if settings.Port > 0 {
		b.port = settings.Port
	}
	if settings.Mode != "" {
		gin.SetMode(settings.Mode)
	}
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// AddController 添加控制器引用，主机构建时从 Context 解析
func (b *Builder) AddController(refs ...di.Ref) *Builder {
	b.controllers = append(b.controllers, refs...)
	return b
}

// BindController 把 spec 绑定到它的实例类型并作为控制器添加
func (b *Builder) BindController(spec *di.TypeSpec, opts ...di.BindOption) *Builder {
	if b.registry == nil {
		b.errs = append(b.errs, fmt.Errorf("web: registry is not available"))
		return b
	}

	ref := di.NewRef(spec.InstanceType())
	if err := b.registry.Bind(ref, spec, opts...); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	return b.AddController(ref)
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// StaticFS 服务静态文件系统
func (b *Builder) StaticFS(relativePath string, fs http.FileSystem) *Builder {
	b.engine.StaticFS(relativePath, fs)
	return b
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// Engine 获取 Gin 引擎（用于高级定制）
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// Controllers 返回已添加的控制器引用
func (b *Builder) Controllers() []di.Ref {
	return append([]di.Ref(nil), b.controllers...)
}

// Build 解析全部控制器并注册路由，返回 Web 主机
func (b *Builder) Build(ctx *di.Context) (*Host, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	var router gin.IRouter = b.engine
	if b.basePath != "" {
		router = b.engine.Group(b.basePath)
	}

	for _, ref := range b.controllers {
		instance, ok, err := ctx.Get(ref)
		if err != nil {
			return nil, fmt.Errorf("web: failed to resolve controller %v: %w", ref, err)
		}
		if !ok {
			return nil, fmt.Errorf("web: controller %v: %w", ref, di.ErrNotBound)
		}

		ctrl, ok := instance.(Controller)
		if !ok {
			return nil, fmt.Errorf("web: %T does not implement web.Controller", instance)
		}
		ctrl.RegisterRoutes(router)
	}

	return newHost(b.port, b.engine), nil
}
