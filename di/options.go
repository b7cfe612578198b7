package di

import "github.com/gocrud/ioc/logging"

// BindOption 配置一次绑定
type BindOption func(*bindOptions)

type bindOptions struct {
	qualifiers []Qualifier
	scope      Scope
}

// WithQualifiers 在每个限定符下各注册一次绑定（共享同一个构造策略）
func WithQualifiers(qualifiers ...Qualifier) BindOption {
	return func(o *bindOptions) {
		o.qualifiers = append(o.qualifiers, qualifiers...)
	}
}

// WithName 等价于 WithQualifiers(Named(name))
func WithName(name string) BindOption {
	return WithQualifiers(Named(name))
}

// WithScope 设置生命周期
func WithScope(scope Scope) BindOption {
	return func(o *bindOptions) {
		o.scope = scope
	}
}

// WithSingleton 将生命周期设置为 Singleton
func WithSingleton() BindOption {
	return WithScope(ScopeSingleton)
}

// WithTransient 将生命周期设置为 Transient（默认）
func WithTransient() BindOption {
	return WithScope(ScopeTransient)
}

// RegistryOption 配置 Registry
type RegistryOption func(*Registry)

// WithLogger 设置 Registry 使用的日志记录器
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger.WithCategory("di")
		}
	}
}
