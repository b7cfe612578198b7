package di

import (
	"fmt"
	"reflect"
	"sync"
)

// Strategy 组件的构造策略
type Strategy interface {
	// Provide 通过 Context 解析依赖并返回实例
	Provide(c *Context) (any, error)
	// Dependencies 返回构造时需要的全部引用，用于图校验
	Dependencies() []Ref
}

// Scope 组件的生命周期
type Scope int

const (
	// ScopeTransient 每次解析都创建新实例（默认）
	ScopeTransient Scope = iota
	// ScopeSingleton 首次解析时创建，之后返回同一实例
	ScopeSingleton
)

func (s Scope) String() string {
	switch s {
	case ScopeTransient:
		return "transient"
	case ScopeSingleton:
		return "singleton"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope 解析作用域名称，空字符串视为 transient
func ParseScope(name string) (Scope, error) {
	switch name {
	case "", "transient":
		return ScopeTransient, nil
	case "singleton":
		return ScopeSingleton, nil
	default:
		return ScopeTransient, fmt.Errorf("di: 未知的作用域 %q", name)
	}
}

// instanceStrategy 固定实例
type instanceStrategy struct {
	value any
}

func (s instanceStrategy) Provide(*Context) (any, error) {
	return s.value, nil
}

func (s instanceStrategy) Dependencies() []Ref {
	return nil
}

// singletonStrategy 记忆化首次构造的结果（包括失败）
type singletonStrategy struct {
	inner Strategy
	once  sync.Once
	value any
	err   error
}

// Singleton 包装 inner，使其只构造一次。并发安全。
func Singleton(inner Strategy) Strategy {
	return &singletonStrategy{inner: inner}
}

// Provide 在首次调用时构造实例。构造过程中经由延迟句柄再次解析自身时
// 返回 ConstructionError，而不是在 sync.Once 上死锁。
func (s *singletonStrategy) Provide(c *Context) (any, error) {
	if c.constructing(s) {
		return nil, &ConstructionError{Type: strategyType(s.inner), Point: "singleton", Err: ErrReentrantSingleton}
	}
	s.once.Do(func() {
		inner, done := c.enter(s)
		defer done()
		s.value, s.err = s.inner.Provide(inner)
	})
	return s.value, s.err
}

func (s *singletonStrategy) Dependencies() []Ref {
	return s.inner.Dependencies()
}

func strategyType(s Strategy) reflect.Type {
	if d, ok := s.(*Descriptor); ok {
		return d.spec.Type
	}
	return nil
}
