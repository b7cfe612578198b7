package di

import (
	"fmt"
	"sync/atomic"
)

// Context 经过校验的只读解析上下文。
//
// Context 由 Registry.Context() 创建，之后不再变化，可以被多个 goroutine 同时使用。
// 每次 Get 都会按绑定的 Scope 构造实例：Transient 绑定每次得到全新的对象图。
type Context struct {
	bindings map[Ref]Strategy
	frame    *buildFrame
}

// buildFrame 记录正在构造中的单例，沿解析链向上串联
type buildFrame struct {
	strategy Strategy
	parent   *buildFrame
	active   atomic.Bool
}

// constructing 判断 strategy 是否正处于本条解析链的构造过程中
func (c *Context) constructing(strategy Strategy) bool {
	for f := c.frame; f != nil; f = f.parent {
		if f.strategy == strategy && f.active.Load() {
			return true
		}
	}
	return false
}

// enter 返回带有 strategy 构造标记的 Context，done 之后标记失效。
// 构造期间创建的延迟句柄持有该 Context，构造完成后仍可正常使用。
func (c *Context) enter(strategy Strategy) (inner *Context, done func()) {
	f := &buildFrame{strategy: strategy, parent: c.frame}
	f.active.Store(true)
	return &Context{bindings: c.bindings, frame: f}, func() { f.active.Store(false) }
}

// Get 解析 ref。
//
// ref 未绑定时 ok 为 false。延迟引用返回 Lazy 句柄，只有调用句柄时才会真正构造实例。
func (c *Context) Get(ref Ref) (val any, ok bool, err error) {
	if ref.IsZero() {
		return nil, false, nil
	}
	if err := checkQualifier(ref.Qualifier()); err != nil {
		return nil, false, &MalformedComponentError{Type: ref.Type(), Reason: "非法限定符", Err: err}
	}

	plain := ref.Plain()
	strategy, ok := c.bindings[plain]
	if !ok {
		return nil, false, nil
	}

	if ref.IsDeferred() {
		return Lazy(func() (any, error) {
			return strategy.Provide(c)
		}), true, nil
	}

	val, err = strategy.Provide(c)
	return val, true, err
}

// Contains 判断 ref 是否已绑定
func (c *Context) Contains(ref Ref) bool {
	if checkQualifier(ref.Qualifier()) != nil {
		return false
	}
	_, ok := c.bindings[ref.Plain()]
	return ok
}

// Refs 返回全部已绑定的引用（顺序不固定）
func (c *Context) Refs() []Ref {
	refs := make([]Ref, 0, len(c.bindings))
	for ref := range c.bindings {
		refs = append(refs, ref)
	}
	return refs
}

// Resolve 解析类型 T 的实例，可选一个限定符。
//
// 示例：
//
//	db, err := di.Resolve[*gorm.DB](ctx, di.Named("master"))
func Resolve[T any](c *Context, qualifier ...Qualifier) (T, error) {
	var zero T

	ref, err := qualifiedRef[T](qualifier)
	if err != nil {
		return zero, err
	}

	val, ok, err := c.Get(ref)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("%w: %v", ErrNotBound, ref)
	}
	if val == nil {
		return zero, nil
	}

	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("di: 解析结果为 %T，期望 %v", val, ref.Type())
	}
	return v, nil
}

// MustResolve 解析类型 T 的实例，失败时 panic
func MustResolve[T any](c *Context, qualifier ...Qualifier) T {
	v, err := Resolve[T](c, qualifier...)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveProvider 返回类型 T 的延迟句柄，调用 Get 时才构造实例
func ResolveProvider[T any](c *Context, qualifier ...Qualifier) (Provider[T], error) {
	ref, err := qualifiedRef[T](qualifier)
	if err != nil {
		return Provider[T]{}, err
	}

	val, ok, err := c.Get(ref.Deferred())
	if err != nil {
		return Provider[T]{}, err
	}
	if !ok {
		return Provider[T]{}, fmt.Errorf("%w: %v", ErrNotBound, ref)
	}
	return Provider[T]{lazy: val.(Lazy)}, nil
}

func qualifiedRef[T any](qualifier []Qualifier) (Ref, error) {
	ref := RefOf[T]()
	switch len(qualifier) {
	case 0:
		return ref, nil
	case 1:
		return ref.With(qualifier[0]), nil
	default:
		return Ref{}, fmt.Errorf("di: 最多只能指定一个限定符，得到 %d 个", len(qualifier))
	}
}
