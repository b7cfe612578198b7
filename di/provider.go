package di

import (
	"fmt"
	"reflect"
)

// Lazy 延迟句柄：无参可调用对象，调用时才真正执行解析。
//
// 每次调用都会重新解析；是否返回同一实例由目标绑定的 Scope 决定
// （ScopeTransient 每次新建，ScopeSingleton 记忆化）。可以安全地重复、并发调用。
type Lazy func() (any, error)

// Provider 类型化的延迟句柄，用于构造函数参数、字段或方法参数。
//
// 依赖 Provider[T] 的注入点会被识别为对 T 的延迟引用，不参与循环检测，
// 因此可以用来打破构造期的循环依赖：
//
//	type Dependency struct {
//		Component di.Provider[Component]
//	}
type Provider[T any] struct {
	lazy Lazy
}

// Get 解析并返回实例
func (p Provider[T]) Get() (T, error) {
	var zero T
	if p.lazy == nil {
		return zero, fmt.Errorf("di: Provider[%v] 未初始化", TypeOf[T]())
	}

	val, err := p.lazy()
	if err != nil {
		return zero, err
	}
	if val == nil {
		return zero, nil
	}

	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("di: 解析结果为 %T，期望 %v", val, TypeOf[T]())
	}
	return v, nil
}

// MustGet 解析实例，失败时 panic
func (p Provider[T]) MustGet() T {
	v, err := p.Get()
	if err != nil {
		panic(err)
	}
	return v
}

func (Provider[T]) deferredTarget() reflect.Type {
	return TypeOf[T]()
}

func (Provider[T]) withLazy(l Lazy) any {
	return Provider[T]{lazy: l}
}

// deferredHandle 由 Provider[T] 实现，用于通过反射识别延迟注入点
type deferredHandle interface {
	deferredTarget() reflect.Type
	withLazy(l Lazy) any
}

var (
	deferredHandleType = reflect.TypeOf((*deferredHandle)(nil)).Elem()
	lazyType           = reflect.TypeOf(Lazy(nil))
	errorType          = reflect.TypeOf((*error)(nil)).Elem()
)

// refFromType 从注入点的声明类型推断组件引用：
// Provider[T] 推断为 T 的延迟引用，其余类型推断为直接引用。
func refFromType(typ reflect.Type) Ref {
	if isDeferredHandle(typ) {
		handle := reflect.Zero(typ).Interface().(deferredHandle)
		return Ref{typ: handle.deferredTarget(), deferred: true}
	}
	return Ref{typ: typ}
}

func isDeferredHandle(typ reflect.Type) bool {
	return typ.Kind() == reflect.Struct && typ.Implements(deferredHandleType)
}

// adaptValue 将解析结果转换为注入点声明类型的 reflect.Value
func adaptValue(val any, target reflect.Type) (reflect.Value, error) {
	if lazy, ok := val.(Lazy); ok {
		switch {
		case target == lazyType:
			return reflect.ValueOf(lazy), nil
		case isDeferredHandle(target):
			handle := reflect.Zero(target).Interface().(deferredHandle)
			return reflect.ValueOf(handle.withLazy(lazy)), nil
		}
		return reflect.Value{}, fmt.Errorf("延迟句柄不能赋值给 %v", target)
	}

	if val == nil {
		switch target.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("nil 不能赋值给 %v", target)
	}

	v := reflect.ValueOf(val)
	if !v.Type().AssignableTo(target) {
		return reflect.Value{}, fmt.Errorf("%v 不能赋值给 %v", v.Type(), target)
	}
	if v.Type() != target {
		// 接口赋值
		converted := reflect.New(target).Elem()
		converted.Set(v)
		return converted, nil
	}
	return v, nil
}
