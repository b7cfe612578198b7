package di

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrMalformedComponent 实现类型无法被内省为注入描述（绑定时返回）
	ErrMalformedComponent = errors.New("di: 非法组件")
	// ErrMissingDependency 声明的依赖没有对应的绑定（构建 Context 时返回）
	ErrMissingDependency = errors.New("di: 依赖未找到")
	// ErrCyclicDependency 非延迟的依赖边形成了环（构建 Context 时返回）
	ErrCyclicDependency = errors.New("di: 循环依赖")
	// ErrConstruction 解析过程中构造函数、字段赋值或方法调用失败
	ErrConstruction = errors.New("di: 构造失败")
	// ErrNotBound 请求的引用没有绑定
	ErrNotBound = errors.New("di: 未绑定")
	// ErrReentrantSingleton 单例在构造完成前被再次解析（通常经由 Provider）
	ErrReentrantSingleton = errors.New("di: 单例在构造完成前被再次解析")
)

// MalformedComponentError 组件形状非法：构造函数不唯一或缺失、不可变注入字段、
// 泛型注入方法、抽象或接口类型、非法限定符等。
type MalformedComponentError struct {
	Type   reflect.Type
	Reason string
	Err    error
}

func (e *MalformedComponentError) Error() string {
	msg := fmt.Sprintf("di: 非法组件 %v: %s", e.Type, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedComponentError) Unwrap() error {
	return e.Err
}

func (e *MalformedComponentError) Is(target error) bool {
	return target == ErrMalformedComponent
}

func malformed(typ reflect.Type, format string, args ...any) *MalformedComponentError {
	return &MalformedComponentError{Type: typ, Reason: fmt.Sprintf(format, args...)}
}

// MissingDependencyError 依赖缺失，同时记录请求方与缺失的引用
type MissingDependencyError struct {
	Component  Ref
	Dependency Ref
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("di: %v 依赖的 %v 未绑定", e.Component, e.Dependency)
}

func (e *MissingDependencyError) Is(target error) bool {
	return target == ErrMissingDependency
}

// CyclicDependencyError 循环依赖，Components 为环上的全部参与者（按路径顺序）
type CyclicDependencyError struct {
	Components []Ref
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, 0, len(e.Components)+1)
	for _, ref := range e.Components {
		parts = append(parts, ref.String())
	}
	if len(e.Components) > 0 {
		parts = append(parts, e.Components[0].String())
	}
	return "di: 检测到循环依赖: " + strings.Join(parts, " -> ")
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// Types 返回环上参与者的类型集合（去重，保持路径顺序）
func (e *CyclicDependencyError) Types() []reflect.Type {
	seen := make(map[reflect.Type]bool, len(e.Components))
	types := make([]reflect.Type, 0, len(e.Components))
	for _, ref := range e.Components {
		if seen[ref.Type()] {
			continue
		}
		seen[ref.Type()] = true
		types = append(types, ref.Type())
	}
	return types
}

// ConstructionError 实际解析时底层调用失败（返回错误或 panic），不会重试
type ConstructionError struct {
	Type  reflect.Type
	Point string // 失败的注入点，如 "constructor"、"field Repo"、"method Install"
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("di: 构造 %v 失败 (%s): %v", e.Type, e.Point, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

// IsMalformedComponent 判断 err 是否为非法组件错误
func IsMalformedComponent(err error) bool {
	return errors.Is(err, ErrMalformedComponent)
}

// IsMissingDependency 判断 err 是否为依赖缺失错误
func IsMissingDependency(err error) bool {
	return errors.Is(err, ErrMissingDependency)
}

// IsCyclicDependency 判断 err 是否为循环依赖错误
func IsCyclicDependency(err error) bool {
	return errors.Is(err, ErrCyclicDependency)
}

// IsConstruction 判断 err 是否为构造失败错误
func IsConstruction(err error) bool {
	return errors.Is(err, ErrConstruction)
}
