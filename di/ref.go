package di

import (
	"fmt"
	"reflect"
)

// Qualifier 限定符，用于区分同一类型的多个绑定。
//
// 实现类型必须是可比较的（可以作为 map 的键），否则绑定时会返回 MalformedComponentError。
// 内置的 Named 满足该约定；自定义的标记限定符通常是空结构体：
//
//	type Primary struct{}
//
//	func (Primary) QualifierName() string { return "@Primary" }
type Qualifier interface {
	QualifierName() string
}

// Named 基于名称的限定符
type Named string

// QualifierName 实现 Qualifier
func (n Named) QualifierName() string {
	return fmt.Sprintf("@Named(%s)", string(n))
}

// Ref 组件引用：消费者需要的“东西”的标识。
//
// 由类型、可选限定符和间接方式（直接值或延迟句柄）组成，三者全部相等时两个引用才相等。
// Ref 是值类型，可以直接作为 map 的键。
type Ref struct {
	typ       reflect.Type
	qualifier Qualifier
	deferred  bool
}

// NewRef 根据 reflect.Type 创建未限定的直接引用
func NewRef(typ reflect.Type) Ref {
	return Ref{typ: typ}
}

// RefOf 创建类型 T 的未限定直接引用
//
// 示例：
//
//	ref := di.RefOf[UserRepository]()
//	master := di.RefOf[*gorm.DB]().With(di.Named("master"))
func RefOf[T any]() Ref {
	return Ref{typ: TypeOf[T]()}
}

// DeferredOf 创建类型 T 的延迟引用，解析结果是 Lazy 句柄而不是实例
func DeferredOf[T any]() Ref {
	return Ref{typ: TypeOf[T](), deferred: true}
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数）
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Type 返回引用的类型
func (r Ref) Type() reflect.Type {
	return r.typ
}

// Qualifier 返回引用的限定符，未限定时为 nil
func (r Ref) Qualifier() Qualifier {
	return r.qualifier
}

// IsDeferred 是否为延迟引用
func (r Ref) IsDeferred() bool {
	return r.deferred
}

// IsZero 是否为零值引用
func (r Ref) IsZero() bool {
	return r.typ == nil
}

// With 返回带有限定符 q 的引用副本；q 为 nil 时移除限定符
func (r Ref) With(q Qualifier) Ref {
	r.qualifier = q
	return r
}

// Deferred 返回延迟形式的引用副本
func (r Ref) Deferred() Ref {
	r.deferred = true
	return r
}

// Plain 返回直接形式的引用副本。绑定总是注册在直接形式上。
func (r Ref) Plain() Ref {
	r.deferred = false
	return r
}

// String 返回引用的字符串表示
func (r Ref) String() string {
	s := "<nil>"
	if r.typ != nil {
		s = r.typ.String()
	}
	if r.qualifier != nil {
		s = s + " " + r.qualifier.QualifierName()
	}
	if r.deferred {
		s = "Provider[" + s + "]"
	}
	return s
}

// checkQualifier 校验限定符约定：非空接口值的动态类型必须可比较，
// 且值本身可以作为 map 键（结构体中的接口字段可能装着切片等不可哈希的值）。
func checkQualifier(q Qualifier) (err error) {
	if q == nil {
		return nil
	}
	if !reflect.TypeOf(q).Comparable() {
		return fmt.Errorf("限定符 %T 不可比较", q)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("限定符 %T 的值不可哈希: %v", q, r)
		}
	}()
	keys := make(map[Qualifier]struct{}, 1)
	keys[q] = struct{}{}
	return nil
}
