package di

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"
)

// Kind 类型种类
type Kind int

const (
	// KindConcrete 可实例化的具体类型
	KindConcrete Kind = iota
	// KindAbstract 仅作为祖先使用的抽象类型，不能直接绑定
	KindAbstract
	// KindInterface 接口类型，只能作为引用出现
	KindInterface
)

func (k Kind) String() string {
	switch k {
	case KindConcrete:
		return "concrete"
	case KindAbstract:
		return "abstract"
	case KindInterface:
		return "interface"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TypeSpec 一个结构体类型的注入描述。
//
// 注入点全部显式声明，引擎不依赖结构体标签或运行时注解。
// Parent 指向被嵌入的父类型描述，Upcast 把本层实例转换为父层视图（通常是嵌入字段的地址）。
// 手工构造的 TypeSpec 与 Class[T]() 构建的 TypeSpec 等价。
type TypeSpec struct {
	Name         string
	Type         reflect.Type
	Kind         Kind
	Parent       *TypeSpec
	Upcast       func(instance any) any
	Constructors []ConstructorSpec
	Fields       []FieldSpec
	Methods      []MethodSpec

	err error
}

// InstanceType 返回构造结果的类型：结构体为 *T，接口为接口本身
func (s *TypeSpec) InstanceType() reflect.Type {
	if s.Kind == KindInterface || s.Type.Kind() == reflect.Interface {
		return s.Type
	}
	return reflect.PointerTo(s.Type)
}

func (s *TypeSpec) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprint(s.Type)
}

// ConstructorSpec 构造函数描述。Marked 为 true 表示注入构造函数。
type ConstructorSpec struct {
	Marked bool
	Params []Ref
	New    func(args []any) (any, error)
}

// FieldSpec 字段描述。Immutable 的字段在构造后不能赋值。
type FieldSpec struct {
	Name      string
	Marked    bool
	Immutable bool
	Ref       Ref
	Set       func(target any, value any) error
}

// MethodSpec 方法描述。
// 未标记的方法只用于声明覆盖关系（不会被调用）。
type MethodSpec struct {
	Name       string
	Marked     bool
	ParamTypes []reflect.Type
	TypeParams []string
	Params     []Ref
	Call       func(target any, args []any) error
}

// sameSignature 比较方法签名：名称 + 参数类型
func (m *MethodSpec) sameSignature(other *MethodSpec) bool {
	if m.Name != other.Name || len(m.ParamTypes) != len(other.ParamTypes) {
		return false
	}
	for i, t := range m.ParamTypes {
		if t != other.ParamTypes[i] {
			return false
		}
	}
	return true
}

// ClassBuilder 基于反射构建 TypeSpec
//
// 示例：
//
//	var BaseSpec = di.Class[Base]().InjectField("Logger").Spec()
//
//	var ServiceSpec = di.Class[Service]().
//		Extends(BaseSpec).
//		InjectConstructor(NewService).
//		InjectMethod("Install", di.RefOf[*gorm.DB]().With(di.Named("master"))).
//		Spec()
//
// 构建过程中的问题会被记录下来，在绑定时以 MalformedComponentError 返回。
type ClassBuilder[T any] struct {
	spec *TypeSpec
}

// Class 为类型 T 创建构建器
func Class[T any]() *ClassBuilder[T] {
	typ := TypeOf[T]()
	spec := &TypeSpec{Name: typ.String(), Type: typ}

	b := &ClassBuilder[T]{spec: spec}
	switch typ.Kind() {
	case reflect.Struct:
	case reflect.Interface:
		spec.Kind = KindInterface
	default:
		b.fail("仅支持结构体或接口类型，得到 %v", typ.Kind())
	}
	return b
}

func (b *ClassBuilder[T]) fail(format string, args ...any) {
	b.spec.err = errors.Join(b.spec.err, fmt.Errorf(format, args...))
}

// Named 设置描述名称（仅用于日志和错误信息）
func (b *ClassBuilder[T]) Named(name string) *ClassBuilder[T] {
	b.spec.Name = name
	return b
}

// Abstract 标记为抽象类型：可以作为祖先，但不能被绑定
func (b *ClassBuilder[T]) Abstract() *ClassBuilder[T] {
	b.spec.Kind = KindAbstract
	return b
}

// Extends 声明父类型。T 必须直接嵌入 parent.Type（值或指针均可）。
func (b *ClassBuilder[T]) Extends(parent *TypeSpec) *ClassBuilder[T] {
	if parent == nil {
		b.fail("父类型描述为空")
		return b
	}
	if b.spec.Type.Kind() != reflect.Struct {
		b.fail("%v 不是结构体，不能声明父类型", b.spec.Type)
		return b
	}

	for i := 0; i < b.spec.Type.NumField(); i++ {
		f := b.spec.Type.Field(i)
		if !f.Anonymous {
			continue
		}

		index := i
		switch f.Type {
		case parent.Type:
			b.spec.Parent = parent
			b.spec.Upcast = func(instance any) any {
				return embedded(instance, index).Interface()
			}
			return b
		case reflect.PointerTo(parent.Type):
			b.spec.Parent = parent
			b.spec.Upcast = func(instance any) any {
				v := embedded(instance, index).Elem()
				if v.IsNil() {
					return nil
				}
				return v.Interface()
			}
			return b
		}
	}

	b.fail("%v 没有嵌入 %v", b.spec.Type, parent.Type)
	return b
}

// ExtendsVia 声明父类型并显式提供父层视图的获取方式
func (b *ClassBuilder[T]) ExtendsVia(parent *TypeSpec, upcast func(*T) any) *ClassBuilder[T] {
	if parent == nil || upcast == nil {
		b.fail("父类型描述或转换函数为空")
		return b
	}
	b.spec.Parent = parent
	b.spec.Upcast = func(instance any) any {
		return upcast(instance.(*T))
	}
	return b
}

// Constructor 声明普通构造函数。fn 的返回值必须是 *T 或 (*T, error)。
// 只有在没有注入构造函数时，无参的普通构造函数才会被使用。
func (b *ClassBuilder[T]) Constructor(fn any, refs ...Ref) *ClassBuilder[T] {
	b.addConstructor(false, fn, refs)
	return b
}

// InjectConstructor 声明注入构造函数。refs 为空时根据参数类型推断依赖。
func (b *ClassBuilder[T]) InjectConstructor(fn any, refs ...Ref) *ClassBuilder[T] {
	b.addConstructor(true, fn, refs)
	return b
}

func (b *ClassBuilder[T]) addConstructor(marked bool, fn any, refs []Ref) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		b.fail("构造函数必须是函数，得到 %T", fn)
		return
	}

	fnType := v.Type()
	want := reflect.PointerTo(b.spec.Type)
	if b.spec.Kind == KindInterface {
		want = b.spec.Type
	}
	switch {
	case fnType.NumOut() == 1 && fnType.Out(0) == want:
	case fnType.NumOut() == 2 && fnType.Out(0) == want && fnType.Out(1) == errorType:
	default:
		b.fail("构造函数 %v 必须返回 %v 或 (%v, error)", fnType, want, want)
		return
	}

	params, err := paramRefs(fnType, 0, refs)
	if err != nil {
		b.fail("构造函数 %v: %v", fnType, err)
		return
	}

	b.spec.Constructors = append(b.spec.Constructors, ConstructorSpec{
		Marked: marked,
		Params: params,
		New: func(args []any) (any, error) {
			in, err := adaptArgs(fnType, 0, args)
			if err != nil {
				return nil, err
			}
			results, err := invoke(v, in)
			if err != nil {
				return nil, err
			}
			if results[0].IsNil() {
				return nil, fmt.Errorf("构造函数返回了 nil")
			}
			return results[0].Interface(), nil
		},
	})
}

// InjectField 声明字段注入。字段必须直接声明在 T 上；未导出字段视为不可变。
// ref 为空时根据字段类型推断。
func (b *ClassBuilder[T]) InjectField(name string, ref ...Ref) *ClassBuilder[T] {
	if b.spec.Type.Kind() != reflect.Struct {
		b.fail("%v 不是结构体，不能声明字段", b.spec.Type)
		return b
	}

	f, ok := b.spec.Type.FieldByName(name)
	if !ok || len(f.Index) != 1 {
		b.fail("字段 %s 未在 %v 上声明", name, b.spec.Type)
		return b
	}

	target := refFromType(f.Type)
	switch len(ref) {
	case 0:
	case 1:
		if err := compatible(ref[0], f.Type); err != nil {
			b.fail("字段 %s: %v", name, err)
			return b
		}
		target = ref[0]
	default:
		b.fail("字段 %s 只能指定一个引用", name)
		return b
	}

	index := f.Index[0]
	fieldType := f.Type
	b.spec.Fields = append(b.spec.Fields, FieldSpec{
		Name:      name,
		Marked:    true,
		Immutable: !f.IsExported(),
		Ref:       target,
		Set: func(instance any, value any) error {
			v, err := adaptValue(value, fieldType)
			if err != nil {
				return err
			}
			reflect.ValueOf(instance).Elem().Field(index).Set(v)
			return nil
		},
	})
	return b
}

// InjectMethod 声明方法注入。方法的返回值只能为空或 error。
// refs 为空时根据参数类型推断。
func (b *ClassBuilder[T]) InjectMethod(name string, refs ...Ref) *ClassBuilder[T] {
	m, ok := reflect.PointerTo(b.spec.Type).MethodByName(name)
	if !ok {
		b.fail("方法 %s 未在 %v 上声明", name, b.spec.Type)
		return b
	}

	fnType := m.Type
	switch {
	case fnType.NumOut() == 0:
	case fnType.NumOut() == 1 && fnType.Out(0) == errorType:
	default:
		b.fail("注入方法 %s 只能返回 error 或没有返回值", name)
		return b
	}

	params, err := paramRefs(fnType, 1, refs)
	if err != nil {
		b.fail("方法 %s: %v", name, err)
		return b
	}

	fn := m.Func
	b.spec.Methods = append(b.spec.Methods, MethodSpec{
		Name:       name,
		Marked:     true,
		ParamTypes: methodParamTypes(fnType),
		Params:     params,
		Call: func(instance any, args []any) error {
			in, err := adaptArgs(fnType, 1, args)
			if err != nil {
				return err
			}
			_, err = invoke(fn, append([]reflect.Value{reflect.ValueOf(instance)}, in...))
			return err
		},
	})
	return b
}

// Method 声明一个未标记的方法，用于覆盖祖先中的同签名注入方法（覆盖后不再调用）
func (b *ClassBuilder[T]) Method(name string) *ClassBuilder[T] {
	m, ok := reflect.PointerTo(b.spec.Type).MethodByName(name)
	if !ok {
		b.fail("方法 %s 未在 %v 上声明", name, b.spec.Type)
		return b
	}
	b.spec.Methods = append(b.spec.Methods, MethodSpec{
		Name:       name,
		ParamTypes: methodParamTypes(m.Type),
	})
	return b
}

// Spec 返回构建好的描述
func (b *ClassBuilder[T]) Spec() *TypeSpec {
	return b.spec
}

// embedded 返回指向第 index 个嵌入字段的指针。
// 嵌入的类型可能未导出，直接 Interface() 会 panic，因此按地址重新构造。
func embedded(instance any, index int) reflect.Value {
	f := reflect.ValueOf(instance).Elem().Field(index)
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr()))
}

func methodParamTypes(fnType reflect.Type) []reflect.Type {
	types := make([]reflect.Type, 0, fnType.NumIn()-1)
	for i := 1; i < fnType.NumIn(); i++ {
		types = append(types, fnType.In(i))
	}
	return types
}
