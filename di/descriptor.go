package di

import (
	"errors"
	"fmt"
	"reflect"
)

type fieldPoint struct {
	level int
	spec  *FieldSpec
}

type methodPoint struct {
	level int
	spec  *MethodSpec
}

// Descriptor 一个具体类型的注入描述：选定的构造函数、字段注入点和方法注入点。
//
// Descriptor 在绑定时由 TypeSpec 计算一次并缓存，之后不再变化。
// 它同时实现了 Strategy，可以直接作为绑定的构造策略。
type Descriptor struct {
	spec    *TypeSpec
	levels  []*TypeSpec // levels[0] 为具体类型，之后依次为祖先
	ctor    *ConstructorSpec
	fields  []fieldPoint
	methods []methodPoint
	depth   int // 需要计算的父层视图数量
}

func newDescriptor(table *typeTable, spec *TypeSpec) (*Descriptor, error) {
	if spec == nil || spec.Type == nil {
		return nil, malformed(nil, "类型描述为空")
	}

	switch {
	case spec.Kind == KindAbstract:
		return nil, malformed(spec.Type, "抽象类型不能被构造")
	case spec.Kind == KindInterface || spec.Type.Kind() == reflect.Interface:
		return nil, malformed(spec.Type, "接口类型不能被构造")
	case spec.Type.Kind() != reflect.Struct:
		return nil, malformed(spec.Type, "仅支持结构体类型")
	}

	idx, err := table.add(spec)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{spec: spec, levels: table.lineage(idx)}
	for i, level := range d.levels {
		if level.err != nil {
			return nil, &MalformedComponentError{Type: level.Type, Reason: "类型描述无效", Err: level.err}
		}
		if i < len(d.levels)-1 && level.Upcast == nil {
			return nil, malformed(spec.Type, "%v 没有提供访问父类型 %v 的方式", level, level.Parent)
		}
	}

	if d.ctor, err = selectConstructor(spec); err != nil {
		return nil, err
	}
	if err := d.collectFields(); err != nil {
		return nil, err
	}
	if err := d.collectMethods(); err != nil {
		return nil, err
	}

	for _, ref := range d.Dependencies() {
		if ref.IsZero() {
			return nil, malformed(spec.Type, "依赖引用为空")
		}
		if err := checkQualifier(ref.Qualifier()); err != nil {
			return nil, &MalformedComponentError{Type: spec.Type, Reason: "非法限定符", Err: err}
		}
	}
	return d, nil
}

// selectConstructor 选择构造函数：
// 唯一的注入构造函数 > 无参构造函数 > 隐式的 new(T)（未声明任何构造函数时）
func selectConstructor(spec *TypeSpec) (*ConstructorSpec, error) {
	var marked []*ConstructorSpec
	for i := range spec.Constructors {
		if spec.Constructors[i].Marked {
			marked = append(marked, &spec.Constructors[i])
		}
	}

	var selected *ConstructorSpec
	switch {
	case len(marked) > 1:
		return nil, malformed(spec.Type, "声明了 %d 个注入构造函数", len(marked))
	case len(marked) == 1:
		selected = marked[0]
	case len(spec.Constructors) == 0:
		return nil, nil
	default:
		for i := range spec.Constructors {
			if len(spec.Constructors[i].Params) == 0 {
				selected = &spec.Constructors[i]
				break
			}
		}
		if selected == nil {
			return nil, malformed(spec.Type, "没有注入构造函数，也没有无参构造函数")
		}
	}

	if selected.New == nil {
		return nil, malformed(spec.Type, "构造函数缺少实现")
	}
	return selected, nil
}

func (d *Descriptor) collectFields() error {
	for level, s := range d.levels {
		for i := range s.Fields {
			f := &s.Fields[i]
			if !f.Marked {
				continue
			}
			if f.Immutable || f.Set == nil {
				return malformed(d.spec.Type, "注入字段 %s.%s 不可变", s, f.Name)
			}
			d.fields = append(d.fields, fieldPoint{level: level, spec: f})
			d.depth = max(d.depth, level)
		}
	}
	return nil
}

// collectMethods 从具体类型向祖先收集注入方法，并处理覆盖：
// 已被更具体的注入方法覆盖的跳过；被更具体的未标记方法覆盖的不再调用。
// 结果按祖先在前、同层按声明顺序执行。
func (d *Descriptor) collectMethods() error {
	var collected []methodPoint
	for level, s := range d.levels {
		for i := range s.Methods {
			m := &s.Methods[i]
			if !m.Marked || d.overridden(collected, level, m) {
				continue
			}
			if len(m.TypeParams) > 0 {
				return malformed(d.spec.Type, "注入方法 %s.%s 声明了类型参数 %v", s, m.Name, m.TypeParams)
			}
			if m.Call == nil {
				return malformed(d.spec.Type, "注入方法 %s.%s 缺少实现", s, m.Name)
			}
			collected = append(collected, methodPoint{level: level, spec: m})
			d.depth = max(d.depth, level)
		}
	}

	// 按层倒序拼接，同一层内保持声明顺序
	d.methods = make([]methodPoint, 0, len(collected))
	for level := len(d.levels) - 1; level >= 0; level-- {
		for _, m := range collected {
			if m.level == level {
				d.methods = append(d.methods, m)
			}
		}
	}
	return nil
}

func (d *Descriptor) overridden(collected []methodPoint, level int, m *MethodSpec) bool {
	for _, c := range collected {
		if c.spec.sameSignature(m) {
			return true
		}
	}
	for _, s := range d.levels[:level] {
		for i := range s.Methods {
			if !s.Methods[i].Marked && s.Methods[i].sameSignature(m) {
				return true
			}
		}
	}
	return false
}

// Spec 返回描述对应的类型描述
func (d *Descriptor) Spec() *TypeSpec {
	return d.spec
}

// Dependencies 返回全部依赖：构造函数参数、字段、方法参数（按此顺序）
func (d *Descriptor) Dependencies() []Ref {
	var refs []Ref
	if d.ctor != nil {
		refs = append(refs, d.ctor.Params...)
	}
	for _, f := range d.fields {
		refs = append(refs, f.spec.Ref)
	}
	for _, m := range d.methods {
		refs = append(refs, m.spec.Params...)
	}
	return refs
}

// Provide 构造实例：调用构造函数，注入字段，再按祖先在前的顺序调用注入方法
func (d *Descriptor) Provide(c *Context) (any, error) {
	var instance any
	if d.ctor == nil {
		instance = reflect.New(d.spec.Type).Interface()
	} else {
		args, err := d.resolveAll(c, "constructor", d.ctor.Params)
		if err != nil {
			return nil, err
		}
		err = d.guard("constructor", func() (err error) {
			instance, err = d.ctor.New(args)
			return err
		})
		if err != nil {
			return nil, err
		}
		if instance == nil {
			return nil, d.fail("constructor", fmt.Errorf("构造函数返回了 nil"))
		}
	}

	views, err := d.views(instance)
	if err != nil {
		return nil, err
	}

	for _, f := range d.fields {
		point := "field " + f.spec.Name
		val, err := d.resolve(c, point, f.spec.Ref)
		if err != nil {
			return nil, err
		}
		if err := d.guard(point, func() error { return f.spec.Set(views[f.level], val) }); err != nil {
			return nil, err
		}
	}

	for _, m := range d.methods {
		point := "method " + m.spec.Name
		args, err := d.resolveAll(c, point, m.spec.Params)
		if err != nil {
			return nil, err
		}
		if err := d.guard(point, func() error { return m.spec.Call(views[m.level], args) }); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// views 计算各层的视图，views[0] 为实例本身
func (d *Descriptor) views(instance any) ([]any, error) {
	views := make([]any, d.depth+1)
	views[0] = instance
	for i := 1; i <= d.depth; i++ {
		var view any
		err := d.guard("upcast", func() error {
			view = d.levels[i-1].Upcast(views[i-1])
			return nil
		})
		if err != nil {
			return nil, err
		}
		if view == nil {
			return nil, d.fail("upcast", fmt.Errorf("无法获得父类型 %v 的视图", d.levels[i]))
		}
		views[i] = view
	}
	return views, nil
}

func (d *Descriptor) resolveAll(c *Context, point string, refs []Ref) ([]any, error) {
	args := make([]any, len(refs))
	for i, ref := range refs {
		val, err := d.resolve(c, point, ref)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	return args, nil
}

func (d *Descriptor) resolve(c *Context, point string, ref Ref) (any, error) {
	val, ok, err := c.Get(ref)
	if err != nil {
		return nil, d.fail(point, err)
	}
	if !ok {
		return nil, d.fail(point, &MissingDependencyError{Component: NewRef(d.spec.InstanceType()), Dependency: ref})
	}
	return val, nil
}

// guard 执行 fn，把返回的错误或 panic 包装为 ConstructionError
func (d *Descriptor) guard(point string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = d.fail(point, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		return d.fail(point, err)
	}
	return nil
}

// fail 包装构造错误；已经是 ConstructionError 的（来自更深的依赖）原样返回
func (d *Descriptor) fail(point string, err error) error {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConstructionError{Type: d.spec.Type, Point: point, Err: err}
}
