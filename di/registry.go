package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/ioc/logging"
)

// Registry 绑定注册表：把组件引用映射到构造策略。
//
// 使用方式是先注册、后构建：全部绑定完成后调用 Context()，
// 它会校验依赖图的完整性与无环性，并返回一个只读的 Context。
//
// 示例：
//
//	r := di.NewRegistry()
//	_ = r.BindInstance(di.RefOf[*gorm.DB](), db, di.WithName("master"))
//	_ = r.Bind(di.RefOf[UserService](), UserServiceSpec)
//
//	ctx, err := r.Context()
//	svc, err := di.Resolve[UserService](ctx)
type Registry struct {
	mu          sync.RWMutex
	table       *typeTable
	descriptors map[*TypeSpec]*Descriptor
	bindings    map[Ref]Strategy
	order       []Ref
	logger      logging.Logger
}

// NewRegistry 创建一个空的注册表
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		table:       newTypeTable(),
		descriptors: make(map[*TypeSpec]*Descriptor),
		bindings:    make(map[Ref]Strategy),
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BindInstance 把 ref 绑定到固定实例。
// instance 必须可以赋值给 ref 的类型。
func (r *Registry) BindInstance(ref Ref, instance any, opts ...BindOption) error {
	o := collectBindOptions(opts)
	keys, err := bindingKeys(ref, o)
	if err != nil {
		return r.reject(ref, err)
	}

	if instance == nil {
		switch ref.Type().Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		default:
			return r.reject(ref, malformed(ref.Type(), "nil 不能绑定到 %v", ref.Type()))
		}
	} else if t := reflect.TypeOf(instance); !t.AssignableTo(ref.Type()) {
		return r.reject(ref, malformed(t, "实例不能赋值给 %v", ref.Type()))
	}

	r.store(keys, instanceStrategy{value: instance}, fmt.Sprintf("%T", instance))
	return nil
}

// Bind 把 ref 绑定到 spec 描述的实现类型。
// 描述在这里被内省为 Descriptor，非法组件会立即返回 MalformedComponentError。
func (r *Registry) Bind(ref Ref, spec *TypeSpec, opts ...BindOption) error {
	o := collectBindOptions(opts)
	keys, err := bindingKeys(ref, o)
	if err != nil {
		return r.reject(ref, err)
	}

	r.mu.Lock()
	desc, err := r.describe(spec)
	r.mu.Unlock()
	if err != nil {
		return r.reject(ref, err)
	}

	if impl := spec.InstanceType(); !impl.AssignableTo(ref.Type()) {
		return r.reject(ref, malformed(spec.Type, "%v 不能赋值给 %v", impl, ref.Type()))
	}

	var strategy Strategy = desc
	if o.scope == ScopeSingleton {
		strategy = Singleton(desc)
	}
	r.store(keys, strategy, spec.String())
	return nil
}

// BindStrategy 用自定义的构造策略绑定 ref
func (r *Registry) BindStrategy(ref Ref, strategy Strategy, opts ...BindOption) error {
	o := collectBindOptions(opts)
	keys, err := bindingKeys(ref, o)
	if err != nil {
		return r.reject(ref, err)
	}
	if strategy == nil {
		return r.reject(ref, malformed(ref.Type(), "构造策略为空"))
	}
	if o.scope == ScopeSingleton {
		strategy = Singleton(strategy)
	}
	r.store(keys, strategy, fmt.Sprintf("%T", strategy))
	return nil
}

// Describe 返回 spec 的注入描述（带缓存）
func (r *Registry) Describe(spec *TypeSpec) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.describe(spec)
}

func (r *Registry) describe(spec *TypeSpec) (*Descriptor, error) {
	if desc, ok := r.descriptors[spec]; ok {
		return desc, nil
	}
	desc, err := newDescriptor(r.table, spec)
	if err != nil {
		return nil, err
	}
	r.descriptors[spec] = desc
	return desc, nil
}

// SetLogger 替换日志记录器
func (r *Registry) SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger.WithCategory("di")
}

// Contains 判断 ref（直接形式）是否已绑定
func (r *Registry) Contains(ref Ref) bool {
	if checkQualifier(ref.Qualifier()) != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[ref.Plain()]
	return ok
}

// Refs 按注册顺序返回全部已绑定的引用
func (r *Registry) Refs() []Ref {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Ref(nil), r.order...)
}

// Context 校验当前全部绑定并返回 Context。
//
// 返回的 Context 基于调用时的绑定快照，之后对 Registry 的修改不会影响它。
// 依赖缺失时返回 MissingDependencyError，存在非延迟的循环依赖时返回 CyclicDependencyError。
func (r *Registry) Context() (*Context, error) {
	r.mu.RLock()
	bindings := make(map[Ref]Strategy, len(r.bindings))
	for k, v := range r.bindings {
		bindings[k] = v
	}
	order := append([]Ref(nil), r.order...)
	logger := r.logger
	r.mu.RUnlock()

	if err := newGraphValidator(bindings).validate(order); err != nil {
		logger.Warn("依赖图校验失败", logging.Field{Key: "error", Value: err})
		return nil, err
	}

	logger.Debug("依赖图校验通过", logging.Field{Key: "bindings", Value: len(order)})
	return &Context{bindings: bindings}, nil
}

func (r *Registry) store(keys []Ref, strategy Strategy, impl string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		if _, exists := r.bindings[key]; !exists {
			r.order = append(r.order, key)
		}
		r.bindings[key] = strategy
		r.logger.Debug("组件已绑定",
			logging.Field{Key: "ref", Value: key.String()},
			logging.Field{Key: "impl", Value: impl},
		)
	}
}

func (r *Registry) reject(ref Ref, err error) error {
	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()

	logger.Warn("绑定失败",
		logging.Field{Key: "ref", Value: ref.String()},
		logging.Field{Key: "error", Value: err},
	)
	return err
}

func collectBindOptions(opts []BindOption) *bindOptions {
	o := &bindOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// bindingKeys 计算绑定要注册的键。绑定总是注册在引用的直接形式上。
func bindingKeys(ref Ref, o *bindOptions) ([]Ref, error) {
	if ref.IsZero() {
		return nil, malformed(nil, "引用为空")
	}
	ref = ref.Plain()

	if len(o.qualifiers) == 0 {
		if err := checkQualifier(ref.Qualifier()); err != nil {
			return nil, &MalformedComponentError{Type: ref.Type(), Reason: "非法限定符", Err: err}
		}
		return []Ref{ref}, nil
	}

	keys := make([]Ref, 0, len(o.qualifiers))
	for _, q := range o.qualifiers {
		if q == nil {
			return nil, malformed(ref.Type(), "限定符为空")
		}
		if err := checkQualifier(q); err != nil {
			return nil, &MalformedComponentError{Type: ref.Type(), Reason: "非法限定符", Err: err}
		}
		keys = append(keys, ref.With(q))
	}
	return keys, nil
}

// Provide 将实例绑定为 T
func Provide[T any](r *Registry, instance T, opts ...BindOption) error {
	return r.BindInstance(RefOf[T](), instance, opts...)
}

// BindTo 将 T 绑定到 spec 描述的实现类型
func BindTo[T any](r *Registry, spec *TypeSpec, opts ...BindOption) error {
	return r.Bind(RefOf[T](), spec, opts...)
}
