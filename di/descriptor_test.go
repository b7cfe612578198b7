package di_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/di"
)

type twoCtors struct{ dep Dependency }

func newTwoCtorsA(dep Dependency) *twoCtors { return &twoCtors{dep: dep} }
func newTwoCtorsB(dep Dependency) *twoCtors { return &twoCtors{dep: dep} }

func TestMultipleInjectConstructorsAreMalformed(t *testing.T) {
	spec := di.Class[twoCtors]().
		InjectConstructor(newTwoCtorsA).
		InjectConstructor(newTwoCtorsB).
		Spec()

	err := di.NewRegistry().Bind(di.RefOf[*twoCtors](), spec)
	assert.True(t, di.IsMalformedComponent(err))
}

func TestConstructorWithoutInjectOrDefaultIsMalformed(t *testing.T) {
	spec := di.Class[twoCtors]().Constructor(newTwoCtorsA).Spec()

	err := di.NewRegistry().Bind(di.RefOf[*twoCtors](), spec)
	assert.True(t, di.IsMalformedComponent(err))
}

func TestZeroArgConstructorUsedWithoutInjectConstructor(t *testing.T) {
	type counter struct{ n int }

	spec := di.Class[counter]().
		Constructor(func(dep Dependency) *counter { return &counter{n: -1} }).
		Constructor(func() *counter { return &counter{n: 7} }).
		Spec()

	r := di.NewRegistry()
	require.NoError(t, r.Bind(di.RefOf[*counter](), spec))
	ctx, err := r.Context()
	require.NoError(t, err)

	assert.Equal(t, 7, di.MustResolve[*counter](ctx).n)
}

func TestImplicitConstructor(t *testing.T) {
	type plain struct{ Value int }

	r := di.NewRegistry()
	require.NoError(t, r.Bind(di.RefOf[*plain](), di.Class[plain]().Spec()))

	ctx, err := r.Context()
	require.NoError(t, err)

	p := di.MustResolve[*plain](ctx)
	assert.NotNil(t, p)
	assert.Zero(t, p.Value)
}

func TestAbstractAndInterfaceAreMalformed(t *testing.T) {
	r := di.NewRegistry()

	err := r.Bind(di.RefOf[*Grandparent](), di.Class[Grandparent]().Abstract().Spec())
	assert.True(t, di.IsMalformedComponent(err))

	err = r.Bind(di.RefOf[Component](), di.Class[Component]().Spec())
	assert.True(t, di.IsMalformedComponent(err))
}

func TestAbstractAncestorIsAllowed(t *testing.T) {
	type base struct{ Dep Dependency }
	type concrete struct{ base }

	baseSpec := di.Class[base]().Abstract().InjectField("Dep").Spec()
	spec := di.Class[concrete]().Extends(baseSpec).Spec()

	r := di.NewRegistry()
	x := &dependencyImpl{name: "x"}
	require.NoError(t, di.Provide[Dependency](r, x))
	require.NoError(t, r.Bind(di.RefOf[*concrete](), spec))

	ctx, err := r.Context()
	require.NoError(t, err)
	assert.Same(t, x, di.MustResolve[*concrete](ctx).Dep)
}

func TestImmutableFieldIsMalformed(t *testing.T) {
	type hidden struct{ dep Dependency }

	err := di.NewRegistry().Bind(di.RefOf[*hidden](), di.Class[hidden]().InjectField("dep").Spec())

	var me *di.MalformedComponentError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, di.TypeOf[hidden](), me.Type)
}

func TestTypeParameterMethodIsMalformed(t *testing.T) {
	type generic struct{}

	spec := di.Class[generic]().Spec()
	spec.Methods = append(spec.Methods, di.MethodSpec{
		Name:       "Install",
		Marked:     true,
		TypeParams: []string{"T"},
		Call:       func(any, []any) error { return nil },
	})

	err := di.NewRegistry().Bind(di.RefOf[*generic](), spec)
	assert.True(t, di.IsMalformedComponent(err))
}

func TestBuilderErrorsSurfaceAtBind(t *testing.T) {
	type plain struct{}

	cases := map[string]*di.TypeSpec{
		"unknown field":      di.Class[plain]().InjectField("Missing").Spec(),
		"unknown method":     di.Class[plain]().InjectMethod("Missing").Spec(),
		"bad constructor":    di.Class[plain]().InjectConstructor(func() plain { return plain{} }).Spec(),
		"not embedded":       di.Class[plain]().Extends(grandparentSpec).Spec(),
		"mismatched ref":     di.Class[plain]().InjectConstructor(func(Dependency) *plain { return nil }, di.RefOf[string]()).Spec(),
		"variadic":           di.Class[plain]().InjectConstructor(func(...Dependency) *plain { return nil }).Spec(),
		"constructor not fn": di.Class[plain]().InjectConstructor(42).Spec(),
	}

	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			err := di.NewRegistry().Bind(di.RefOf[*plain](), spec)
			assert.True(t, di.IsMalformedComponent(err), "got %v", err)
		})
	}
}

func TestImplementationMustBeAssignable(t *testing.T) {
	err := di.NewRegistry().Bind(di.RefOf[Dependency](), componentSpec)
	assert.True(t, di.IsMalformedComponent(err))

	err = di.NewRegistry().BindInstance(di.RefOf[Component](), &dependencyImpl{})
	assert.True(t, di.IsMalformedComponent(err))
}

func TestIllegalQualifierIsMalformed(t *testing.T) {
	r := di.NewRegistry()
	x := &dependencyImpl{name: "x"}

	err := r.BindInstance(di.RefOf[Dependency](), x, di.WithQualifiers(tagsQualifier{tags: []string{"a"}}))
	assert.True(t, di.IsMalformedComponent(err))

	err = r.BindInstance(di.RefOf[Dependency](), x, di.WithQualifiers(nil))
	assert.True(t, di.IsMalformedComponent(err))

	assert.Empty(t, r.Refs())
}

func TestUnhashableQualifierValueIsMalformed(t *testing.T) {
	r := di.NewRegistry()
	x := &dependencyImpl{name: "x"}

	var err error
	require.NotPanics(t, func() {
		err = r.BindInstance(di.RefOf[Dependency](), x, di.WithQualifiers(labelQualifier{label: []string{"x"}}))
	})
	assert.True(t, di.IsMalformedComponent(err))
	assert.Empty(t, r.Refs())

	require.NoError(t, r.BindInstance(di.RefOf[Dependency](), x, di.WithQualifiers(labelQualifier{label: "x"})))
	ctx, err := r.Context()
	require.NoError(t, err)

	got, err := di.Resolve[Dependency](ctx, labelQualifier{label: "x"})
	require.NoError(t, err)
	assert.Same(t, x, got)

	require.NotPanics(t, func() {
		_, _, err = ctx.Get(di.RefOf[Dependency]().With(labelQualifier{label: map[string]int{}}))
	})
	assert.True(t, di.IsMalformedComponent(err))
	assert.False(t, ctx.Contains(di.RefOf[Dependency]().With(labelQualifier{label: []int{1}})))
	assert.False(t, r.Contains(di.RefOf[Dependency]().With(labelQualifier{label: []int{1}})))
}

func TestDescriptorDependencies(t *testing.T) {
	r := di.NewRegistry()

	desc, err := r.Describe(childSpec)
	require.NoError(t, err)

	deps := desc.Dependencies()
	// Child.Configure, Parent.Setup, Grandparent.Install 的参数加上两个字段
	assert.Len(t, deps, 5)
	for _, dep := range deps {
		assert.Equal(t, di.RefOf[Dependency](), dep)
	}

	again, err := r.Describe(childSpec)
	require.NoError(t, err)
	assert.Same(t, desc, again)
}

func TestNilEmbeddedPointerFailsAtConstruction(t *testing.T) {
	type base struct{ Dep Dependency }
	type derived struct{ *base }

	baseSpec := di.Class[base]().InjectField("Dep").Spec()
	spec := di.Class[derived]().Extends(baseSpec).Spec()

	r := di.NewRegistry()
	require.NoError(t, di.Provide[Dependency](r, &dependencyImpl{name: "x"}))
	require.NoError(t, r.Bind(di.RefOf[*derived](), spec))

	ctx, err := r.Context()
	require.NoError(t, err)

	_, err = di.Resolve[*derived](ctx)
	assert.True(t, di.IsConstruction(err))
}
