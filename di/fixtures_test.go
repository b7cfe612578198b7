package di_test

import (
	"errors"

	"github.com/gocrud/ioc/di"
)

type Dependency interface {
	Name() string
}

type dependencyImpl struct {
	name string
}

func (d *dependencyImpl) Name() string { return d.name }

type Component interface {
	Dependency() Dependency
}

type ComponentWithInjectConstructor struct {
	dependency Dependency
}

func NewComponentWithInjectConstructor(dependency Dependency) *ComponentWithInjectConstructor {
	return &ComponentWithInjectConstructor{dependency: dependency}
}

func (c *ComponentWithInjectConstructor) Dependency() Dependency { return c.dependency }

var componentSpec = di.Class[ComponentWithInjectConstructor]().
	InjectConstructor(NewComponentWithInjectConstructor).
	Spec()

// 字段注入
type ComponentWithFieldInjection struct {
	Dep Dependency
}

func (c *ComponentWithFieldInjection) Dependency() Dependency { return c.Dep }

// 方法注入
type ComponentWithMethodInjection struct {
	dep   Dependency
	calls int
}

func (c *ComponentWithMethodInjection) Install(dep Dependency) {
	c.dep = dep
	c.calls++
}

func (c *ComponentWithMethodInjection) Dependency() Dependency { return c.dep }

// 继承链：Child -> Parent -> Grandparent
type Grandparent struct {
	Calls []string
	Dep   Dependency
}

func (g *Grandparent) Install(Dependency) { g.Calls = append(g.Calls, "grandparent.Install") }
func (g *Grandparent) Setup(Dependency)   { g.Calls = append(g.Calls, "grandparent.Setup") }
func (g *Grandparent) Init(Dependency)    { g.Calls = append(g.Calls, "grandparent.Init") }

type Parent struct {
	Grandparent
	Sibling Dependency
}

func (p *Parent) Setup(Dependency) { p.Calls = append(p.Calls, "parent.Setup") }

type Child struct {
	Parent
}

func (c *Child) Init(Dependency)      { c.Calls = append(c.Calls, "child.Init") }
func (c *Child) Configure(Dependency) { c.Calls = append(c.Calls, "child.Configure") }

var (
	grandparentSpec = di.Class[Grandparent]().
			InjectField("Dep").
			InjectMethod("Install").
			InjectMethod("Setup").
			InjectMethod("Init").
			Spec()

	parentSpec = di.Class[Parent]().
			Extends(grandparentSpec).
			InjectField("Sibling").
			InjectMethod("Setup").
			Spec()

	childSpec = di.Class[Child]().
			Extends(parentSpec).
			Method("Init").
			InjectMethod("Configure").
			Spec()
)

// 循环依赖
type CycleA struct{ B *CycleB }
type CycleB struct{ C *CycleC }
type CycleC struct{ A *CycleA }

func NewCycleA(b *CycleB) *CycleA { return &CycleA{B: b} }

var (
	cycleASpec = di.Class[CycleA]().InjectConstructor(NewCycleA).Spec()
	cycleBSpec = di.Class[CycleB]().InjectField("C").Spec()
	cycleCSpec = di.Class[CycleC]().InjectField("A").Spec()
)

// 通过延迟句柄打破循环
type Chicken struct{ Egg *Egg }
type Egg struct{ Chicken di.Provider[*Chicken] }

func NewChicken(egg *Egg) *Chicken { return &Chicken{Egg: egg} }

var (
	chickenSpec = di.Class[Chicken]().InjectConstructor(NewChicken).Spec()
	eggSpec     = di.Class[Egg]().InjectField("Chicken").Spec()
)

// 限定符
type Primary struct{}

func (Primary) QualifierName() string { return "@Primary" }

type tagsQualifier struct{ tags []string }

func (tagsQualifier) QualifierName() string { return "@Tags" }

// labelQualifier 类型可比较，但 label 可能装着不可哈希的值
type labelQualifier struct{ label any }

func (labelQualifier) QualifierName() string { return "@Label" }

var errBoom = errors.New("boom")
