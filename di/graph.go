package di

type visitState int

const (
	unvisited visitState = iota
	visiting
	resolved
)

// graphValidator 校验依赖图：每个非延迟依赖都必须已绑定，且非延迟依赖之间不能成环。
// 延迟依赖只检查是否存在，不参与环检测。
type graphValidator struct {
	bindings map[Ref]Strategy
	state    map[Ref]visitState
	path     []Ref
}

func newGraphValidator(bindings map[Ref]Strategy) *graphValidator {
	return &graphValidator{
		bindings: bindings,
		state:    make(map[Ref]visitState, len(bindings)),
	}
}

// validate 按 order 的顺序对每个绑定做深度优先遍历
func (g *graphValidator) validate(order []Ref) error {
	for _, ref := range order {
		if err := g.visit(ref); err != nil {
			return err
		}
	}
	return nil
}

func (g *graphValidator) visit(ref Ref) error {
	switch g.state[ref] {
	case resolved:
		return nil
	case visiting:
		return g.cycle(ref)
	}

	g.state[ref] = visiting
	g.path = append(g.path, ref)

	for _, dep := range g.bindings[ref].Dependencies() {
		target := dep.Plain()
		if _, ok := g.bindings[target]; !ok {
			return &MissingDependencyError{Component: ref, Dependency: dep}
		}
		if dep.IsDeferred() {
			continue
		}
		if err := g.visit(target); err != nil {
			return err
		}
	}

	g.path = g.path[:len(g.path)-1]
	g.state[ref] = resolved
	return nil
}

// cycle 从路径中截取以 ref 开始的环
func (g *graphValidator) cycle(ref Ref) error {
	for i, r := range g.path {
		if r == ref {
			return &CyclicDependencyError{Components: append([]Ref(nil), g.path[i:]...)}
		}
	}
	return &CyclicDependencyError{Components: []Ref{ref}}
}
