package di

import (
	"fmt"
	"reflect"
)

// invoke 通过反射调用函数，并统一处理 panic 与末尾的 error 返回值。
// 返回去掉末尾 error 之后的结果。
func invoke(fn reflect.Value, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
		}
	}()

	results = fn.Call(args)

	// 检查最后一个返回值是否为 error
	if n := len(results); n > 0 && results[n-1].Type() == errorType {
		last := results[n-1]
		results = results[:n-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}
	return results, nil
}

// adaptArgs 将解析出的依赖转换为函数参数，offset 用于跳过方法接收者
func adaptArgs(fnType reflect.Type, offset int, args []any) ([]reflect.Value, error) {
	if len(args) != fnType.NumIn()-offset {
		return nil, fmt.Errorf("参数数量不匹配: 期望 %d，得到 %d", fnType.NumIn()-offset, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := adaptValue(arg, fnType.In(i+offset))
		if err != nil {
			return nil, fmt.Errorf("参数 %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

// paramRefs 计算函数参数对应的组件引用。
// explicit 为空时根据参数类型推断；否则逐个校验显式引用与参数类型是否兼容。
func paramRefs(fnType reflect.Type, offset int, explicit []Ref) ([]Ref, error) {
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("不支持可变参数函数 %v", fnType)
	}

	n := fnType.NumIn() - offset
	refs := make([]Ref, n)

	if len(explicit) == 0 {
		for i := 0; i < n; i++ {
			refs[i] = refFromType(fnType.In(i + offset))
		}
		return refs, nil
	}

	if len(explicit) != n {
		return nil, fmt.Errorf("显式引用数量 %d 与参数数量 %d 不一致", len(explicit), n)
	}
	for i, ref := range explicit {
		if err := compatible(ref, fnType.In(i+offset)); err != nil {
			return nil, fmt.Errorf("参数 %d: %w", i, err)
		}
		refs[i] = ref
	}
	return refs, nil
}

// compatible 校验引用解析出的值能否赋值给注入点的声明类型
func compatible(ref Ref, target reflect.Type) error {
	if ref.IsZero() {
		return fmt.Errorf("引用为空")
	}
	if ref.IsDeferred() {
		if target == lazyType {
			return nil
		}
		if isDeferredHandle(target) && refFromType(target).Type() == ref.Type() {
			return nil
		}
		return fmt.Errorf("延迟引用 %v 需要 Provider[%v] 或 di.Lazy，得到 %v", ref, ref.Type(), target)
	}
	if !ref.Type().AssignableTo(target) {
		return fmt.Errorf("%v 不能赋值给 %v", ref.Type(), target)
	}
	return nil
}
