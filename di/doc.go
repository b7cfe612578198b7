// Package di 是一个对象图解析引擎。
//
// 组件以 Ref（类型 + 可选限定符 + 是否延迟）标识。Registry 把 Ref 绑定到固定实例
// 或由 TypeSpec 描述的实现类型；TypeSpec 显式声明注入构造函数、注入字段和注入方法，
// 通过 Class[T]() 构建：
//
//	var RepositorySpec = di.Class[GormRepository]().
//		InjectField("DB", di.RefOf[*gorm.DB]().With(di.Named("master"))).
//		Spec()
//
//	var ServiceSpec = di.Class[Service]().
//		InjectConstructor(NewService).
//		Spec()
//
//	r := di.NewRegistry()
//	_ = r.Bind(di.RefOf[Repository](), RepositorySpec)
//	_ = r.Bind(di.RefOf[*Service](), ServiceSpec)
//
//	ctx, err := r.Context() // 校验依赖缺失与循环依赖
//	svc, err := di.Resolve[*Service](ctx)
//
// 结构体嵌入即继承链：Extends 声明被嵌入的父类型，父类型的注入字段与注入方法
// 会在父层视图上执行，注入方法按祖先在前的顺序调用，并遵循覆盖关系。
//
// 构造期的循环依赖必须通过 Provider[T]（或 Lazy）打破，延迟引用只检查存在性。
package di
