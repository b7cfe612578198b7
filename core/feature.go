package core

import (
	"reflect"
	"sync"
)

// FeatureCollection 按类型保存构建期特性，例如 web.Builder、cron.Builder。
// 同一模块被多次配置时可以取回已有的 Builder 继续追加。
type FeatureCollection struct {
	features sync.Map
}

// Set 按 feature 的动态类型保存
func (fc *FeatureCollection) Set(feature any) {
	fc.features.Store(reflect.TypeOf(feature), feature)
}

// Get 获取类型为 typ 的特性
func (fc *FeatureCollection) Get(typ reflect.Type) (any, bool) {
	return fc.features.Load(typ)
}

// GetFeature 获取类型为 T 的特性
func GetFeature[T any](rt *Runtime) (T, bool) {
	var zero T
	if val, ok := rt.Features.Get(reflect.TypeOf((*T)(nil)).Elem()); ok {
		return val.(T), true
	}
	return zero, false
}

// FeatureOrCreate 获取类型为 T 的特性，不存在时用 create 创建并保存。
// 第二个返回值表示是否为新创建的。
func FeatureOrCreate[T any](rt *Runtime, create func() T) (T, bool) {
	if feature, ok := GetFeature[T](rt); ok {
		return feature, false
	}
	feature := create()
	rt.Features.Set(feature)
	return feature, true
}
