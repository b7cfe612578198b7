package config

import (
	"sync/atomic"
)

// ValueStore 原子保存整份配置数据，读取无锁
type ValueStore struct {
	value atomic.Pointer[map[string]any]
}

// NewValueStore 创建新的 ValueStore
func NewValueStore() *ValueStore {
	s := &ValueStore{}
	s.Store(make(map[string]any))
	return s
}

// Load 返回当前配置数据，调用方不得修改
func (s *ValueStore) Load() map[string]any {
	if p := s.value.Load(); p != nil {
		return *p
	}
	return nil
}

// Store 原子替换配置数据
func (s *ValueStore) Store(data map[string]any) {
	s.value.Store(&data)
}
