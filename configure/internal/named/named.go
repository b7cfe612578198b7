// Package named 为 configure 下各模块提供按名称管理客户端的公共实现。
package named

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/ioc/di"
)

// Default 默认客户端名称，同名客户端还会以无限定符的形式注册
const Default = "default"

// Set 按名称保存客户端
type Set[C any] struct {
	kind    string
	clients map[string]C
	mu      sync.RWMutex
}

// NewSet 创建客户端集合，kind 用于错误信息
func NewSet[C any](kind string) *Set[C] {
	return &Set[C]{kind: kind, clients: make(map[string]C)}
}

// Put 保存客户端，名称重复时返回错误
func (s *Set[C]) Put(name string, client C) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[name]; exists {
		return fmt.Errorf("%s '%s' already registered", s.kind, name)
	}
	s.clients[name] = client
	return nil
}

// Get 获取指定名称的客户端
func (s *Set[C]) Get(name string) (C, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[name]
	if !ok {
		var zero C
		return zero, fmt.Errorf("%s '%s' not found", s.kind, name)
	}
	return client, nil
}

// Names 按字母序返回全部名称
func (s *Set[C]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.clients))
	for name := range s.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each 按名称顺序遍历
func (s *Set[C]) Each(fn func(name string, client C)) {
	for _, name := range s.Names() {
		client, err := s.Get(name)
		if err == nil {
			fn(name, client)
		}
	}
}

// Len 返回客户端数量
func (s *Set[C]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close 用 closeFn 关闭并清空全部客户端，返回合并后的错误
func (s *Set[C]) Close(closeFn func(C) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, client := range s.clients {
		if err := closeFn(client); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s '%s': %w", s.kind, name, err))
		}
	}
	s.clients = make(map[string]C)
	return errors.Join(errs...)
}

// Bind 把集合中的每个客户端以 Named(name) 绑定为 C，
// 名为 Default 的客户端同时以无限定符形式绑定。
func Bind[C any](r *di.Registry, set *Set[C]) error {
	var errs []error
	set.Each(func(name string, client C) {
		if err := di.Provide[C](r, client, di.WithName(name)); err != nil {
			errs = append(errs, err)
			return
		}
		if name == Default {
			if err := di.Provide[C](r, client); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// lazyClient 首次解析时才通过 get 创建客户端
type lazyClient[C any] struct {
	name string
	get  func(name string) (C, error)
}

func (l lazyClient[C]) Provide(*di.Context) (any, error) {
	return l.get(l.name)
}

func (l lazyClient[C]) Dependencies() []di.Ref {
	return nil
}

// BindFunc 与 Bind 相同，但客户端由 get 按需创建。
// get 需要自行缓存结果。
func BindFunc[C any](r *di.Registry, names []string, get func(name string) (C, error)) error {
	var errs []error
	for _, name := range names {
		strategy := lazyClient[C]{name: name, get: get}
		if err := r.BindStrategy(di.RefOf[C](), strategy, di.WithName(name)); err != nil {
			errs = append(errs, err)
			continue
		}
		if name == Default {
			if err := r.BindStrategy(di.RefOf[C](), strategy); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
