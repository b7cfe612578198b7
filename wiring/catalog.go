package wiring

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/ioc/di"
)

// Catalog 清单中使用的名称到类型、类型描述与实例的映射
type Catalog struct {
	types     map[string]reflect.Type
	specs     map[string]*di.TypeSpec
	instances map[string]any
	mu        sync.RWMutex
}

// NewCatalog 创建空的目录
func NewCatalog() *Catalog {
	return &Catalog{
		types:     make(map[string]reflect.Type),
		specs:     make(map[string]*di.TypeSpec),
		instances: make(map[string]any),
	}
}

// AddType 以 name 登记绑定目标类型
func (c *Catalog) AddType(name string, t reflect.Type) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[name] = t
	return c
}

// AddSpec 以 name 登记实现类型的描述
func (c *Catalog) AddSpec(name string, spec *di.TypeSpec) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs[name] = spec
	return c
}

// AddInstance 以 name 登记实例
func (c *Catalog) AddInstance(name string, instance any) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[name] = instance
	return c
}

// Type 以 name 登记类型 T
func Type[T any](c *Catalog, name string) *Catalog {
	return c.AddType(name, di.TypeOf[T]())
}

func (c *Catalog) lookupType(name string) (reflect.Type, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.types[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("wiring: unknown type %q", name)
}

func (c *Catalog) lookupSpec(name string) (*di.TypeSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if spec, ok := c.specs[name]; ok {
		return spec, nil
	}
	return nil, fmt.Errorf("wiring: unknown implementation %q", name)
}

func (c *Catalog) lookupInstance(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.instances[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("wiring: unknown instance %q", name)
}
