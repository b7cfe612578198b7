package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// Configuration 配置接口（类似于 .NET Core IConfiguration）
type Configuration interface {
	// Get 获取配置值
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体
	Bind(key string, target any) error
	// GetAll 获取所有配置
	GetAll() map[string]any
}

// ReloadableConfiguration 可重新加载的配置
type ReloadableConfiguration interface {
	Configuration
	// Reload 按顺序重新加载全部配置源，成功后通知回调
	Reload() error
	// OnReload 注册重新加载后的回调
	OnReload(fn func())
}

// configuration 配置实现。数据整体存放在 ValueStore 中，读取无锁，重新加载时原子替换。
type configuration struct {
	store   *ValueStore
	sources []ConfigurationSource

	mu        sync.Mutex
	callbacks []func()
}

func newConfiguration(data map[string]any) *configuration {
	c := &configuration{store: NewValueStore()}
	c.store.Store(data)
	return c
}

// Get 获取配置值
func (c *configuration) Get(key string) string {
	value := c.getByPath(key)
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetWithDefault 获取配置值，如果不存在则返回默认值
func (c *configuration) GetWithDefault(key, defaultValue string) string {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetInt 获取整数配置值
func (c *configuration) GetInt(key string) (int, error) {
	value := c.getByPath(key)
	if value == nil {
		return 0, fmt.Errorf("config: key %s not found", key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("config: cannot convert %v to int", value)
	}
}

// GetBool 获取布尔配置值
func (c *configuration) GetBool(key string) (bool, error) {
	value := c.getByPath(key)
	if value == nil {
		return false, fmt.Errorf("config: key %s not found", key)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("config: cannot convert %v to bool", value)
	}
}

// GetSection 获取配置节（快照，不随重新加载变化）
func (c *configuration) GetSection(key string) Configuration {
	if m, ok := c.getByPath(key).(map[string]any); ok {
		return newConfiguration(m)
	}
	return newConfiguration(make(map[string]any))
}

// Bind 绑定配置到结构体
func (c *configuration) Bind(key string, target any) error {
	data := c.getByPath(key)
	if data == nil {
		return fmt.Errorf("config: key %s not found", key)
	}

	// 使用 JSON 序列化/反序列化进行绑定
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("config: failed to marshal section %s: %w", key, err)
	}
	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("config: failed to bind section %s: %w", key, err)
	}
	return nil
}

// GetAll 获取所有配置（副本）
func (c *configuration) GetAll() map[string]any {
	result := make(map[string]any)
	mergeMaps(result, c.store.Load())
	return result
}

// Reload 重新加载全部配置源
func (c *configuration) Reload() error {
	data, err := loadSources(c.sources)
	if err != nil {
		return err
	}
	c.store.Store(data)

	c.mu.Lock()
	callbacks := append([]func(){}, c.callbacks...)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// OnReload 注册重新加载后的回调
func (c *configuration) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// getByPath 通过路径获取值（支持 "a:b:c" 或 "a.b.c"），空路径返回根节点
func (c *configuration) getByPath(path string) any {
	current := any(c.store.Load())
	if path == "" {
		return current
	}

	for _, part := range splitPath(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// mergeMaps 把 src 深度合并进 dst，src 中的值优先
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			dstMap, ok := dst[k].(map[string]any)
			if !ok {
				dstMap = make(map[string]any, len(srcMap))
				dst[k] = dstMap
			}
			mergeMaps(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}
