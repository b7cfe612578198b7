package config

import (
	"fmt"
	"sync"
	"time"
)

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// ConfigurationBuilder 配置构建器，后添加的配置源覆盖先添加的
type ConfigurationBuilder struct {
	sources []ConfigurationSource
	mu      sync.RWMutex
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{
		sources: make([]ConfigurationSource, 0),
	}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&JsonFileSource{Path: path, Optional: isOptional})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&YamlFileSource{Path: path, Optional: isOptional})
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// Build 构建配置
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	return b.BuildReloadable()
}

// BuildReloadable 构建可重新加载的配置
func (b *ConfigurationBuilder) BuildReloadable() (ReloadableConfiguration, error) {
	b.mu.RLock()
	sources := append([]ConfigurationSource(nil), b.sources...)
	b.mu.RUnlock()

	data, err := loadSources(sources)
	if err != nil {
		return nil, err
	}

	c := newConfiguration(data)
	c.sources = sources
	return c, nil
}

func loadSources(sources []ConfigurationSource) (map[string]any, error) {
	data := make(map[string]any)
	for _, source := range sources {
		loaded, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("config: failed to load source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}
	return data, nil
}
