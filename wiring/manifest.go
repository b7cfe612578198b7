package wiring

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
)

// Entry 一条绑定声明。Impl 与 Instance 必须恰好提供一个。
// Type 为空时绑定到 Impl 的实例类型（Instance 时为实例的动态类型）。
type Entry struct {
	Type       string   `json:"type" yaml:"type"`
	Impl       string   `json:"impl" yaml:"impl"`
	Instance   string   `json:"instance" yaml:"instance"`
	Qualifiers []string `json:"qualifiers" yaml:"qualifiers"`
	Scope      string   `json:"scope" yaml:"scope"`
}

// Manifest 声明式绑定清单
//
//	bindings:
//	  - type: StudentRepository
//	    impl: GormStudentRepository
//	    scope: singleton
//	  - type: Clock
//	    instance: systemClock
//	    qualifiers: [utc]
type Manifest struct {
	Bindings []Entry `json:"bindings" yaml:"bindings"`
}

// ParseManifest 解析 YAML 清单
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("wiring: invalid manifest: %w", err)
	}
	return &m, nil
}

// ReadManifest 读取 YAML 清单文件
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wiring: failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// LoadManifest 从配置节 section 读取清单，配置节不存在时返回空清单
func LoadManifest(cfg config.Configuration, section string) (*Manifest, error) {
	m, err := config.LoadOrDefault(cfg, section, Manifest{})
	if err != nil {
		return nil, fmt.Errorf("wiring: failed to load manifest from '%s': %w", section, err)
	}
	return &m, nil
}

// Apply 按顺序把全部声明绑定到 r，返回全部失败条目的合并错误
func (m *Manifest) Apply(r *di.Registry, catalog *Catalog) error {
	var errs []error
	for i, entry := range m.Bindings {
		if err := entry.apply(r, catalog); err != nil {
			errs = append(errs, fmt.Errorf("wiring: binding #%d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

func (e Entry) apply(r *di.Registry, catalog *Catalog) error {
	if (e.Impl == "") == (e.Instance == "") {
		return fmt.Errorf("exactly one of impl and instance is required")
	}

	scope, err := di.ParseScope(e.Scope)
	if err != nil {
		return err
	}
	opts := []di.BindOption{di.WithScope(scope)}
	for _, q := range e.Qualifiers {
		opts = append(opts, di.WithName(q))
	}

	if e.Instance != "" {
		if scope != di.ScopeTransient {
			return fmt.Errorf("instance %q cannot declare a scope", e.Instance)
		}
		instance, err := catalog.lookupInstance(e.Instance)
		if err != nil {
			return err
		}
		target, err := e.target(catalog, reflect.TypeOf(instance))
		if err != nil {
			return err
		}
		return r.BindInstance(di.NewRef(target), instance, opts...)
	}

	spec, err := catalog.lookupSpec(e.Impl)
	if err != nil {
		return err
	}
	target, err := e.target(catalog, spec.InstanceType())
	if err != nil {
		return err
	}
	return r.Bind(di.NewRef(target), spec, opts...)
}

func (e Entry) target(catalog *Catalog, fallback reflect.Type) (reflect.Type, error) {
	if e.Type == "" {
		if fallback == nil {
			return nil, fmt.Errorf("type is required for nil instances")
		}
		return fallback, nil
	}
	return catalog.lookupType(e.Type)
}

// Configure 返回从配置节 section 读取清单并应用的选项
func Configure(catalog *Catalog, section string) core.Option {
	return func(rt *core.Runtime) error {
		m, err := LoadManifest(rt.Config, section)
		if err != nil {
			return err
		}
		return m.Apply(rt.Registry, catalog)
	}
}

// ConfigureFile 返回从 YAML 文件读取清单并应用的选项
func ConfigureFile(catalog *Catalog, path string) core.Option {
	return func(rt *core.Runtime) error {
		m, err := ReadManifest(path)
		if err != nil {
			return err
		}
		return m.Apply(rt.Registry, catalog)
	}
}
