package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/logging"
)

// Builder 数据库配置构建器
type Builder struct {
	cfg     config.Configuration
	configs []Options
	errs    []error
}

// NewBuilder 创建构建器，cfg 可以为空
func NewBuilder(cfg config.Configuration) *Builder {
	return &Builder{cfg: cfg}
}

// Configuration 返回应用配置
func (b *Builder) Configuration() config.Configuration {
	return b.cfg
}

// Add 添加数据库配置
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*Options)) *Builder {
	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}

	if err := opts.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("invalid database configuration for '%s': %w", name, err))
		return b
	}
	for _, existing := range b.configs {
		if existing.Name == name {
			b.errs = append(b.errs, fmt.Errorf("database '%s' already configured", name))
			return b
		}
	}

	b.configs = append(b.configs, *opts)
	return b
}

// Settings 配置文件中的数据库配置
//
//	databases:
//	  default:
//	    driver: sqlite
//	    dsn: students.db
//	    max_open_conns: 5
type Settings struct {
	Driver       string `json:"driver"`
	DSN          string `json:"dsn"`
	MaxIdleConns int    `json:"max_idle_conns"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxLifetime  string `json:"max_lifetime"`
}

// AddFromConfig 按配置节 section 添加数据库，每个子节对应一个名称。
// models 会在每个数据库上自动迁移。
func (b *Builder) AddFromConfig(section string, models ...any) *Builder {
	if b.cfg == nil {
		b.errs = append(b.errs, fmt.Errorf("database: configuration is not available"))
		return b
	}

	var all map[string]Settings
	if err := b.cfg.Bind(section, &all); err != nil {
		b.errs = append(b.errs, fmt.Errorf("database: failed to bind section '%s': %w", section, err))
		return b
	}

	for _, name := range sortedKeys(all) {
		s := all[name]
		dialector, err := dialectorFor(s)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("database '%s': %w", name, err))
			continue
		}

		var lifetime time.Duration
		if s.MaxLifetime != "" {
			if lifetime, err = time.ParseDuration(s.MaxLifetime); err != nil {
				b.errs = append(b.errs, fmt.Errorf("database '%s': invalid max_lifetime: %w", name, err))
				continue
			}
		}

		b.Add(name, dialector, func(o *Options) {
			if s.MaxIdleConns > 0 {
				o.MaxIdleConns = s.MaxIdleConns
			}
			if s.MaxOpenConns > 0 {
				o.MaxOpenConns = s.MaxOpenConns
			}
			if lifetime > 0 {
				o.MaxLifetime = lifetime
			}
			o.AutoMigrate = append(o.AutoMigrate, models...)
		})
	}
	return b
}

func dialectorFor(s Settings) (gorm.Dialector, error) {
	switch s.Driver {
	case "", "sqlite":
		if s.DSN == "" {
			return nil, fmt.Errorf("dsn is required")
		}
		return SQLite(s.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", s.Driver)
	}
}

// Build 打开全部数据库。未配置任何数据库时返回 nil。
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, opts := range b.configs {
		if opts.GormConfig == nil {
			opts.GormConfig = &gorm.Config{}
		}
		if opts.GormConfig.Logger == nil {
			opts.GormConfig.Logger = NewGormLogger(logger.WithFields(logging.Field{Key: "database", Value: opts.Name}))
		}

		if _, err := factory.Open(opts); err != nil {
			factory.Close()
			return nil, err
		}
		logger.Info("database opened",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "dialect", Value: opts.Dialector.Name()},
		)
	}
	return factory, nil
}
