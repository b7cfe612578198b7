package database

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gocrud/ioc/configure/internal/named"
)

// DefaultName 默认数据库名称
const DefaultName = named.Default

// Options 数据库配置选项
type Options struct {
	Name         string
	Dialector    gorm.Dialector
	GormConfig   *gorm.Config
	MaxIdleConns int
	MaxOpenConns int
	MaxLifetime  time.Duration
	AutoMigrate  []any // 需要自动迁移的模型
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, dialector gorm.Dialector) *Options {
	return &Options{
		Name:         name,
		Dialector:    dialector,
		GormConfig:   &gorm.Config{},
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  time.Hour,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if o.Dialector == nil {
		return fmt.Errorf("database dialector is required")
	}
	return nil
}

// SQLite 返回 sqlite 方言，path 可以是文件路径或 "file::memory:?cache=shared"
func SQLite(path string) gorm.Dialector {
	return sqlite.Open(path)
}

// Factory 数据库实例工厂
type Factory struct {
	*named.Set[*gorm.DB]
}

// NewFactory 创建数据库工厂
func NewFactory() *Factory {
	return &Factory{Set: named.NewSet[*gorm.DB]("database")}
}

// Open 打开数据库连接、配置连接池并执行自动迁移
func (f *Factory) Open(opts Options) (*gorm.DB, error) {
	if _, err := f.Get(opts.Name); err == nil {
		return nil, fmt.Errorf("database '%s' already registered", opts.Name)
	}

	db, err := gorm.Open(opts.Dialector, opts.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database '%s': %w", opts.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for '%s': %w", opts.Name, err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	if len(opts.AutoMigrate) > 0 {
		if err := db.AutoMigrate(opts.AutoMigrate...); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to auto migrate '%s': %w", opts.Name, err)
		}
	}

	if err := f.Put(opts.Name, db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close 关闭全部连接
func (f *Factory) Close() error {
	return f.Set.Close(func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
}
