package cron

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gocrud/ioc/di"
)

// Job 组件形式的任务，由 AddComponentJob 在每次触发时解析
type Job interface {
	Run() error
}

// jobDefinition 任务定义：handler 与 ref 二选一
type jobDefinition struct {
	spec    string
	name    string
	handler func()
	ref     di.Ref
}

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         *time.Location
	jobs             []jobDefinition
	errs             []error
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{location: time.UTC}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区，例如 "Asia/Shanghai"
func (b *Builder) WithLocation(name string) *Builder {
	loc, err := time.LoadLocation(name)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("cron: invalid location %q: %w", name, err))
		return b
	}
	b.location = loc
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加函数任务
func (b *Builder) AddJob(spec, name string, handler func()) *Builder {
	if handler == nil {
		b.errs = append(b.errs, fmt.Errorf("cron: job '%s' has no handler", name))
		return b
	}
	return b.add(jobDefinition{spec: spec, name: name, handler: handler})
}

// AddComponentJob 添加组件任务。ref 绑定的组件必须实现 Job，
// 每次触发都会通过延迟句柄重新解析（除非以 singleton 绑定）。
func (b *Builder) AddComponentJob(spec, name string, ref di.Ref) *Builder {
	if ref.IsZero() {
		b.errs = append(b.errs, fmt.Errorf("cron: job '%s' has an empty ref", name))
		return b
	}
	return b.add(jobDefinition{spec: spec, name: name, ref: ref.Deferred()})
}

func (b *Builder) add(job jobDefinition) *Builder {
	for _, existing := range b.jobs {
		if existing.name == job.name {
			b.errs = append(b.errs, fmt.Errorf("cron: job '%s' already added", job.name))
			return b
		}
	}
	b.jobs = append(b.jobs, job)
	return b
}

func (b *Builder) parser() cron.Parser {
	if b.enableSeconds {
		return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	}
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// validate 检查构建器错误与全部表达式
func (b *Builder) validate() error {
	errs := append([]error(nil), b.errs...)
	parser := b.parser()
	for _, job := range b.jobs {
		if _, err := parser.Parse(job.spec); err != nil {
			errs = append(errs, fmt.Errorf("cron: job '%s' has invalid spec %q: %w", job.name, job.spec, err))
		}
	}
	return errors.Join(errs...)
}
