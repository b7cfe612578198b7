package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// Service Cron 定时任务托管服务
type Service struct {
	cron   *cron.Cron
	logger logging.Logger
	jobs   map[string]cron.EntryID
	mu     sync.RWMutex
}

func newService(b *Builder, logger logging.Logger) *Service {
	opts := []cron.Option{
		cron.WithLocation(b.location),
		cron.WithParser(b.parser()),
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if b.enableCronLogger {
		opts = append(opts, cron.WithLogger(newCronLogger(logger)))
	}

	return &Service{
		cron:   cron.New(opts...),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Name 实现 hosting.Named
func (s *Service) Name() string { return "cron" }

// Build 校验全部任务并创建服务。组件任务的引用必须在 ctx 中存在。
func (b *Builder) Build(ctx *di.Context, logger logging.Logger) (*Service, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	svc := newService(b, logger)
	for _, job := range b.jobs {
		run := job.handler
		if run == nil {
			if !ctx.Contains(job.ref.Plain()) {
				return nil, fmt.Errorf("cron: job '%s' component %v: %w", job.name, job.ref.Plain(), di.ErrNotBound)
			}
			handle, _, err := ctx.Get(job.ref)
			if err != nil {
				return nil, err
			}
			run = componentRunner(handle.(di.Lazy), job.name, logger)
		}
		if err := svc.add(job.spec, job.name, run); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// componentRunner 每次触发时通过延迟句柄解析组件并执行
func componentRunner(lazy di.Lazy, name string, logger logging.Logger) func() {
	return func() {
		instance, err := lazy()
		if err != nil {
			logger.Error("cron job component resolve failed",
				logging.Field{Key: "job", Value: name},
				logging.Field{Key: "error", Value: err},
			)
			return
		}

		job, ok := instance.(Job)
		if !ok {
			logger.Error("cron job component does not implement cron.Job",
				logging.Field{Key: "job", Value: name},
				logging.Field{Key: "type", Value: fmt.Sprintf("%T", instance)},
			)
			return
		}
		if err := job.Run(); err != nil {
			logger.Error("cron job failed",
				logging.Field{Key: "job", Value: name},
				logging.Field{Key: "error", Value: err},
			)
		}
	}
}

func (s *Service) add(spec, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("cron job started", logging.Field{Key: "job", Value: name})
		job()
	})
	if err != nil {
		return fmt.Errorf("cron: failed to add job '%s': %w", name, err)
	}
	s.jobs[name] = id
	return nil
}

// Jobs 返回已注册的任务名
func (s *Service) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Trigger 立即在当前 goroutine 执行一次指定任务
func (s *Service) Trigger(name string) error {
	s.mu.RLock()
	id, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("cron: job '%s' not found", name)
	}

	s.cron.Entry(id).WrappedJob.Run()
	return nil
}

// Remove 移除任务
func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}
}

// Start 启动调度并阻塞，直到 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("cron started", logging.Field{Key: "jobs", Value: len(s.Jobs())})
	s.cron.Start()
	<-ctx.Done()
	return nil
}

// Stop 停止调度，并等待正在执行的任务结束或 ctx 超时
func (s *Service) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("cron stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 把框架日志适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []any) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprint(keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
