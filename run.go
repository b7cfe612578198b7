package ioc

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/hosting"
	"github.com/gocrud/ioc/logging"
)

// ShutdownTimeout 停止托管服务与执行停止钩子的超时时间
var ShutdownTimeout = 5 * time.Second

// Run 启动应用程序并阻塞，直到 ctx 结束、收到退出信号或某个托管服务失败。
//
// 流程：应用全部 Option，构建并校验依赖图，执行启动钩子，启动托管服务；
// 退出时倒序停止托管服务并执行停止钩子。
func Run(ctx context.Context, opts ...core.Option) error {
	rt := NewRuntime()
	if err := rt.Apply(opts...); err != nil {
		return err
	}
	return RunRuntime(ctx, rt)
}

// RunRuntime 运行已配置好的 Runtime
func RunRuntime(ctx context.Context, rt *core.Runtime) error {
	logger := rt.Logger

	_, services, err := rt.Build()
	if err != nil {
		logger.Error("应用构建失败", logging.Field{Key: "error", Value: err})
		return errors.Join(err, stop(rt, nil))
	}

	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if err := rt.Lifecycle.Start(ctx); err != nil {
		logger.Error("启动钩子执行失败", logging.Field{Key: "error", Value: err})
		return errors.Join(err, stop(rt, nil))
	}

	manager := hosting.NewHostedServiceManager(logger)
	manager.Add(services...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := manager.StartAll(runCtx)
	logger.Info("应用已启动", logging.Field{Key: "hosted", Value: len(services)})

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("收到退出信号，开始关闭")
	case runErr = <-errCh:
		logger.Error("托管服务失败，开始关闭", logging.Field{Key: "error", Value: runErr})
	}

	cancel()
	return errors.Join(runErr, stop(rt, manager))
}

func stop(rt *core.Runtime, manager *hosting.HostedServiceManager) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if manager != nil {
		errs = append(errs, manager.StopAll(shutdownCtx))
		manager.Wait()
	}
	// 停止钩子可能关闭日志，必须最后执行
	errs = append(errs, rt.Lifecycle.Stop(shutdownCtx, rt.Logger))
	return errors.Join(errs...)
}
