package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/ispeed-collector/pkg/logger"
)

// Shutdown 停止信号：SIGINT/SIGTERM，以及 screen quit 发出的 SIGHUP
var Shutdown = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// WithShutdown 返回收到停止信号时取消的 ctx；第二个信号直接退出。
// 调用返回的 cancel 后监听协程退出并注销信号。
func WithShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, Shutdown...)

	stop := make(chan struct{})
	var once sync.Once
	release := func() {
		once.Do(func() {
			cancel()
			close(stop)
		})
	}

	go func() {
		defer signal.Stop(sigChan)
		watch(sigChan, cancel, stop, func() {
			_ = logger.Sync()
			os.Exit(1)
		})
	}()
	return ctx, release
}

// watch 第一个信号取消 ctx，第二个信号调用 exit；stop 关闭即返回
func watch(sigChan <-chan os.Signal, cancel context.CancelFunc, stop <-chan struct{}, exit func()) {
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case <-stop:
		return
	}

	select {
	case sig := <-sigChan:
		logger.Warn("second signal, exiting immediately", zap.String("signal", sig.String()))
		exit()
	case <-stop:
	}
}
