package signal

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithShutdownCancelsOnSignal(t *testing.T) {
	parent, stopParent := context.WithCancel(context.Background())
	defer stopParent()

	ctx, cancel := WithShutdown(parent)
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))

	select {
	case <-ctx.Done():
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGHUP")
	}
}

func TestWithShutdownCancelFunc(t *testing.T) {
	ctx, cancel := WithShutdown(context.Background())
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func runWatch(sigChan chan os.Signal, stop chan struct{}, exited *atomic.Bool) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		watch(sigChan, cancel, stop, func() { exited.Store(true) })
	}()
	return ctx, done
}

func TestWatchReturnsWhenStopped(t *testing.T) {
	sigChan := make(chan os.Signal, 2)
	stop := make(chan struct{})
	var exited atomic.Bool
	ctx, done := runWatch(sigChan, stop, &exited)

	sigChan <- syscall.SIGTERM
	<-ctx.Done()
	close(stop)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch still running after stop")
	}
	assert.False(t, exited.Load())
}

func TestWatchSecondSignalExits(t *testing.T) {
	sigChan := make(chan os.Signal, 2)
	stop := make(chan struct{})
	defer close(stop)
	var exited atomic.Bool
	ctx, done := runWatch(sigChan, stop, &exited)

	sigChan <- syscall.SIGINT
	<-ctx.Done()
	sigChan <- syscall.SIGINT

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch ignored second signal")
	}
	assert.True(t, exited.Load())
}

func TestWatchStopBeforeSignal(t *testing.T) {
	stop := make(chan struct{})
	close(stop)
	var exited atomic.Bool
	ctx, done := runWatch(make(chan os.Signal), stop, &exited)

	<-done
	assert.NoError(t, ctx.Err())
	assert.False(t, exited.Load())
}
