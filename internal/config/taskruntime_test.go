package config

import (
	"context"
	"time"

	"github.com/cea-hpc/milkcheck/internal/engine"
)

// noopWorker reports a single successful local result.
type noopWorker struct{}

func (noopWorker) DidTimeout() bool                { return false }
func (noopWorker) IterRetcodes() []engine.Retcode  { return []engine.Retcode{{Code: 0}} }
func (noopWorker) IterBuffers() []engine.Buffer    { return nil }
func (noopWorker) Read() ([]byte, error)           { return nil, nil }
func (noopWorker) CurrentNode() string             { return "" }

type noopTimerHandle struct{}

func (noopTimerHandle) Stop() {}

// noopTaskRuntime resolves every dispatch synchronously and successfully;
// it exists only to let Build's wiring be exercised without a real
// transport.
type noopTaskRuntime struct{}

func newNoopTaskRuntime() *noopTaskRuntime { return &noopTaskRuntime{} }

func (r *noopTaskRuntime) Dispatch(ctx context.Context, command, target string, timeout time.Duration, fanout int, handler engine.CloseHandler) (engine.Worker, error) {
	w := noopWorker{}
	handler(w)
	return w, nil
}

func (r *noopTaskRuntime) Timer(delay time.Duration, handler engine.TimerHandler) engine.Timer {
	handler()
	return noopTimerHandle{}
}

func (r *noopTaskRuntime) Resume(ctx context.Context) error { return nil }

func (r *noopTaskRuntime) SetFanout(n int) {}
