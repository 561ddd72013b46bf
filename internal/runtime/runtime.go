package runtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/cea-hpc/milkcheck/internal/engine"
	"github.com/cea-hpc/milkcheck/internal/logging"
)

// Runtime implements engine.TaskRuntime: it expands each action's
// target node-set, runs the command against every node concurrently
// under a global semaphore-enforced fanout cap and the action's own
// fanout cap, and feeds completion
// callbacks back to the engine one at a time through Resume — the
// underlying exec calls run on real goroutines, but the engine only
// ever observes them resolving serially, preserving the single-threaded
// event-loop contract TaskRuntime documents.
type Runtime struct {
	sem *semaphore.Weighted

	done    chan func()
	pending int
}

// New constructs a Runtime with the given starting fanout cap (at least
// 1); ActionManager replaces it via SetFanout with the largest fanout
// among running actions each time an action starts or finishes.
func New(initialFanout int) *Runtime {
	if initialFanout <= 0 {
		initialFanout = 1
	}
	return &Runtime{
		sem:  semaphore.NewWeighted(int64(initialFanout)),
		done: make(chan func(), 64),
	}
}

// SetFanout replaces the semaphore with one sized to n. Any acquisition
// already held against the previous semaphore is unaffected; fanout
// changes take effect for dispatches issued from this point on.
func (r *Runtime) SetFanout(n int) {
	if n <= 0 {
		n = 1
	}
	r.sem = semaphore.NewWeighted(int64(n))
}

// Dispatch implements engine.TaskRuntime.
func (r *Runtime) Dispatch(ctx context.Context, command, target string, timeout time.Duration, fanout int, handler engine.CloseHandler) (engine.Worker, error) {
	nodes, err := ExpandNodeSet(target)
	if err != nil {
		return nil, err
	}

	w := newWorker(len(nodes) == 0)
	correlationID := uuid.NewString()
	logging.Debug("runtime", "dispatch %s: %d node(s)", correlationID, len(nodes))
	r.pending++
	go r.run(ctx, correlationID, command, nodes, timeout, fanout, r.sem, w, handler)
	return w, nil
}

func (r *Runtime) run(ctx context.Context, correlationID, command string, nodes []string, timeout time.Duration, fanout int, sem *semaphore.Weighted, w *worker, handler engine.CloseHandler) {
	dctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if len(nodes) == 0 {
		if err := sem.Acquire(dctx, 1); err != nil {
			w.record(nodeResult{timeout: true})
		} else {
			res := runLocal(dctx, command)
			sem.Release(1)
			w.record(res)
		}
	} else {
		if fanout <= 0 || fanout > len(nodes) {
			fanout = len(nodes)
		}
		slots := make(chan struct{}, fanout)
		done := make(chan struct{}, len(nodes))
		for _, n := range nodes {
			go func(node string) {
				defer func() { done <- struct{}{} }()
				slots <- struct{}{}
				defer func() { <-slots }()
				if err := sem.Acquire(dctx, 1); err != nil {
					w.record(nodeResult{node: node, timeout: true})
					return
				}
				res := runRemote(dctx, node, command)
				sem.Release(1)
				w.record(res)
			}(n)
		}
		for range nodes {
			<-done
		}
	}

	logging.Debug("runtime", "dispatch %s complete: timed_out=%v", correlationID, w.DidTimeout())
	r.done <- func() {
		r.pending--
		handler(w)
	}
}

// timerHandle adapts time.Timer to engine.Timer.
type timerHandle struct {
	t       *time.Timer
	r       *Runtime
	stopped bool
}

func (h *timerHandle) Stop() {
	if h.stopped {
		return
	}
	if h.t.Stop() {
		h.stopped = true
		h.r.pending--
	}
}

// Timer implements engine.TaskRuntime.
func (r *Runtime) Timer(delay time.Duration, handler engine.TimerHandler) engine.Timer {
	r.pending++
	h := &timerHandle{r: r}
	h.t = time.AfterFunc(delay, func() {
		r.done <- func() {
			r.pending--
			handler()
		}
	})
	return h
}

// Resume implements engine.TaskRuntime: it drains completion callbacks
// one at a time until no dispatch or timer remains outstanding.
func (r *Runtime) Resume(ctx context.Context) error {
	for r.pending > 0 {
		select {
		case fn := <-r.done:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
