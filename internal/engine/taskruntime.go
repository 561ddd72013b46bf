package engine

import (
	"context"
	"time"
)

// Retcode pairs an exit code with the set of node names that produced it,
// mirroring the task runtime's per-node result aggregation.
type Retcode struct {
	Code  int
	Nodes []string
}

// Buffer pairs captured output bytes with the set of nodes that produced
// identical output, again mirroring the task runtime's output gathering.
type Buffer struct {
	Data  []byte
	Nodes []string
}

// Worker is the opaque handle the task runtime returns for one dispatched
// action. The engine never inspects transport internals — only these
// accessors, per spec §6.
type Worker interface {
	DidTimeout() bool
	IterRetcodes() []Retcode
	IterBuffers() []Buffer
	// Read returns the single combined output buffer for a local (no
	// target nodes) worker.
	Read() ([]byte, error)
	// CurrentNode is empty for a local worker.
	CurrentNode() string
}

// CloseHandler is invoked by the task runtime when a dispatched worker has
// finished (successfully, on error, or on timeout).
type CloseHandler func(Worker)

// TimerHandler is invoked by the task runtime when an armed timer fires.
type TimerHandler func()

// Timer is the handle returned by TaskRuntime.Timer, allowing
// cancellation. The engine itself never calls Stop: reset() does not
// cancel an armed timer.
type Timer interface {
	Stop()
}

// TaskRuntime is the external collaborator specified at interface only by
// spec §6: it actually ships commands to nodes and drives the engine's
// event callbacks. The engine treats it as a single-threaded cooperative
// event loop — Resume blocks until no worker or timer is outstanding,
// invoking CloseHandler/TimerHandler callbacks serially as results land.
type TaskRuntime interface {
	// Dispatch fires a command against a target node-set expression (e.g.
	// "node[1-4,8]", or empty for a local-only action) with the given
	// per-node timeout (zero disables the timeout) and a fanout cap for
	// this action alone, returning a worker handle immediately; handler
	// fires exactly once when the worker closes. Expanding the node-set
	// expression into concrete node names is the runtime's concern, not
	// the engine's.
	Dispatch(ctx context.Context, command string, target string, timeout time.Duration, fanout int, handler CloseHandler) (Worker, error)
	// Timer arms a one-shot timer of the given delay; handler fires
	// exactly once when it expires.
	Timer(delay time.Duration, handler TimerHandler) Timer
	// Resume runs the event loop until no dispatched worker and no armed
	// timer remains outstanding.
	Resume(ctx context.Context) error
	// SetFanout adjusts the runtime's global concurrent-worker cap.
	SetFanout(n int)
}
