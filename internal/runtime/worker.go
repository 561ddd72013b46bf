package runtime

import (
	"bytes"
	"context"
	"os/exec"
	"sync"

	"github.com/cea-hpc/milkcheck/internal/engine"
)

// nodeResult is one node's outcome from a single dispatch.
type nodeResult struct {
	node    string
	retcode int
	output  []byte
	timeout bool
}

// worker implements engine.Worker, aggregating per-node results the way
// the original implementation's distributed shell layer does: nodes
// sharing an identical retcode, or an identical output buffer, are
// reported together rather than once per node.
type worker struct {
	mu        sync.Mutex
	results   []nodeResult
	didTimeout bool
	local     bool
}

func newWorker(local bool) *worker {
	return &worker{local: local}
}

func (w *worker) record(r nodeResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results = append(w.results, r)
	if r.timeout {
		w.didTimeout = true
	}
}

func (w *worker) DidTimeout() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.didTimeout
}

func (w *worker) IterRetcodes() []engine.Retcode {
	w.mu.Lock()
	defer w.mu.Unlock()
	byCode := make(map[int][]string)
	var order []int
	for _, r := range w.results {
		if _, seen := byCode[r.retcode]; !seen {
			order = append(order, r.retcode)
		}
		byCode[r.retcode] = append(byCode[r.retcode], r.node)
	}
	out := make([]engine.Retcode, 0, len(order))
	for _, code := range order {
		out = append(out, engine.Retcode{Code: code, Nodes: byCode[code]})
	}
	return out
}

func (w *worker) IterBuffers() []engine.Buffer {
	w.mu.Lock()
	defer w.mu.Unlock()
	type key struct{ data string }
	byData := make(map[key][]string)
	var order []key
	for _, r := range w.results {
		k := key{data: string(r.output)}
		if _, seen := byData[k]; !seen {
			order = append(order, k)
		}
		byData[k] = append(byData[k], r.node)
	}
	out := make([]engine.Buffer, 0, len(order))
	for _, k := range order {
		out = append(out, engine.Buffer{Data: []byte(k.data), Nodes: byData[k]})
	}
	return out
}

func (w *worker) Read() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.results) == 0 {
		return nil, nil
	}
	return w.results[0].output, nil
}

func (w *worker) CurrentNode() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.local || len(w.results) == 0 {
		return ""
	}
	return w.results[len(w.results)-1].node
}

// runLocal executes command as a local shell command, with no node
// targeting — used for actions whose Target is empty.
func runLocal(ctx context.Context, command string) nodeResult {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()

	res := nodeResult{output: buf.Bytes()}
	if ctx.Err() == context.DeadlineExceeded {
		res.timeout = true
		return res
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.retcode = exitErr.ExitCode()
	} else if err != nil {
		res.retcode = -1
	}
	return res
}

// runRemote executes command on a single node over SSH. It shells out
// to the system ssh client rather than pulling in an SSH client
// library, matching the scope of a dependency-graph engine whose
// remote-execution transport is an external, interface-only
// collaborator (see TaskRuntime in the engine package).
func runRemote(ctx context.Context, node, command string) nodeResult {
	cmd := exec.CommandContext(ctx, "ssh", "-o", "BatchMode=yes", node, command)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()

	res := nodeResult{node: node, output: buf.Bytes()}
	if ctx.Err() == context.DeadlineExceeded {
		res.timeout = true
		return res
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.retcode = exitErr.ExitCode()
	} else if err != nil {
		res.retcode = -1
	}
	return res
}
