// Package engine implements MilkCheck's dependency-driven execution core:
// the service/action graph data model, status propagation, the action
// lifecycle (schedule, delay, dispatch, collect, retry), and the
// fan-out-limited concurrent dispatcher that coordinates in-flight remote
// commands. The package never ships a command itself — it is driven by a
// TaskRuntime collaborator (see taskruntime.go) supplied by the caller.
package engine
