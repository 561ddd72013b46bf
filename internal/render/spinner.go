package render

import (
	"fmt"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/cea-hpc/milkcheck/internal/engine"
)

// SpinnerView implements engine.UserView, showing a single live spinner
// line naming whichever actions are currently in flight. It is
// deliberately silent (a no-op UserView) when stdout is not a TTY —
// callers should check TerminalWidth or their own isatty check before
// constructing one in a scripted context.
type SpinnerView struct {
	mu      sync.Mutex
	s       *spinner.Spinner
	running map[string]bool
}

// NewSpinnerView starts a spinner immediately; call Stop once the run
// completes.
func NewSpinnerView() *SpinnerView {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	v := &SpinnerView{s: s, running: make(map[string]bool)}
	s.Start()
	return v
}

// Stop halts the spinner and clears its line.
func (v *SpinnerView) Stop() { v.s.Stop() }

func (v *SpinnerView) refreshSuffix() {
	if len(v.running) == 0 {
		v.s.Suffix = ""
		return
	}
	// Pick an arbitrary-but-stable representative rather than listing
	// every in-flight action, to keep the line from wrapping.
	for name := range v.running {
		v.s.Suffix = fmt.Sprintf(" running %s (+%d more)", name, len(v.running)-1)
		break
	}
}

func (v *SpinnerView) OnStarted(entity string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.running[entity] = true
	v.refreshSuffix()
}

func (v *SpinnerView) OnDelayed(entity string, delay time.Duration) {}

func (v *SpinnerView) OnTriggerDep(entity, dependency string) {}

func (v *SpinnerView) OnStatusChanged(entity string, status engine.Status) {}

func (v *SpinnerView) OnComplete(entity string, status engine.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.running, entity)
	v.refreshSuffix()
}
