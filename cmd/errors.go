package cmd

import (
	"fmt"

	"github.com/cea-hpc/milkcheck/internal/engine"
)

// RunFailureError wraps the worst terminal status a call_services run
// produced so Execute's exit-code dispatcher can map it to its own
// code instead of collapsing every failure into one generic code.
type RunFailureError struct {
	Verb   string
	Status engine.Status
}

func (e *RunFailureError) Error() string {
	return fmt.Sprintf("%s finished with status %s", e.Verb, e.Status)
}
