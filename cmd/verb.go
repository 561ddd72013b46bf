package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cea-hpc/milkcheck/internal/engine"
	"github.com/cea-hpc/milkcheck/internal/logging"
	"github.com/cea-hpc/milkcheck/internal/render"
)

// newVerbCmd builds a subcommand that runs one fixed verb (start, stop,
// restart, ...) against the service/group names given as arguments, or
// every registered top-level name if none are given.
func newVerbCmd(verb string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " [service...]",
		Short: fmt.Sprintf("Run the %s action across services", verb),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerb(cmd, verb, args)
		},
	}
}

// runVerb dispatches verb across names (or every registered name, if
// none are given) and reports the outcome. It never calls os.Exit
// itself: a non-Done worst status comes back as a *RunFailureError so
// Execute's single exit-code dispatcher decides the process's fate.
func runVerb(cmd *cobra.Command, verb string, names []string) error {
	if len(names) == 0 {
		names = reg.Names()
	}

	view := render.NewSpinnerView()
	mgr.SetView(view)

	results, err := reg.CallServices(cmd.Context(), names, verb)
	view.Stop()
	if err != nil {
		logging.Audit(logging.AuditEvent{Action: "call_services", Outcome: "failure", Target: verb, Error: err.Error()})
		return err
	}

	render.RunResult(verb, results)

	resultNames := make([]string, 0, len(results))
	for name := range results {
		resultNames = append(resultNames, name)
	}
	sort.Strings(resultNames)

	worst := engine.Done
	for _, name := range resultNames {
		if statusRank(results[name]) > statusRank(worst) {
			worst = results[name]
		}
	}
	logging.Audit(logging.AuditEvent{Action: "call_services", Outcome: outcomeOf(worst), Target: verb})

	if worst == engine.Done {
		return nil
	}
	return &RunFailureError{Verb: verb, Status: worst}
}

// statusRank totally orders statuses worst-last so picking the "worst"
// result across many services is deterministic regardless of map
// iteration order.
func statusRank(s engine.Status) int {
	switch s {
	case engine.Done:
		return 0
	case engine.Warning:
		return 1
	case engine.Error:
		return 2
	case engine.TimedOut:
		return 3
	case engine.TooManyErrors:
		return 4
	default:
		return 0
	}
}

func outcomeOf(s engine.Status) string {
	if s.IsFailure() {
		return "failure"
	}
	return "success"
}
