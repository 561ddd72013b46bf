// Package render draws a call_services run to the terminal: a
// go-pretty table of final statuses, colored by outcome, plus a live
// spinner while the run is still in flight. The table is not sized to
// the terminal width; TerminalWidth is not used by RunResult.
package render

import (
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cea-hpc/milkcheck/internal/engine"
)

func statusColor(s engine.Status) text.Colors {
	switch {
	case s == engine.Done:
		return text.Colors{text.FgHiGreen, text.Bold}
	case s == engine.Warning:
		return text.Colors{text.FgHiYellow, text.Bold}
	case s.IsFailure():
		return text.Colors{text.FgHiRed, text.Bold}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

// RunResult renders a call_services result map as a table, one row per
// requested service/group, sorted by name for stable output.
func RunResult(verb string, results map[string]engine.Status) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("SERVICE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("VERB"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("STATUS"),
	})

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := results[name]
		t.AppendRow(table.Row{
			text.Colors{text.FgHiWhite, text.Bold}.Sprint(name),
			verb,
			statusColor(st).Sprint(st.String()),
		})
	}
	t.Render()
}
