package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cea-hpc/milkcheck/internal/engine"
)

func kindColor(k engine.Kind) text.Colors {
	switch k {
	case engine.Require:
		return text.Colors{text.FgHiRed}
	case engine.RequireWeak:
		return text.Colors{text.FgHiYellow}
	case engine.Check:
		return text.Colors{text.FgHiCyan}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

// Graph writes an indented dependency tree for each root entity: one
// line per outgoing edge, annotated with its kind, recursing into the
// target's own dependencies. A target already printed higher in the
// same root's tree is noted as "(see above)" instead of re-expanded,
// so a diamond or cyclic-looking graph still terminates.
func Graph(w io.Writer, roots []engine.Entity) {
	for _, root := range roots {
		fmt.Fprintln(w, text.Colors{text.FgHiWhite, text.Bold}.Sprint(root.Name()))
		graphWalk(w, root, "", map[string]bool{root.Name(): true})
	}
}

// entityWithDeps is satisfied by every Entity the config builder
// produces (Action, Service, ServiceGroup), all via their embedded
// BaseEntity: Dependencies and DependencyTargets walk the same
// registration-ordered edge list, so zipping them together recovers
// each edge's resolved target without needing package-private access.
type entityWithDeps interface {
	Dependencies() []engine.Dependency
	DependencyTargets() []engine.Entity
}

func graphWalk(w io.Writer, e engine.Entity, prefix string, seen map[string]bool) {
	d, ok := e.(entityWithDeps)
	if !ok {
		return
	}
	deps := d.Dependencies()
	targets := d.DependencyTargets()

	for i, dep := range deps {
		last := i == len(deps)-1
		branch := "├── "
		nextPrefix := prefix + "│   "
		if last {
			branch = "└── "
			nextPrefix = prefix + "    "
		}

		label := kindColor(dep.Kind).Sprint(dep.Kind.String())
		if dep.Internal {
			label += " internal"
		}
		line := fmt.Sprintf("%s%s[%s] %s", prefix, branch, label, dep.Target)

		if seen[dep.Target] {
			fmt.Fprintln(w, line+" (see above)")
			continue
		}
		fmt.Fprintln(w, line)

		seen[dep.Target] = true
		if i < len(targets) {
			graphWalk(w, targets[i], nextPrefix, seen)
		}
	}
}
