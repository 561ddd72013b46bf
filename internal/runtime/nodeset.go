// Package runtime implements MilkCheck's TaskRuntime collaborator: it
// expands node-set expressions, dispatches commands concurrently across
// nodes under a global fanout cap, and drives a single-threaded
// cooperative event loop that the engine package depends on only
// through its TaskRuntime interface.
package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// ExpandNodeSet expands a ClusterShell-style bracketed range expression
// such as "node[1-4,8]" or "rack[01-03]-node[1,2]" into the concrete,
// ordered list of node names it denotes. An expression with no bracket
// group is returned as a single-element list; an empty expression
// yields an empty (local-only) node list.
func ExpandNodeSet(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	groups, err := splitGroups(expr)
	if err != nil {
		return nil, err
	}

	nodes := []string{""}
	for _, g := range groups {
		expanded, err := expandGroup(g)
		if err != nil {
			return nil, err
		}
		nodes = cross(nodes, expanded)
	}
	return nodes, nil
}

// group is either a literal string segment or a bracketed range/list
// segment, in the order they occur in the original expression.
type group struct {
	literal string
	ranges  []string // e.g. ["1-4", "8"], empty if literal
}

func splitGroups(expr string) ([]group, error) {
	var groups []group
	rest := expr
	for {
		open := strings.IndexByte(rest, '[')
		if open == -1 {
			if rest != "" {
				groups = append(groups, group{literal: rest})
			}
			break
		}
		if open > 0 {
			groups = append(groups, group{literal: rest[:open]})
		}
		closeIdx := strings.IndexByte(rest[open:], ']')
		if closeIdx == -1 {
			return nil, fmt.Errorf("nodeset %q: unterminated '['", expr)
		}
		closeIdx += open
		inner := rest[open+1 : closeIdx]
		groups = append(groups, group{ranges: strings.Split(inner, ",")})
		rest = rest[closeIdx+1:]
	}
	return groups, nil
}

func expandGroup(g group) ([]string, error) {
	if g.ranges == nil {
		return []string{g.literal}, nil
	}
	var out []string
	for _, r := range g.ranges {
		r = strings.TrimSpace(r)
		if !strings.Contains(r, "-") {
			out = append(out, r)
			continue
		}
		bounds := strings.SplitN(r, "-", 2)
		lo, err := strconv.Atoi(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("nodeset range %q: %w", r, err)
		}
		hi, err := strconv.Atoi(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("nodeset range %q: %w", r, err)
		}
		if hi < lo {
			return nil, fmt.Errorf("nodeset range %q: descending range", r)
		}
		width := len(bounds[0])
		for n := lo; n <= hi; n++ {
			out = append(out, fmt.Sprintf("%0*d", width, n))
		}
	}
	return out, nil
}

// cross produces the cartesian-product concatenation of every prefix in
// prefixes with every suffix in suffixes, preserving order.
func cross(prefixes, suffixes []string) []string {
	out := make([]string, 0, len(prefixes)*len(suffixes))
	for _, p := range prefixes {
		for _, s := range suffixes {
			out = append(out, p+s)
		}
	}
	return out
}
