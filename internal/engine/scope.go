package engine

import (
	"strings"
)

// maxExpansionDepth bounds %{name} recursive expansion so a cyclic
// binding (a referring to b referring to a) fails fast as an
// InvalidVariableError instead of looping forever.
const maxExpansionDepth = 32

// VariableScope is an ordered name→expression mapping, chained to an
// optional parent scope. Entities resolve properties against their own
// scope first, then walk up through parents.
type VariableScope struct {
	parent *VariableScope
	names  []string
	values map[string]string
}

// NewVariableScope creates an empty scope chained to the given parent
// (which may be nil for a root scope).
func NewVariableScope(parent *VariableScope) *VariableScope {
	return &VariableScope{parent: parent, values: make(map[string]string)}
}

// Bind adds a new name→expression binding. Rebinding an existing name in
// this scope (not a parent scope — shadowing a parent binding is allowed)
// is rejected.
func (s *VariableScope) Bind(name, expression string) error {
	if _, exists := s.values[name]; exists {
		return &VariableAlreadyReferencedError{Name: name}
	}
	s.names = append(s.names, name)
	s.values[name] = expression
	return nil
}

// lookup returns the raw (unexpanded) expression bound to name, walking up
// the parent chain on a local miss.
func (s *VariableScope) lookup(name string) (string, error) {
	for scope := s; scope != nil; scope = scope.parent {
		if v, ok := scope.values[name]; ok {
			return v, nil
		}
	}
	return "", &UndefinedVariableError{Name: name}
}

// Resolve expands a %{name} interpolation pattern in expression against
// this scope, recursively expanding any %{...} the substituted value
// itself contains. Resolution is deterministic: identical inputs against
// an unchanged scope always produce the same output.
func (s *VariableScope) Resolve(expression string) (string, error) {
	return s.resolve(expression, 0)
}

func (s *VariableScope) resolve(expression string, depth int) (string, error) {
	if depth >= maxExpansionDepth {
		return "", &InvalidVariableError{Expression: expression}
	}
	if !strings.Contains(expression, "%{") {
		return expression, nil
	}

	var out strings.Builder
	rest := expression
	for {
		start := strings.Index(rest, "%{")
		if start == -1 {
			out.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end == -1 {
			// Unterminated %{: the whole expression is invalid.
			return "", &InvalidVariableError{Expression: expression}
		}
		end += start

		out.WriteString(rest[:start])
		name := rest[start+2 : end]
		raw, err := s.lookup(name)
		if err != nil {
			return "", err
		}
		expanded, err := s.resolve(raw, depth+1)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
		rest = rest[end+1:]
	}

	result := out.String()
	if strings.Contains(result, "%{") {
		// A bound value re-introduced an interpolation marker that never
		// resolved to a bound name; the original was malformed.
		return "", &InvalidVariableError{Expression: expression}
	}
	return result, nil
}
