package engine

import "fmt"

// DependencyAlreadyReferencedError is raised when a second dependency on the
// same target name is added to one entity.
type DependencyAlreadyReferencedError struct {
	Entity string
	Target string
}

func (e *DependencyAlreadyReferencedError) Error() string {
	return fmt.Sprintf("%s: dependency on %q already referenced", e.Entity, e.Target)
}

// IllegalDependencyTypeError is raised when a dependency kind outside the
// closed set (REQUIRE, REQUIRE_WEAK, CHECK) is requested, typically from a
// config file carrying a typo'd kind string.
type IllegalDependencyTypeError struct {
	Kind string
}

func (e *IllegalDependencyTypeError) Error() string {
	return fmt.Sprintf("illegal dependency type %q", e.Kind)
}

// ActionNotFoundError is raised when a verb is requested on a service that
// does not define an action for it, outside of the diagnostic verbs that
// tolerate a missing action.
type ActionNotFoundError struct {
	Service string
	Action  string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("service %s has no action %q", e.Service, e.Action)
}

// ServiceNotFoundError is raised when the CLI or registry is asked to
// resolve a service name that is not registered.
type ServiceNotFoundError struct {
	Name string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service %q not found", e.Name)
}

// UndefinedVariableError is raised when %{name} refers to a name that is
// bound neither in the entity's own scope nor any parent scope.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// VariableAlreadyReferencedError is raised when a scope tries to bind a
// name it already holds.
type VariableAlreadyReferencedError struct {
	Name string
}

func (e *VariableAlreadyReferencedError) Error() string {
	return fmt.Sprintf("variable %q already referenced in this scope", e.Name)
}

// InvalidVariableError is raised when %{...} interpolation in a resolved
// property is left unresolved (malformed reference, or a cycle deep enough
// to exceed the expansion budget).
type InvalidVariableError struct {
	Expression string
}

func (e *InvalidVariableError) Error() string {
	return fmt.Sprintf("invalid variable expression %q", e.Expression)
}

// CycleError is raised when the service or action graph built from config
// is not acyclic.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %v", e.Path)
}
