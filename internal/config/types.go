// Package config loads and validates MilkCheck's YAML service
// definitions: the variable bindings, services, service groups, and
// dependency edges that internal/engine's Registry is built from.
package config

// File is the top-level shape of a single YAML config file.
type File struct {
	Variables map[string]string `yaml:"variables"`
	Services  map[string]Service `yaml:"services"`
}

// Dependency is one entry of a depends list.
type Dependency struct {
	Target   string `yaml:"target"`
	Kind     string `yaml:"kind,omitempty"` // REQUIRE (default), REQUIRE_WEAK, CHECK
	Internal bool   `yaml:"internal,omitempty"`
}

// Action is a single verb's executable definition.
type Action struct {
	Command     string       `yaml:"command"`
	Description string       `yaml:"desc,omitempty"`
	Target      string       `yaml:"target,omitempty"`
	Timeout     int          `yaml:"timeout,omitempty"` // seconds, 0 = no timeout
	Delay       int          `yaml:"delay,omitempty"`   // seconds
	Retry       int          `yaml:"retry,omitempty"`
	Errors      int          `yaml:"errors,omitempty"`
	Fanout      int          `yaml:"fanout,omitempty"`
	Simulate    bool         `yaml:"simulate,omitempty"`
	// Dependencies is decoded but Build does not wire it: no action-level
	// dependency edge is created from config.
	Dependencies []Dependency `yaml:"depends,omitempty"`
}

// Service is a named unit with one Action per supported verb, or,
// for a group, a list of Services member names instead.
type Service struct {
	Description  string            `yaml:"desc,omitempty"`
	Target       string            `yaml:"target,omitempty"`
	Variables    map[string]string `yaml:"variables,omitempty"`
	Actions      map[string]Action `yaml:"actions,omitempty"`
	Dependencies []Dependency      `yaml:"depends,omitempty"`

	// Group, when non-empty, makes this a ServiceGroup: each entry names
	// a sibling service (declared anywhere in the same File) belonging
	// to it, optionally with an internal ordering dependency.
	Group []GroupMember `yaml:"group,omitempty"`
}

// GroupMember names one member of a service group and its optional
// internal ordering dependency on other members.
type GroupMember struct {
	Name         string       `yaml:"name"`
	Dependencies []Dependency `yaml:"depends,omitempty"`
}
