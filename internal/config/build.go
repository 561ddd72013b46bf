package config

import (
	"sort"
	"time"

	"github.com/cea-hpc/milkcheck/internal/engine"
)

// Build constructs a ready-to-run engine.Registry (bound to manager)
// from a parsed File. It binds a two-level variable scope (file-wide
// variables, then each service's own variables shadowing them) that
// each action's %{...} references in its command and target are
// resolved against when the action is dispatched, wires every action
// and service-level dependency, and validates that group members and
// dependency targets actually exist. Action-level depends entries are
// not wired.
func Build(f *File, manager *engine.ActionManager) (*engine.Registry, error) {
	reg := engine.NewRegistry(manager)

	rootScope := engine.NewVariableScope(nil)
	for _, name := range sortedKeys(f.Variables) {
		if err := rootScope.Bind(name, f.Variables[name]); err != nil {
			return nil, err
		}
	}

	entities := make(map[string]engine.Entity, len(f.Services))

	// Pass 1: construct every Service/ServiceGroup so dependency and
	// group-member references can resolve regardless of declaration
	// order in the YAML map.
	for name, svcCfg := range f.Services {
		scope := engine.NewVariableScope(rootScope)
		for _, vn := range sortedKeys(svcCfg.Variables) {
			if err := scope.Bind(vn, svcCfg.Variables[vn]); err != nil {
				return nil, err
			}
		}

		if len(svcCfg.Group) > 0 {
			g := engine.NewServiceGroup(engine.ServiceConfig{
				Name:        name,
				Description: svcCfg.Description,
				Target:      svcCfg.Target,
				Scope:       scope,
			})
			entities[name] = g
			continue
		}

		s := engine.NewService(engine.ServiceConfig{
			Name:        name,
			Description: svcCfg.Description,
			Target:      svcCfg.Target,
			Scope:       scope,
		})
		for _, verb := range sortedActionKeys(svcCfg.Actions) {
			actCfg := svcCfg.Actions[verb]
			target := actCfg.Target
			if target == "" {
				target = svcCfg.Target
			}
			a, err := engine.NewAction(engine.ActionConfig{
				Name:        name + "." + verb,
				Description: actCfg.Description,
				Command:     actCfg.Command,
				Target:      target,
				Timeout:     time.Duration(actCfg.Timeout) * time.Second,
				Delay:       time.Duration(actCfg.Delay) * time.Second,
				Retry:       actCfg.Retry,
				Errors:      actCfg.Errors,
				Fanout:      actCfg.Fanout,
				Simulate:    actCfg.Simulate,
				Scope:       scope,
			})
			if err != nil {
				return nil, err
			}
			if err := s.AddAction(verb, a); err != nil {
				return nil, err
			}
		}
		entities[name] = s
	}

	// Pass 2: wire group membership and internal member ordering.
	for name, svcCfg := range f.Services {
		g, ok := entities[name].(*engine.ServiceGroup)
		if !ok {
			continue
		}
		memberEntities := make(map[string]engine.Entity, len(svcCfg.Group))
		for _, gm := range svcCfg.Group {
			me, ok := entities[gm.Name]
			if !ok {
				return nil, &UnknownGroupMemberError{Group: name, Member: gm.Name}
			}
			g.AddMember(me)
			memberEntities[gm.Name] = me
		}
		for _, gm := range svcCfg.Group {
			me := memberEntities[gm.Name]
			for _, dep := range gm.Dependencies {
				target, ok := memberEntities[dep.Target]
				if !ok {
					return nil, &UnknownGroupMemberError{Group: name, Member: dep.Target}
				}
				kind, err := engine.ParseKind(dep.Kind)
				if err != nil {
					return nil, err
				}
				if dependable, ok := me.(interface {
					AddDependency(engine.Entity, engine.Kind, bool) error
				}); ok {
					if err := dependable.AddDependency(target, kind, true); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	// Pass 3: register every top-level entity, then wire cross-service
	// dependency edges.
	for _, name := range sortedKeys(entities) {
		if err := reg.Register(entities[name]); err != nil {
			return nil, err
		}
	}
	for name, svcCfg := range f.Services {
		for _, dep := range svcCfg.Dependencies {
			kind, err := engine.ParseKind(dep.Kind)
			if err != nil {
				return nil, err
			}
			if err := reg.AddDependency(name, dep.Target, kind, dep.Internal); err != nil {
				return nil, err
			}
		}
	}

	return reg, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedActionKeys(m map[string]Action) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
