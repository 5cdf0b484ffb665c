package nativedeps

import "fmt"

// BuildStep is one scheduled (library, target) pair.
type BuildStep struct {
	Library *Library
	Target  Target

	// Deps are the resolved dependency library names for this platform,
	// in plan order. Their dist directories are handed to the builder.
	Deps []string
}

// ID returns a stable identifier for logging and progress display.
func (s BuildStep) ID() string {
	return fmt.Sprintf("%s %s", s.Library.Name, s.Target.Name())
}

// BuildPlan is an ordered sequence of build steps such that every
// library's dependencies for a target precede the library itself for that
// same target.
type BuildPlan struct {
	Steps []BuildStep
}

// Plan orders the requested libraries for every target of a platform.
// Cyclic or dangling edges fail here, before anything is fetched or built.
func Plan(reg *LibraryRegistry, catalog *TargetCatalog, platform Platform, cfg PlatformConfig, targets []Target) (*BuildPlan, error) {
	order, err := topoOrder(reg, cfg)
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool)
	var mark func(name string) error
	mark = func(name string) error {
		if requested[name] {
			return nil
		}
		lib, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		requested[name] = true
		for _, dep := range resolveDeps(lib, cfg) {
			if err := mark(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range cfg.Libraries {
		if err := mark(name); err != nil {
			return nil, err
		}
	}

	plan := &BuildPlan{}
	for _, target := range targets {
		for _, name := range order {
			if !requested[name] {
				continue
			}
			lib, _ := reg.Lookup(name)
			plan.Steps = append(plan.Steps, BuildStep{
				Library: lib,
				Target:  target,
				Deps:    resolveDeps(lib, cfg),
			})
		}
	}
	return plan, nil
}

// topoOrder sorts the whole registry by dependency depth using a three
// color depth-first walk. The graph is tiny; clarity beats cleverness.
func topoOrder(reg *LibraryRegistry, cfg PlatformConfig) ([]string, error) {
	const (
		white = iota // unvisited
		grey         // on the current path
		black        // done
	)
	color := make(map[string]int)
	var order []string
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case grey:
			return &CyclicDependencyError{Cycle: append(append([]string{}, path...), name)}
		}
		lib, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		color[name] = grey
		path = append(path, name)
		for _, dep := range resolveDeps(lib, cfg) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range reg.Names() {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
